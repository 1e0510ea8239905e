package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/pkg/response"
)

func TestCommentCreateAndList(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommentService(db)
	ctx := context.Background()

	student := seedUser(t, db, models.RoleStudent, "s@ucu.ac.ug")
	reader := seedUser(t, db, models.RoleStudent, "r@ucu.ac.ug")
	p := seedProject(t, db, student, models.StatusApproved)

	root, err := svc.Create(ctx, identityOf(reader), p.ID, &CreateCommentRequest{Content: "  Impressive!  "})
	require.NoError(t, err)
	assert.Equal(t, "Impressive!", root.Content)
	require.NotNil(t, root.User)
	assert.Equal(t, reader.FirstName, root.User.FirstName)
	assert.Empty(t, root.User.Email)

	reply, err := svc.Create(ctx, identityOf(student), p.ID, &CreateCommentRequest{Content: "Thanks", ParentComment: root.ID})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentComment)
	assert.Equal(t, root.ID, reply.ParentComment.ID)

	comments, err := svc.ListForProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	ids := []string{comments[0].ID, comments[1].ID}
	assert.ElementsMatch(t, []string{root.ID, reply.ID}, ids)
	for _, c := range comments {
		require.NotNil(t, c.User)
	}

	empty, err := svc.ListForProject(ctx, "other-project")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCommentCreate_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommentService(db)
	ctx := context.Background()

	student := seedUser(t, db, models.RoleStudent, "s@ucu.ac.ug")
	p := seedProject(t, db, student, models.StatusApproved)

	var appErr *response.AppError

	_, err := svc.Create(ctx, identityOf(student), p.ID, &CreateCommentRequest{Content: "   "})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "content", appErr.Errors[0].Field)

	_, err = svc.Create(ctx, identityOf(student), p.ID, &CreateCommentRequest{Content: strings.Repeat("x", MaxCommentLength+1)})
	require.ErrorAs(t, err, &appErr)

	_, err = svc.Create(ctx, identityOf(student), "missing", &CreateCommentRequest{Content: "hi"})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = svc.Create(ctx, identityOf(student), p.ID, &CreateCommentRequest{Content: "hi", ParentComment: "missing"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.HTTPStatus)
	assert.Equal(t, "parentComment", appErr.Errors[0].Field)
}

func TestCommentCreate_ParentFromOtherProject(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommentService(db)
	ctx := context.Background()

	student := seedUser(t, db, models.RoleStudent, "s@ucu.ac.ug")
	p1 := seedProject(t, db, student, models.StatusApproved)
	p2 := seedProject(t, db, student, models.StatusApproved)

	parent, err := svc.Create(ctx, identityOf(student), p1.ID, &CreateCommentRequest{Content: "first"})
	require.NoError(t, err)

	reply, err := svc.Create(ctx, identityOf(student), p2.ID, &CreateCommentRequest{Content: "cross", ParentComment: parent.ID})
	require.NoError(t, err)
	assert.Equal(t, p2.ID, reply.ProjectID)
}

func TestCommentDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommentService(db)
	ctx := context.Background()

	author := seedUser(t, db, models.RoleStudent, "author@ucu.ac.ug")
	other := seedUser(t, db, models.RoleSupervisor, "other@ucu.ac.ug")
	admin := seedUser(t, db, models.RoleAdmin, "admin@ucu.ac.ug")
	p := seedProject(t, db, author, models.StatusApproved)

	c1, err := svc.Create(ctx, identityOf(author), p.ID, &CreateCommentRequest{Content: "one"})
	require.NoError(t, err)
	c2, err := svc.Create(ctx, identityOf(author), p.ID, &CreateCommentRequest{Content: "two"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, identityOf(other), c1.ID), ErrNotCommentOwner)
	require.NoError(t, svc.Delete(ctx, identityOf(author), c1.ID))
	require.NoError(t, svc.Delete(ctx, identityOf(admin), c2.ID))
	assert.ErrorIs(t, svc.Delete(ctx, identityOf(admin), c2.ID), ErrCommentNotFound)
}
