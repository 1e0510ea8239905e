package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/pkg/response"
)

func TestUserList(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedUser(t, db, models.RoleStudent, fmt.Sprintf("student%d@ucu.ac.ug", i))
	}
	seedUser(t, db, models.RoleSupervisor, "mentor@ucu.ac.ug")

	res, err := svc.List(ctx, &UserListRequest{Page: 1, Limit: 2, Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Total)
	assert.Len(t, res.Items, 2)

	res, err = svc.List(ctx, &UserListRequest{Search: "MENTOR"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "mentor@ucu.ac.ug", res.Items[0].Email)
}

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	user := seedUser(t, db, models.RoleSupervisor, "u@ucu.ac.ug")

	inactive := false
	updated, err := svc.Update(ctx, user.ID, &UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	// becoming a student requires a faculty
	student := models.RoleStudent
	_, err = svc.Update(ctx, user.ID, &UpdateUserRequest{Role: &student})
	var appErr *response.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "faculty", appErr.Errors[0].Field)

	faculty := "Law"
	updated, err = svc.Update(ctx, user.ID, &UpdateUserRequest{Role: &student, Faculty: &faculty})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, updated.Role)

	var stored models.User
	require.NoError(t, db.Where("id = ?", user.ID).First(&stored).Error)
	assert.Equal(t, "Law", stored.Faculty)
	assert.False(t, stored.IsActive)

	_, err = svc.Update(ctx, "missing", &UpdateUserRequest{IsActive: &inactive})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	admin := seedUser(t, db, models.RoleAdmin, "admin@ucu.ac.ug")
	student := seedUser(t, db, models.RoleStudent, "s@ucu.ac.ug")
	other := seedUser(t, db, models.RoleStudent, "o@ucu.ac.ug")

	owned := seedProject(t, db, student, models.StatusApproved)
	reviewed := seedProject(t, db, other, models.StatusApproved, func(p *models.Project) { p.SupervisorID = &admin.ID })
	require.NoError(t, db.Create(&models.Comment{ProjectID: owned.ID, UserID: other.ID, Content: "on owned"}).Error)
	require.NoError(t, db.Create(&models.Comment{ProjectID: reviewed.ID, UserID: student.ID, Content: "by student"}).Error)

	assert.ErrorIs(t, svc.Delete(ctx, identityOf(admin), admin.ID), ErrSelfDelete)
	require.NoError(t, svc.Delete(ctx, identityOf(admin), student.ID))

	var users, projects, comments int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Project{}).Count(&projects)
	db.Model(&models.Comment{}).Count(&comments)
	assert.Equal(t, int64(2), users)
	assert.Equal(t, int64(1), projects)
	assert.Zero(t, comments)

	assert.ErrorIs(t, svc.Delete(ctx, identityOf(admin), student.ID), ErrUserNotFound)
}

func TestUserList_SearchEscapesWildcards(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	seedUser(t, db, models.RoleStudent, "plain@ucu.ac.ug")
	seedUser(t, db, models.RoleStudent, "under_score@ucu.ac.ug")

	res, err := svc.List(context.Background(), &UserListRequest{Search: "_"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "under_score@ucu.ac.ug", res.Items[0].Email)

	res, err = svc.List(context.Background(), &UserListRequest{Search: "%"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}
