package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ucu-innovators/hub/backend/internal/config"
	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/internal/storage"
	"github.com/ucu-innovators/hub/backend/pkg/response"
	"gorm.io/gorm"
)

func newProjectService(t *testing.T, db *gorm.DB, queue TaskQueue) (*ProjectService, *config.UploadConfig) {
	t.Helper()

	cfg := config.DefaultConfig().Upload
	cfg.Dir = t.TempDir()
	store, err := storage.NewLocalStorage(cfg.Dir, cfg.PublicPath)
	require.NoError(t, err)
	return NewProjectService(db, queue, store, &cfg), &cfg
}

func documentHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("document", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["document"][0]
}

func TestProjectCreate(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newProjectService(t, db, nil)
	student := seedUser(t, db, models.RoleStudent, "s@ucu.ac.ug")

	req := validProjectRequest()
	req.Technologies = []string{" Go ", "", "MQTT"}

	p, err := svc.Create(context.Background(), identityOf(student), req, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, p.Status)
	assert.Equal(t, student.ID, p.SubmittedByID)
	require.NotNil(t, p.SubmittedBy)
	assert.Equal(t, student.Email, p.SubmittedBy.Email)
	assert.Equal(t, []string{"Go", "MQTT"}, []string(p.Technologies))
	assert.Equal(t, models.AcademicYear(time.Now()), p.AcademicYear)
	assert.Zero(t, p.Views)
}

func TestProjectCreate_Validation(t *testing.T) {
	long := make([]byte, MaxTitleLength+1)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name  string
		mod   func(*CreateProjectRequest)
		field string
	}{
		{"missing title", func(r *CreateProjectRequest) { r.Title = "" }, "title"},
		{"long title", func(r *CreateProjectRequest) { r.Title = string(long) }, "title"},
		{"bad category", func(r *CreateProjectRequest) { r.Category = "Gaming" }, "category"},
		{"bad faculty", func(r *CreateProjectRequest) { r.Faculty = "Medicine" }, "faculty"},
		{"missing department", func(r *CreateProjectRequest) { r.Department = " " }, "department"},
		{"non github link", func(r *CreateProjectRequest) { r.GithubLink = "https://gitlab.com/x/y" }, "githubLink"},
		{"team member without role", func(r *CreateProjectRequest) {
			r.TeamMembers = []models.TeamMember{{Name: "Bob"}}
		}, "teamMembers[0]"},
		{"bad academic year", func(r *CreateProjectRequest) { r.AcademicYear = "2024" }, "academicYear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			svc, _ := newProjectService(t, db, nil)
			student := seedUser(t, db, models.RoleStudent, "v@ucu.ac.ug")

			req := validProjectRequest()
			tt.mod(req)
			_, err := svc.Create(context.Background(), identityOf(student), req, nil)

			var appErr *response.AppError
			require.ErrorAs(t, err, &appErr)
			require.NotEmpty(t, appErr.Errors)
			assert.Equal(t, tt.field, appErr.Errors[0].Field)

			var count int64
			db.Model(&models.Project{}).Count(&count)
			assert.Zero(t, count)
		})
	}
}

func TestProjectCreate_WithDocument(t *testing.T) {
	db := newTestDB(t)
	svc, cfg := newProjectService(t, db, nil)
	student := seedUser(t, db, models.RoleStudent, "doc@ucu.ac.ug")

	pdf := []byte("%PDF-1.4\n%%EOF\n")
	p, err := svc.Create(context.Background(), identityOf(student), validProjectRequest(), documentHeader(t, "report.pdf", pdf))
	require.NoError(t, err)
	assert.Regexp(t, `^/uploads/document-[0-9a-f-]+\.pdf$`, p.DocumentURL)

	entries, err := os.ReadDir(cfg.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, svc.Delete(context.Background(), identityOf(student), p.ID))
	entries, err = os.ReadDir(cfg.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProjectCreate_BadDocumentPersistsNothing(t *testing.T) {
	db := newTestDB(t)
	svc, cfg := newProjectService(t, db, nil)
	student := seedUser(t, db, models.RoleStudent, "bad@ucu.ac.ug")

	_, err := svc.Create(context.Background(), identityOf(student), validProjectRequest(), documentHeader(t, "payload.exe", []byte("MZ")))
	var appErr *response.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.HTTPStatus)

	var count int64
	db.Model(&models.Project{}).Count(&count)
	assert.Zero(t, count)

	entries, err := os.ReadDir(cfg.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProjectList_Visibility(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newProjectService(t, db, nil)
	ctx := context.Background()

	student := seedUser(t, db, models.RoleStudent, "s@ucu.ac.ug")
	supervisor := seedUser(t, db, models.RoleSupervisor, "sup@ucu.ac.ug")
	for _, status := range models.Statuses {
		seedProject(t, db, student, status)
	}

	callers := map[string]*Identity{
		"anonymous": nil,
		"student":   identityOf(student),
	}
	for name, caller := range callers {
		for _, status := range append([]string{""}, models.Statuses...) {
			res, err := svc.List(ctx, caller, &ProjectListRequest{Status: status})
			require.NoError(t, err)
			for _, p := range res.Items {
				assert.Equal(t, models.StatusApproved, p.Status, "%s asking for %q", name, status)
			}
			assert.Equal(t, int64(1), res.Total)
		}
	}

	res, err := svc.List(ctx, identityOf(supervisor), &ProjectListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Total)

	res, err = svc.List(ctx, identityOf(supervisor), &ProjectListRequest{Status: models.StatusRejected})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, models.StatusRejected, res.Items[0].Status)
}

func TestProjectList_Pagination(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newProjectService(t, db, nil)
	student := seedUser(t, db, models.RoleStudent, "s@ucu.ac.ug")

	for i := 0; i < 37; i++ {
		seedProject(t, db, student, models.StatusApproved)
	}

	res, err := svc.List(context.Background(), nil, &ProjectListRequest{Page: 2, Limit: 12})
	require.NoError(t, err)

	assert.Len(t, res.Items, 12)
	assert.Equal(t, int64(37), res.Total)
	assert.Equal(t, 4, response.NewPagination(res.Total, res.Page, res.Limit).Pages)
}

func TestProjectList_Filters(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newProjectService(t, db, nil)
	ctx := context.Background()
	student := seedUser(t, db, models.RoleStudent, "s@ucu.ac.ug")

	seedProject(t, db, student, models.StatusApproved, func(p *models.Project) {
		p.Title = "Crop Disease Detector"
		p.Category = "AI/ML"
		p.Faculty = "Sciences"
		p.AcademicYear = "2023/2024"
	})
	seedProject(t, db, student, models.StatusApproved, func(p *models.Project) {
		p.Title = "Campus Map"
		p.Description = "Indoor navigation with a DETECTOR of beacons"
	})
	seedProject(t, db, student, models.StatusApproved)

	res, err := svc.List(ctx, nil, &ProjectListRequest{Search: "detector"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)

	res, err = svc.List(ctx, nil, &ProjectListRequest{Category: "AI/ML"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	res, err = svc.List(ctx, nil, &ProjectListRequest{Faculty: "Sciences", Year: "2023/2024"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Crop Disease Detector", res.Items[0].Title)
	require.NotNil(t, res.Items[0].SubmittedBy)
	assert.Equal(t, student.FirstName, res.Items[0].SubmittedBy.FirstName)
}

func TestProjectGetByID_CountsViews(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newProjectService(t, db, nil)
	student := seedUser(t, db, models.RoleStudent, "s@ucu.ac.ug")
	p := seedProject(t, db, student, models.StatusApproved)

	const reads = 5
	var last *models.Project
	for i := 0; i < reads; i++ {
		var err error
		last, err = svc.GetByID(context.Background(), p.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(reads), last.Views)

	_, err := svc.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectListMine(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newProjectService(t, db, nil)
	alice := seedUser(t, db, models.RoleStudent, "alice@ucu.ac.ug")
	bob := seedUser(t, db, models.RoleStudent, "bob@ucu.ac.ug")

	seedProject(t, db, alice, models.StatusPending)
	seedProject(t, db, alice, models.StatusRejected)
	seedProject(t, db, bob, models.StatusApproved)

	mine, err := svc.ListMine(context.Background(), identityOf(alice))
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, p := range mine {
		assert.Equal(t, alice.ID, p.SubmittedByID)
	}
}

func TestProjectUpdate_Ownership(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newProjectService(t, db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, models.RoleStudent, "owner@ucu.ac.ug")
	other := seedUser(t, db, models.RoleStudent, "other@ucu.ac.ug")
	admin := seedUser(t, db, models.RoleAdmin, "admin@ucu.ac.ug")
	p := seedProject(t, db, owner, models.StatusPending, func(p *models.Project) { p.Views = 7 })

	title := "Renamed"
	_, err := svc.Update(ctx, identityOf(other), p.ID, &UpdateProjectRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotProjectOwner)

	updated, err := svc.Update(ctx, identityOf(owner), p.ID, &UpdateProjectRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, int64(7), updated.Views)
	assert.Equal(t, models.StatusPending, updated.Status)

	techs := []string{"Rust"}
	updated, err = svc.Update(ctx, identityOf(admin), p.ID, &UpdateProjectRequest{Technologies: &techs})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rust"}, []string(updated.Technologies))

	bad := "https://example.com/repo"
	_, err = svc.Update(ctx, identityOf(owner), p.ID, &UpdateProjectRequest{GithubLink: &bad})
	var appErr *response.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "githubLink", appErr.Errors[0].Field)

	_, err = svc.Update(ctx, identityOf(owner), "missing", &UpdateProjectRequest{Title: &title})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectDelete(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newProjectService(t, db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, models.RoleStudent, "owner@ucu.ac.ug")
	other := seedUser(t, db, models.RoleSupervisor, "other@ucu.ac.ug")
	admin := seedUser(t, db, models.RoleAdmin, "admin@ucu.ac.ug")

	p1 := seedProject(t, db, owner, models.StatusPending)
	p2 := seedProject(t, db, owner, models.StatusPending)
	require.NoError(t, db.Create(&models.Comment{ProjectID: p1.ID, UserID: other.ID, Content: "nice"}).Error)

	assert.ErrorIs(t, svc.Delete(ctx, identityOf(other), p1.ID), ErrNotProjectOwner)

	require.NoError(t, svc.Delete(ctx, identityOf(owner), p1.ID))
	require.NoError(t, svc.Delete(ctx, identityOf(admin), p2.ID))

	var projects, comments int64
	db.Model(&models.Project{}).Count(&projects)
	db.Model(&models.Comment{}).Count(&comments)
	assert.Zero(t, projects)
	assert.Zero(t, comments)

	assert.ErrorIs(t, svc.Delete(ctx, identityOf(admin), p1.ID), ErrProjectNotFound)
}

func TestProjectUpdateStatus_LastReviewerWins(t *testing.T) {
	db := newTestDB(t)
	queue := &recordingQueue{}
	svc, _ := newProjectService(t, db, queue)
	ctx := context.Background()

	student := seedUser(t, db, models.RoleStudent, "s@ucu.ac.ug")
	first := seedUser(t, db, models.RoleSupervisor, "first@ucu.ac.ug")
	second := seedUser(t, db, models.RoleSupervisor, "second@ucu.ac.ug")
	p := seedProject(t, db, student, models.StatusPending)

	_, err := svc.UpdateStatus(ctx, identityOf(first), p.ID, &UpdateStatusRequest{Status: models.StatusUnderReview})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, identityOf(second), p.ID, &UpdateStatusRequest{Status: models.StatusApproved, ReviewComment: "Great work"})
	require.NoError(t, err)

	require.NotNil(t, updated.SupervisorID)
	assert.Equal(t, second.ID, *updated.SupervisorID)
	require.NotNil(t, updated.Supervisor)
	assert.Equal(t, second.Email, updated.Supervisor.Email)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, "Great work", updated.ReviewComment)
	assert.NotNil(t, updated.ReviewedAt)

	require.Len(t, queue.tasks, 2)
	assert.Equal(t, ReviewNotificationTask{ProjectID: p.ID, Status: models.StatusApproved, ReviewerID: second.ID}, queue.tasks[1])
}

func TestProjectUpdateStatus_InvalidStatus(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newProjectService(t, db, nil)
	student := seedUser(t, db, models.RoleStudent, "s@ucu.ac.ug")
	admin := seedUser(t, db, models.RoleAdmin, "a@ucu.ac.ug")
	p := seedProject(t, db, student, models.StatusPending)

	_, err := svc.UpdateStatus(context.Background(), identityOf(admin), p.ID, &UpdateStatusRequest{Status: "archived"})
	var appErr *response.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "status", appErr.Errors[0].Field)

	_, err = svc.UpdateStatus(context.Background(), identityOf(admin), "missing", &UpdateStatusRequest{Status: models.StatusApproved})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectList_SearchMatchesWildcardsLiterally(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newProjectService(t, db, nil)
	owner := seedUser(t, db, models.RoleStudent, "owner@ucu.ac.ug")
	seedProject(t, db, owner, models.StatusApproved, func(p *models.Project) {
		p.Title = "Alpha"
		p.Description = "plain"
	})
	seedProject(t, db, owner, models.StatusApproved, func(p *models.Project) {
		p.Title = "Yield up 50% with_sensors"
	})

	for _, term := range []string{"%", "_", "0%", "h_s"} {
		res, err := svc.List(context.Background(), nil, &ProjectListRequest{Search: term})
		require.NoError(t, err)
		require.Equal(t, int64(1), res.Total, "search %q", term)
		assert.Equal(t, "Yield up 50% with_sensors", res.Items[0].Title)
	}

	res, err := svc.List(context.Background(), nil, &ProjectListRequest{Search: "a_p"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestProjectUpdate_EmptyAcademicYearRestoresDefault(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newProjectService(t, db, nil)
	owner := seedUser(t, db, models.RoleStudent, "owner@ucu.ac.ug")
	p := seedProject(t, db, owner, models.StatusPending, func(p *models.Project) { p.AcademicYear = "2021/2022" })

	blank := "  "
	updated, err := svc.Update(context.Background(), identityOf(owner), p.ID, &UpdateProjectRequest{AcademicYear: &blank})
	require.NoError(t, err)
	assert.Equal(t, models.AcademicYear(p.CreatedAt), updated.AcademicYear)

	var stored models.Project
	require.NoError(t, db.First(&stored, "id = ?", p.ID).Error)
	assert.NotEmpty(t, stored.AcademicYear)
}
