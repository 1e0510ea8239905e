package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/ucu-innovators/hub/backend/internal/config"
	"github.com/ucu-innovators/hub/backend/internal/metrics"
	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/internal/storage"
	"github.com/ucu-innovators/hub/backend/pkg/logger"
	"github.com/ucu-innovators/hub/backend/pkg/response"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectService struct {
	db        *gorm.DB
	queue     TaskQueue
	storage   storage.Storage
	uploadCfg *config.UploadConfig
}

// NewProjectService wires the project store. queue and store may be nil in
// which case notifications and document handling are skipped.
func NewProjectService(db *gorm.DB, queue TaskQueue, store storage.Storage, uploadCfg *config.UploadConfig) *ProjectService {
	return &ProjectService{
		db:        db,
		queue:     queue,
		storage:   store,
		uploadCfg: uploadCfg,
	}
}

type ProjectListRequest struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Status   string `form:"status"`
	Faculty  string `form:"faculty"`
	Category string `form:"category"`
	Search   string `form:"search"`
	Year     string `form:"year"`
}

type ProjectListResponse struct {
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Items []models.Project `json:"items"`
}

type CreateProjectRequest struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Category     string              `json:"category"`
	Faculty      string              `json:"faculty"`
	Department   string              `json:"department"`
	Technologies []string            `json:"technologies"`
	GithubLink   string              `json:"githubLink"`
	LiveDemoLink string              `json:"liveDemoLink"`
	ThumbnailURL string              `json:"thumbnailUrl"`
	TeamMembers  []models.TeamMember `json:"teamMembers"`
	AcademicYear string              `json:"academicYear"`
}

// UpdateProjectRequest is a partial edit; nil fields are left unchanged.
type UpdateProjectRequest struct {
	Title        *string              `json:"title"`
	Description  *string              `json:"description"`
	Category     *string              `json:"category"`
	Faculty      *string              `json:"faculty"`
	Department   *string              `json:"department"`
	Technologies *[]string            `json:"technologies"`
	GithubLink   *string              `json:"githubLink"`
	LiveDemoLink *string              `json:"liveDemoLink"`
	ThumbnailURL *string              `json:"thumbnailUrl"`
	TeamMembers  *[]models.TeamMember `json:"teamMembers"`
	AcademicYear *string              `json:"academicYear"`
}

type UpdateStatusRequest struct {
	Status        string `json:"status" binding:"required"`
	ReviewComment string `json:"reviewComment"`
}

func (s *ProjectService) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("SubmittedBy").Preload("Supervisor")
}

// List returns a page of projects. Anonymous callers and students only ever
// see approved projects whatever status they ask for.
func (s *ProjectService) List(ctx context.Context, caller *Identity, req *ProjectListRequest) (*ProjectListResponse, error) {
	page, limit, offset := pageBounds(req.Page, req.Limit, DefaultProjectPageSize)

	query := s.db.WithContext(ctx).Model(&models.Project{})

	if !caller.IsReviewer() {
		query = query.Where("status = ?", models.StatusApproved)
	} else if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Faculty != "" {
		query = query.Where("faculty = ?", req.Faculty)
	}
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.Year != "" {
		query = query.Where("academic_year = ?", req.Year)
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		like := containsPattern(strings.ToLower(search))
		query = query.Where("(LOWER(title) LIKE ?"+likeEscape+" OR LOWER(description) LIKE ?"+likeEscape+")", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var projects []models.Project
	if err := s.withRelations(query).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{Total: total, Page: page, Limit: limit, Items: projects}, nil
}

// GetByID returns a project and counts the read as a view.
func (s *ProjectService) GetByID(ctx context.Context, id string) (*models.Project, error) {
	db := s.db.WithContext(ctx)

	result := db.Model(&models.Project{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrProjectNotFound
	}

	return s.load(ctx, id)
}

// ListMine returns every project submitted by the caller, newest first.
func (s *ProjectService) ListMine(ctx context.Context, caller *Identity) ([]models.Project, error) {
	projects := make([]models.Project, 0)
	err := s.db.WithContext(ctx).
		Preload("Supervisor").
		Where("submitted_by_id = ?", caller.UserID).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Create validates and stores a project submitted by caller. A document, when
// given, is checked before anything is written and removed again if the
// insert fails.
func (s *ProjectService) Create(ctx context.Context, caller *Identity, req *CreateProjectRequest, document *multipart.FileHeader) (*models.Project, error) {
	project := models.Project{
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		Category:      req.Category,
		Faculty:       req.Faculty,
		Department:    strings.TrimSpace(req.Department),
		Technologies:  datatypes.JSONSlice[string](cleanTechnologies(req.Technologies)),
		GithubLink:    strings.TrimSpace(req.GithubLink),
		LiveDemoLink:  strings.TrimSpace(req.LiveDemoLink),
		ThumbnailURL:  strings.TrimSpace(req.ThumbnailURL),
		TeamMembers:   datatypes.JSONSlice[models.TeamMember](req.TeamMembers),
		AcademicYear:  strings.TrimSpace(req.AcademicYear),
		SubmittedByID: caller.UserID,
		Status:        models.StatusPending,
	}

	if document != nil {
		if err := s.checkDocument(document); err != nil {
			return nil, err
		}
	}
	if err := validateProject(&project); err != nil {
		return nil, err
	}

	if document != nil {
		url, err := storage.SaveUpload(ctx, s.storage, document, s.uploadCfg)
		if err != nil {
			return nil, err
		}
		project.DocumentURL = url
	}

	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		s.removeDocument(project.DocumentURL)
		return nil, err
	}

	metrics.ProjectsSubmittedTotal.WithLabelValues(project.Faculty).Inc()
	logger.Info().Str("project_id", project.ID).Str("user_id", caller.UserID).Msg("project submitted")

	return s.load(ctx, project.ID)
}

// Update applies a partial edit by the owner or an admin. Review fields,
// ownership and counters are not editable here.
func (s *ProjectService) Update(ctx context.Context, caller *Identity, id string, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanModify(project.SubmittedByID) {
		return nil, ErrNotProjectOwner
	}

	updates := make(map[string]interface{})
	setString := func(column string, dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
			updates[column] = *dst
		}
	}
	setString("title", &project.Title, req.Title)
	setString("description", &project.Description, req.Description)
	setString("category", &project.Category, req.Category)
	setString("faculty", &project.Faculty, req.Faculty)
	setString("department", &project.Department, req.Department)
	setString("github_link", &project.GithubLink, req.GithubLink)
	setString("live_demo_link", &project.LiveDemoLink, req.LiveDemoLink)
	setString("thumbnail_url", &project.ThumbnailURL, req.ThumbnailURL)
	setString("academic_year", &project.AcademicYear, req.AcademicYear)
	if project.AcademicYear == "" {
		project.AcademicYear = models.AcademicYear(project.CreatedAt)
		updates["academic_year"] = project.AcademicYear
	}
	if req.Technologies != nil {
		project.Technologies = cleanTechnologies(*req.Technologies)
		updates["technologies"] = project.Technologies
	}
	if req.TeamMembers != nil {
		project.TeamMembers = datatypes.JSONSlice[models.TeamMember](*req.TeamMembers)
		if project.TeamMembers == nil {
			project.TeamMembers = datatypes.JSONSlice[models.TeamMember]{}
		}
		updates["team_members"] = project.TeamMembers
	}

	if err := validateProject(project); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return s.load(ctx, id)
}

// Delete removes a project, its comments and its stored document.
func (s *ProjectService) Delete(ctx context.Context, caller *Identity, id string) error {
	project, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanModify(project.SubmittedByID) {
		return ErrNotProjectOwner
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
	if err != nil {
		return err
	}

	s.removeDocument(project.DocumentURL)
	logger.Info().Str("project_id", project.ID).Str("user_id", caller.UserID).Msg("project deleted")
	return nil
}

// UpdateStatus records a review decision. The caller becomes the project's
// supervisor, replacing any earlier reviewer.
func (s *ProjectService) UpdateStatus(ctx context.Context, caller *Identity, id string, req *UpdateStatusRequest) (*models.Project, error) {
	if !models.IsValidStatus(req.Status) {
		return nil, response.NewValidation(response.FieldError{
			Field:   "status",
			Message: "Status must be one of " + strings.Join(models.Statuses, ", "),
		})
	}

	project, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(project).Updates(map[string]interface{}{
		"status":         req.Status,
		"review_comment": strings.TrimSpace(req.ReviewComment),
		"reviewed_at":    now,
		"supervisor_id":  caller.UserID,
	}).Error; err != nil {
		return nil, err
	}

	metrics.StatusTransitionsTotal.WithLabelValues(req.Status).Inc()
	logger.Info().
		Str("project_id", project.ID).
		Str("from", project.Status).
		Str("to", req.Status).
		Str("reviewer_id", caller.UserID).
		Msg("project reviewed")

	if s.queue != nil {
		task := &ReviewNotificationTask{ProjectID: project.ID, Status: req.Status, ReviewerID: caller.UserID}
		if err := s.queue.Enqueue(ctx, task); err != nil {
			logger.Error().Err(err).Str("project_id", project.ID).Msg("failed to enqueue review notification")
		}
	}

	return s.load(ctx, id)
}

func (s *ProjectService) checkDocument(document *multipart.FileHeader) error {
	if s.storage == nil || s.uploadCfg == nil {
		return response.NewBadRequest("File uploads are not enabled")
	}
	return storage.ValidateUpload(document, s.uploadCfg)
}

func (s *ProjectService) removeDocument(url string) {
	if url == "" || s.storage == nil {
		return
	}
	// the request may already be cancelled, cleanup still has to run
	if err := s.storage.Delete(context.Background(), url); err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("failed to remove project document")
	}
}

func (s *ProjectService) find(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) load(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := s.withRelations(s.db.WithContext(ctx)).Where("id = ?", id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// cleanTechnologies trims entries and drops blanks, keeping order.
func cleanTechnologies(in []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
