package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/pkg/response"
	"gorm.io/gorm"
)

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

type CreateCommentRequest struct {
	Content       string `json:"content"`
	ParentComment string `json:"parentComment"`
}

func (s *CommentService) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "first_name", "last_name", "avatar")
		}).
		Preload("ParentComment")
}

// ListForProject returns a project's comments newest first.
func (s *CommentService) ListForProject(ctx context.Context, projectID string) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	err := s.withRelations(s.db.WithContext(ctx)).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Create adds a comment by caller. A parent comment must exist but may belong
// to any project.
func (s *CommentService) Create(ctx context.Context, caller *Identity, projectID string, req *CreateCommentRequest) (*models.Comment, error) {
	content := strings.TrimSpace(req.Content)

	var errs fieldErrors
	if content == "" {
		errs.add("content", "Comment content is required")
	} else if utf8.RuneCountInString(content) > MaxCommentLength {
		errs.add("content", "Comment cannot exceed %d characters", MaxCommentLength)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrProjectNotFound
	}

	comment := models.Comment{
		ProjectID: projectID,
		UserID:    caller.UserID,
		Content:   content,
	}

	if parentID := strings.TrimSpace(req.ParentComment); parentID != "" {
		if err := db.Model(&models.Comment{}).Where("id = ?", parentID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, response.NewValidation(response.FieldError{Field: "parentComment", Message: "Parent comment not found"})
		}
		comment.ParentCommentID = &parentID
	}

	if err := db.Create(&comment).Error; err != nil {
		return nil, err
	}

	return s.load(ctx, comment.ID)
}

// Delete removes a comment written by caller, or any comment when caller is an admin.
func (s *CommentService) Delete(ctx context.Context, caller *Identity, id string) error {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	if !caller.CanModify(comment.UserID) {
		return ErrNotCommentOwner
	}

	return s.db.WithContext(ctx).Delete(&comment).Error
}

func (s *CommentService) load(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := s.withRelations(s.db.WithContext(ctx)).Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}
