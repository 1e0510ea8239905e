package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/pkg/logger"
	"gorm.io/gorm"
)

// UserService backs the admin user management endpoints.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UserListRequest struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Role   string `form:"role"`
	Search string `form:"search"`
}

type UserListResponse struct {
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Items []models.User `json:"items"`
}

type UpdateUserRequest struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Role       *string `json:"role"`
	Faculty    *string `json:"faculty"`
	Department *string `json:"department"`
	StudentID  *string `json:"studentId"`
	IsActive   *bool   `json:"isActive"`
}

// List returns users newest first, optionally filtered by role and a name/email search.
func (s *UserService) List(ctx context.Context, req *UserListRequest) (*UserListResponse, error) {
	page, limit, offset := pageBounds(req.Page, req.Limit, DefaultUserPageSize)

	query := s.db.WithContext(ctx).Model(&models.User{})
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		like := containsPattern(strings.ToLower(search))
		query = query.Where("(LOWER(first_name) LIKE ?"+likeEscape+" OR LOWER(last_name) LIKE ?"+likeEscape+" OR LOWER(email) LIKE ?"+likeEscape+")", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}

	return &UserListResponse{Total: total, Page: page, Limit: limit, Items: users}, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Update applies an admin edit. The faculty rule is checked against the resulting role.
func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
		updates["first_name"] = user.FirstName
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
		updates["last_name"] = user.LastName
	}
	if req.Role != nil {
		user.Role = *req.Role
		updates["role"] = user.Role
	}
	if req.Faculty != nil {
		user.Faculty = *req.Faculty
		updates["faculty"] = user.Faculty
	}
	if req.Department != nil {
		user.Department = strings.TrimSpace(*req.Department)
		updates["department"] = user.Department
	}
	if req.StudentID != nil {
		if sid := strings.TrimSpace(*req.StudentID); sid != "" {
			user.StudentID = &sid
		} else {
			user.StudentID = nil
		}
		updates["student_id"] = user.StudentID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
		updates["is_active"] = user.IsActive
	}

	if len(updates) == 0 {
		return user, nil
	}

	var errs fieldErrors
	validateUserProfile(&errs, user)
	if err := errs.err(); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrStudentIDTaken
		}
		return nil, err
	}
	return user, nil
}

// Delete removes a user together with their projects and comments.
func (s *UserService) Delete(ctx context.Context, caller *Identity, id string) error {
	if caller != nil && caller.UserID == id {
		return ErrSelfDelete
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.Project{}).Select("id").Where("submitted_by_id = ?", user.ID)
		if err := tx.Where("project_id IN (?) OR user_id = ?", owned, user.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("submitted_by_id = ?", user.ID).Delete(&models.Project{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Project{}).Where("supervisor_id = ?", user.ID).Update("supervisor_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		return err
	}

	logger.Info().Str("user_id", user.ID).Msg("user deleted")
	return nil
}
