package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ucu-innovators/hub/backend/internal/config"
	"github.com/ucu-innovators/hub/backend/internal/metrics"
	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/internal/utils"
	"github.com/ucu-innovators/hub/backend/pkg/logger"
	"gorm.io/gorm"
)

type AuthService struct {
	db          *gorm.DB
	jwtConfig   *config.JWTConfig
	adminConfig *config.AdminConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, adminCfg *config.AdminConfig) *AuthService {
	return &AuthService{
		db:          db,
		jwtConfig:   jwtCfg,
		adminConfig: adminCfg,
	}
}

type RegisterRequest struct {
	Email      string `json:"email" form:"email" binding:"required"`
	Password   string `json:"password" form:"password" binding:"required"`
	FirstName  string `json:"firstName" form:"firstName" binding:"required"`
	LastName   string `json:"lastName" form:"lastName" binding:"required"`
	Role       string `json:"role" form:"role"`
	Faculty    string `json:"faculty" form:"faculty"`
	Department string `json:"department" form:"department"`
	StudentID  string `json:"studentId" form:"studentId"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is the public profile returned with a freshly issued token.
type AuthResult struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Role       string `json:"role"`
	Faculty    string `json:"faculty,omitempty"`
	Department string `json:"department,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Token      string `json:"token"`
}

type UpdateProfileRequest struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Faculty    *string `json:"faculty"`
	Department *string `json:"department"`
	Avatar     *string `json:"avatar"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// Register validates the request, creates a user and signs a token for it.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	user := models.User{
		Email:      normalizeEmail(req.Email),
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Role:       req.Role,
		Faculty:    req.Faculty,
		Department: strings.TrimSpace(req.Department),
		IsActive:   true,
	}
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	if id := strings.TrimSpace(req.StudentID); id != "" {
		user.StudentID = &id
	}

	var errs fieldErrors
	if !isValidEmail(user.Email) {
		errs.add("email", "Please provide a valid email")
	}
	if len(req.Password) < MinPasswordLength {
		errs.add("password", "Password must be at least %d characters", MinPasswordLength)
	}
	validateUserProfile(&errs, &user)
	if err := errs.err(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}
	if user.StudentID != nil {
		if err := db.Model(&models.User{}).Where("student_id = ?", *user.StudentID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrStudentIDTaken
		}
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hashed

	if err := db.Create(&user).Error; err != nil {
		// a concurrent registration can still win the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues(user.Role).Inc()
	logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user registered")

	return s.issue(&user)
}

// Login checks credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.LoginsTotal.WithLabelValues("invalid").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		metrics.LoginsTotal.WithLabelValues("disabled").Inc()
		return nil, ErrAccountDisabled
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}
	user.LastLogin = &now

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return s.issue(&user)
}

// Verify decodes a token issued by this service.
func (s *AuthService) Verify(token string) (*utils.Claims, error) {
	return utils.ParseToken(token)
}

// Authenticate resolves a bearer token to the identity of an active user.
// The role is read from the store so role changes apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := s.Verify(token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrUnauthenticated
	}

	var user models.User
	err = s.db.WithContext(ctx).Select("id", "role", "is_active").Where("id = ?", claims.UserID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthenticated
	}

	return &Identity{UserID: user.ID, Role: user.Role}, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile lets a user edit their own display fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Faculty != nil {
		user.Faculty = *req.Faculty
	}
	if req.Department != nil {
		user.Department = strings.TrimSpace(*req.Department)
	}
	if req.Avatar != nil {
		user.Avatar = strings.TrimSpace(*req.Avatar)
	}

	var errs fieldErrors
	validateUserProfile(&errs, user)
	if err := errs.err(); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"faculty":    user.Faculty,
		"department": user.Department,
		"avatar":     user.Avatar,
	}).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !utils.CheckPassword(req.CurrentPassword, user.Password) {
		return ErrIncorrectPassword
	}
	if len(req.NewPassword) < MinPasswordLength {
		var errs fieldErrors
		errs.add("newPassword", "Password must be at least %d characters", MinPasswordLength)
		return errs.err()
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Update("password", hashed).Error
}

// CreateAdminIfNotExists creates the configured admin account when no admin exists.
func (s *AuthService) CreateAdminIfNotExists(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := utils.HashPassword(s.adminConfig.Password)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:     normalizeEmail(s.adminConfig.Email),
		Password:  hashed,
		FirstName: "System",
		LastName:  "Administrator",
		Role:      models.RoleAdmin,
		IsActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return err
	}

	logger.Info().Str("email", admin.Email).Msg("default admin account created")
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	ttl := time.Duration(s.jwtConfig.ExpireHour) * time.Hour
	token, err := utils.GenerateToken(user.ID, ttl)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		ID:         user.ID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Role:       user.Role,
		Faculty:    user.Faculty,
		Department: user.Department,
		Avatar:     user.Avatar,
		Token:      token,
	}, nil
}
