package services

import "github.com/ucu-innovators/hub/backend/pkg/response"

// Sentinel errors shared by the services. Handlers pass them to response.Error.
var (
	ErrUserExists         = response.NewBadRequest("User already exists with this email")
	ErrStudentIDTaken     = response.NewBadRequest("Student ID is already registered")
	ErrInvalidCredentials = response.NewUnauthorized("Invalid credentials")
	ErrAccountDisabled    = response.NewForbidden("Account is deactivated")
	ErrUnauthenticated    = response.NewUnauthorized("Not authorized to access this route")
	ErrSessionExpired     = response.NewUnauthorized("Token expired, please log in again")
	ErrForbiddenRole      = response.NewForbidden("User role is not authorized to access this route")
	ErrIncorrectPassword  = response.NewBadRequest("Current password is incorrect")

	ErrUserNotFound    = response.NewNotFound("User not found")
	ErrProjectNotFound = response.NewNotFound("Project not found")
	ErrCommentNotFound = response.NewNotFound("Comment not found")

	ErrNotProjectOwner = response.NewForbidden("Not authorized to modify this project")
	ErrNotCommentOwner = response.NewForbidden("Not authorized to delete this comment")
	ErrSelfDelete      = response.NewBadRequest("Cannot delete your own account")
)
