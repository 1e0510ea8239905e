package services

import "github.com/ucu-innovators/hub/backend/internal/models"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Role   string
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}

// IsReviewer reports whether the caller may see and review projects of any status.
func (i *Identity) IsReviewer() bool {
	return i != nil && (i.Role == models.RoleSupervisor || i.Role == models.RoleAdmin)
}

// CanModify reports whether the caller owns the resource or is an admin.
func (i *Identity) CanModify(ownerID string) bool {
	return i != nil && (i.UserID == ownerID || i.IsAdmin())
}
