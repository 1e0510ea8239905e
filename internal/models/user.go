package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a student, supervisor or admin account.
type User struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Email      string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password   string     `gorm:"size:255;not null" json:"-"` // bcrypt hash, never serialized
	FirstName  string     `gorm:"size:100;not null" json:"firstName"`
	LastName   string     `gorm:"size:100;not null" json:"lastName"`
	Role       string     `gorm:"size:20;default:student;index" json:"role"`
	Faculty    string     `gorm:"size:50" json:"faculty,omitempty"`
	Department string     `gorm:"size:200" json:"department,omitempty"`
	StudentID  *string    `gorm:"uniqueIndex;size:50" json:"studentId,omitempty"`
	Avatar     string     `gorm:"size:500" json:"avatar,omitempty"`
	IsActive   bool       `gorm:"default:true" json:"isActive"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// FullName is "First Last".
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserSummary is the public projection of a User embedded in projects and comments.
type UserSummary struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Faculty   string `json:"faculty,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

func (UserSummary) TableName() string { return "users" }
