package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a remark on a project, optionally replying to another comment.
type Comment struct {
	ID              string       `gorm:"primaryKey;size:36" json:"id"`
	ProjectID       string       `gorm:"size:36;not null;index:idx_comments_project_created,priority:1" json:"projectId"`
	Project         *Project     `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	UserID          string       `gorm:"size:36;not null;index" json:"userId"`
	User            *UserSummary `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Content         string       `gorm:"size:1000;not null" json:"content"`
	ParentCommentID *string      `gorm:"size:36;index" json:"parentCommentId,omitempty"`
	ParentComment   *Comment     `gorm:"foreignKey:ParentCommentID;constraint:OnDelete:SET NULL" json:"parentComment,omitempty"`
	CreatedAt       time.Time    `gorm:"index:idx_comments_project_created,priority:2" json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsAuthoredBy reports whether userID wrote the comment.
func (c *Comment) IsAuthoredBy(userID string) bool {
	return c.UserID == userID
}
