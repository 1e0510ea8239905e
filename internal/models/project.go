package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TeamMember is an entry of a project's team roster.
type TeamMember struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

// Project is a submitted showcase entry.
type Project struct {
	ID            string                          `gorm:"primaryKey;size:36" json:"id"`
	Title         string                          `gorm:"size:200;not null" json:"title"`
	Description   string                          `gorm:"size:2000;not null" json:"description"`
	Category      string                          `gorm:"size:50;not null;index:idx_projects_faculty_category,priority:2" json:"category"`
	Faculty       string                          `gorm:"size:50;not null;index:idx_projects_faculty_category,priority:1" json:"faculty"`
	Department    string                          `gorm:"size:200;not null" json:"department"`
	Technologies  datatypes.JSONSlice[string]     `json:"technologies"`
	GithubLink    string                          `gorm:"size:500" json:"githubLink,omitempty"`
	LiveDemoLink  string                          `gorm:"size:500" json:"liveDemoLink,omitempty"`
	DocumentURL   string                          `gorm:"size:500" json:"documentUrl,omitempty"`
	ThumbnailURL  string                          `gorm:"size:500" json:"thumbnailUrl,omitempty"`
	TeamMembers   datatypes.JSONSlice[TeamMember] `json:"teamMembers"`
	SubmittedByID string                          `gorm:"size:36;not null;index" json:"submittedById"`
	SubmittedBy   *UserSummary                    `gorm:"foreignKey:SubmittedByID;constraint:OnDelete:CASCADE" json:"submittedBy,omitempty"`
	SupervisorID  *string                         `gorm:"size:36;index" json:"supervisorId,omitempty"`
	Supervisor    *UserSummary                    `gorm:"foreignKey:SupervisorID;constraint:OnDelete:SET NULL" json:"supervisor,omitempty"`
	Status        string                          `gorm:"size:20;default:pending;index:idx_projects_status_created,priority:1" json:"status"`
	ReviewComment string                          `gorm:"type:text" json:"reviewComment,omitempty"`
	ReviewedAt    *time.Time                      `json:"reviewedAt,omitempty"`
	AcademicYear  string                          `gorm:"size:9;index" json:"academicYear"`
	Views         int64                           `gorm:"default:0" json:"views"`
	Likes         int64                           `gorm:"default:0" json:"likes"`
	CreatedAt     time.Time                       `gorm:"index:idx_projects_status_created,priority:2" json:"createdAt"`
	UpdatedAt     time.Time                       `json:"updatedAt"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	if p.AcademicYear == "" {
		p.AcademicYear = AcademicYear(time.Now())
	}
	if p.Technologies == nil {
		p.Technologies = datatypes.JSONSlice[string]{}
	}
	if p.TeamMembers == nil {
		p.TeamMembers = datatypes.JSONSlice[TeamMember]{}
	}
	return nil
}

// IsOwnedBy reports whether userID submitted the project.
func (p *Project) IsOwnedBy(userID string) bool {
	return p.SubmittedByID == userID
}
