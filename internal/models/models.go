package models

import (
	"fmt"
	"slices"
	"time"
)

// Roles
const (
	RoleStudent    = "student"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// Project review statuses
const (
	StatusPending     = "pending"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
	StatusUnderReview = "under_review"
)

var (
	Roles      = []string{RoleStudent, RoleSupervisor, RoleAdmin}
	Statuses   = []string{StatusPending, StatusApproved, StatusRejected, StatusUnderReview}
	Categories = []string{"Web Development", "Mobile App", "AI/ML", "IoT", "Data Science", "Cybersecurity", "Blockchain", "Other"}
	Faculties  = []string{"Engineering", "Business", "Humanities", "Sciences", "Law", "Theology"}
)

func IsValidRole(role string) bool         { return slices.Contains(Roles, role) }
func IsValidStatus(status string) bool     { return slices.Contains(Statuses, status) }
func IsValidCategory(category string) bool { return slices.Contains(Categories, category) }
func IsValidFaculty(faculty string) bool   { return slices.Contains(Faculties, faculty) }

// AcademicYear returns the "YYYY/YYYY+1" submission cycle containing t.
func AcademicYear(t time.Time) string {
	return fmt.Sprintf("%d/%d", t.Year(), t.Year()+1)
}

// TableName overrides
func (User) TableName() string      { return "users" }
func (Project) TableName() string   { return "projects" }
func (Comment) TableName() string   { return "comments" }
func (SystemLog) TableName() string { return "system_logs" }
