package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/pkg/response"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxCommentLength     = 1000
	MinPasswordLength    = 6
)

var (
	emailPattern  = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	githubPattern = regexp.MustCompile(`^https?://(www\.)?github\.com/`)
	yearPattern   = regexp.MustCompile(`^\d{4}/\d{4}$`)
)

// fieldErrors collects validation failures in input order.
type fieldErrors []response.FieldError

func (f *fieldErrors) add(field, format string, args ...interface{}) {
	*f = append(*f, response.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return response.NewValidation(f...)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validateUserProfile applies the role-conditioned rules: faculty is required for
// students and, when given, must be one of the known faculties.
func validateUserProfile(errs *fieldErrors, u *models.User) {
	if strings.TrimSpace(u.FirstName) == "" {
		errs.add("firstName", "First name is required")
	}
	if strings.TrimSpace(u.LastName) == "" {
		errs.add("lastName", "Last name is required")
	}
	if !models.IsValidRole(u.Role) {
		errs.add("role", "Role must be one of %s", strings.Join(models.Roles, ", "))
	}
	if u.Role == models.RoleStudent && u.Faculty == "" {
		errs.add("faculty", "Faculty is required for students")
	}
	if u.Faculty != "" && !models.IsValidFaculty(u.Faculty) {
		errs.add("faculty", "Faculty must be one of %s", strings.Join(models.Faculties, ", "))
	}
}

func validateProject(p *models.Project) error {
	var errs fieldErrors

	if strings.TrimSpace(p.Title) == "" {
		errs.add("title", "Project title is required")
	} else if utf8.RuneCountInString(p.Title) > MaxTitleLength {
		errs.add("title", "Title cannot exceed %d characters", MaxTitleLength)
	}
	if strings.TrimSpace(p.Description) == "" {
		errs.add("description", "Project description is required")
	} else if utf8.RuneCountInString(p.Description) > MaxDescriptionLength {
		errs.add("description", "Description cannot exceed %d characters", MaxDescriptionLength)
	}
	if !models.IsValidCategory(p.Category) {
		errs.add("category", "Category must be one of %s", strings.Join(models.Categories, ", "))
	}
	if !models.IsValidFaculty(p.Faculty) {
		errs.add("faculty", "Faculty must be one of %s", strings.Join(models.Faculties, ", "))
	}
	if strings.TrimSpace(p.Department) == "" {
		errs.add("department", "Department is required")
	}
	if p.GithubLink != "" && !githubPattern.MatchString(p.GithubLink) {
		errs.add("githubLink", "Please provide a valid GitHub URL")
	}
	if p.AcademicYear != "" && !yearPattern.MatchString(p.AcademicYear) {
		errs.add("academicYear", "Academic year must look like 2024/2025")
	}
	for i, m := range p.TeamMembers {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Role) == "" {
			errs.add(fmt.Sprintf("teamMembers[%d]", i), "Team member name and role are required")
		}
		if m.Email != "" && !isValidEmail(m.Email) {
			errs.add(fmt.Sprintf("teamMembers[%d].email", i), "Please provide a valid email")
		}
	}

	return errs.err()
}
