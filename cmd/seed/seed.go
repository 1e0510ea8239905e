package main

import (
	"context"
	"errors"

	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type demoUser struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	Role       string
	Faculty    string
	Department string
	StudentID  string
}

var demoUsers = []demoUser{
	{"Admin", "User", "admin@ucu.ac.ug", "admin123", models.RoleAdmin, "Engineering", "Computing & Technology", ""},
	{"Dr. John", "Doe", "supervisor@ucu.ac.ug", "supervisor123", models.RoleSupervisor, "Engineering", "Computing & Technology", ""},
	{"Alice", "Nakato", "alice@ucu.ac.ug", "student123", models.RoleStudent, "Engineering", "Computing & Technology", "UCU2021001"},
	{"Bob", "Okello", "bob@ucu.ac.ug", "student123", models.RoleStudent, "Business", "Business Administration", "UCU2021002"},
	{"Catherine", "Nambi", "catherine@ucu.ac.ug", "student123", models.RoleStudent, "Sciences", "Computer Science", "UCU2021003"},
}

type demoProject struct {
	Title        string
	Description  string
	Category     string
	Owner        string
	Reviewed     bool
	Status       string
	Technologies []string
	GithubLink   string
	LiveDemoLink string
	TeamMembers  []models.TeamMember
}

var demoProjects = []demoProject{
	{
		Title:        "Smart Agriculture Monitoring System",
		Description:  "IoT-based system for monitoring soil moisture, temperature, and crop health in real-time using sensors and mobile app.",
		Category:     "IoT",
		Owner:        "alice@ucu.ac.ug",
		Reviewed:     true,
		Status:       models.StatusApproved,
		Technologies: []string{"Arduino", "React Native", "Firebase", "Node.js"},
		GithubLink:   "https://github.com/example/smart-agri",
		LiveDemoLink: "https://smart-agri-demo.com",
		TeamMembers: []models.TeamMember{
			{Name: "Alice Nakato", Role: "Lead Developer", Email: "alice@ucu.ac.ug"},
			{Name: "Peter Musoke", Role: "Hardware Engineer", Email: "peter@ucu.ac.ug"},
		},
	},
	{
		Title:        "UCU Carpooling Platform",
		Description:  "Web and mobile platform connecting UCU students and staff for safe, affordable carpooling within Mukono and Kampala.",
		Category:     "Web Development",
		Owner:        "bob@ucu.ac.ug",
		Status:       models.StatusPending,
		Technologies: []string{"React", "Node.js", "MongoDB", "Google Maps API"},
		GithubLink:   "https://github.com/example/ucu-carpool",
		TeamMembers:  []models.TeamMember{{Name: "Bob Okello", Role: "Full Stack Developer", Email: "bob@ucu.ac.ug"}},
	},
	{
		Title:        "AI-Powered Student Performance Predictor",
		Description:  "Machine learning model that predicts student academic performance based on attendance, assignments, and engagement metrics.",
		Category:     "AI/ML",
		Owner:        "catherine@ucu.ac.ug",
		Reviewed:     true,
		Status:       models.StatusApproved,
		Technologies: []string{"Python", "TensorFlow", "Pandas", "Flask", "React"},
		GithubLink:   "https://github.com/example/performance-predictor",
		TeamMembers: []models.TeamMember{
			{Name: "Catherine Nambi", Role: "Data Scientist", Email: "catherine@ucu.ac.ug"},
			{Name: "David Ssemakula", Role: "Backend Developer", Email: "david@ucu.ac.ug"},
		},
	},
	{
		Title:        "Campus Lost and Found Tracker",
		Description:  "Mobile app where students report and claim lost items, with photo matching and pickup points at the library.",
		Category:     "Mobile App",
		Owner:        "alice@ucu.ac.ug",
		Reviewed:     true,
		Status:       models.StatusUnderReview,
		Technologies: []string{"Flutter", "Firebase"},
		TeamMembers:  []models.TeamMember{{Name: "Alice Nakato", Role: "Developer", Email: "alice@ucu.ac.ug"}},
	},
}

type demoComment struct {
	Project string
	Author  string
	Content string
}

var demoComments = []demoComment{
	{"Smart Agriculture Monitoring System", "supervisor@ucu.ac.ug", "Strong field results. Consider adding a cost breakdown per hectare."},
	{"Smart Agriculture Monitoring System", "bob@ucu.ac.ug", "Could this work with solar powered sensors?"},
	{"AI-Powered Student Performance Predictor", "alice@ucu.ac.ug", "How do you handle students with missing attendance data?"},
}

type seedSummary struct {
	Users    int
	Projects int
	Comments int
}

// seed inserts the demo data in one transaction. Users are matched by email
// and projects by title so running it twice does not duplicate rows.
func seed(ctx context.Context, db *gorm.DB, reset bool) (*seedSummary, error) {
	summary := &seedSummary{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if reset {
			for _, model := range []interface{}{&models.Comment{}, &models.Project{}, &models.User{}} {
				if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
					return err
				}
			}
		}

		users := make(map[string]*models.User, len(demoUsers))
		for _, du := range demoUsers {
			user, created, err := seedUser(tx, du)
			if err != nil {
				return err
			}
			users[du.Email] = user
			if created {
				summary.Users++
			}
		}

		projects := make(map[string]*models.Project, len(demoProjects))
		for _, dp := range demoProjects {
			project, created, err := seedProject(tx, dp, users)
			if err != nil {
				return err
			}
			projects[dp.Title] = project
			if created {
				summary.Projects++
			}
		}

		for _, dc := range demoComments {
			comment := models.Comment{
				ProjectID: projects[dc.Project].ID,
				UserID:    users[dc.Author].ID,
				Content:   dc.Content,
			}
			var count int64
			err := tx.Model(&models.Comment{}).
				Where("project_id = ? AND user_id = ? AND content = ?", comment.ProjectID, comment.UserID, comment.Content).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&comment).Error; err != nil {
				return err
			}
			summary.Comments++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func seedUser(tx *gorm.DB, du demoUser) (*models.User, bool, error) {
	var existing models.User
	err := tx.Where("email = ?", du.Email).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hash, err := utils.HashPassword(du.Password)
	if err != nil {
		return nil, false, err
	}
	user := &models.User{
		FirstName:  du.FirstName,
		LastName:   du.LastName,
		Email:      du.Email,
		Password:   hash,
		Role:       du.Role,
		Faculty:    du.Faculty,
		Department: du.Department,
		IsActive:   true,
	}
	if du.StudentID != "" {
		id := du.StudentID
		user.StudentID = &id
	}
	if err := tx.Create(user).Error; err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func seedProject(tx *gorm.DB, dp demoProject, users map[string]*models.User) (*models.Project, bool, error) {
	var existing models.Project
	err := tx.Where("title = ?", dp.Title).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	owner := users[dp.Owner]
	project := &models.Project{
		Title:         dp.Title,
		Description:   dp.Description,
		Category:      dp.Category,
		Faculty:       owner.Faculty,
		Department:    owner.Department,
		Technologies:  datatypes.JSONSlice[string](dp.Technologies),
		GithubLink:    dp.GithubLink,
		LiveDemoLink:  dp.LiveDemoLink,
		TeamMembers:   datatypes.JSONSlice[models.TeamMember](dp.TeamMembers),
		SubmittedByID: owner.ID,
		Status:        dp.Status,
		AcademicYear:  "2024/2025",
	}
	if dp.Reviewed {
		project.SupervisorID = &users["supervisor@ucu.ac.ug"].ID
	}
	if err := tx.Create(project).Error; err != nil {
		return nil, false, err
	}
	return project, true, nil
}
