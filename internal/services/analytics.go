package services

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/ucu-innovators/hub/backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	topTechnologiesLimit = 10
	topInnovatorsLimit   = 5
	trendMonths          = 6
)

// AnalyticsService computes the dashboard snapshot. Nothing is cached.
type AnalyticsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db, now: time.Now}
}

type Overview struct {
	TotalProjects    int64  `json:"totalProjects"`
	ApprovedProjects int64  `json:"approvedProjects"`
	PendingProjects  int64  `json:"pendingProjects"`
	TotalStudents    int64  `json:"totalStudents"`
	ApprovalRate     string `json:"approvalRate"`
}

// GroupCount is one bucket of a group-by summary.
type GroupCount struct {
	ID    string `json:"_id" gorm:"column:bucket"`
	Count int64  `json:"count" gorm:"column:total"`
}

type Innovator struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Faculty      string `json:"faculty"`
	ProjectCount int64  `json:"projectCount"`
}

type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type MonthlyCount struct {
	ID    YearMonth `json:"_id"`
	Count int64     `json:"count"`
}

type AnalyticsResponse struct {
	Overview           Overview       `json:"overview"`
	ProjectsByFaculty  []GroupCount   `json:"projectsByFaculty"`
	ProjectsByCategory []GroupCount   `json:"projectsByCategory"`
	ProjectsByStatus   []GroupCount   `json:"projectsByStatus"`
	ProjectsByYear     []GroupCount   `json:"projectsByYear"`
	TopTechnologies    []GroupCount   `json:"topTechnologies"`
	TopInnovators      []Innovator    `json:"topInnovators"`
	MonthlyTrend       []MonthlyCount `json:"monthlyTrend"`
}

func (s *AnalyticsService) GetAnalytics(ctx context.Context) (*AnalyticsResponse, error) {
	db := s.db.WithContext(ctx)
	var resp AnalyticsResponse
	var err error

	if resp.Overview, err = s.overview(db); err != nil {
		return nil, err
	}
	if resp.ProjectsByFaculty, err = s.groupBy(db, "faculty", "total DESC, bucket ASC"); err != nil {
		return nil, err
	}
	if resp.ProjectsByCategory, err = s.groupBy(db, "category", "total DESC, bucket ASC"); err != nil {
		return nil, err
	}
	if resp.ProjectsByStatus, err = s.groupBy(db, "status", "total DESC, bucket ASC"); err != nil {
		return nil, err
	}
	if resp.ProjectsByYear, err = s.groupBy(db, "academic_year", "bucket DESC"); err != nil {
		return nil, err
	}
	if resp.TopTechnologies, err = s.topTechnologies(db); err != nil {
		return nil, err
	}
	if resp.TopInnovators, err = s.topInnovators(db); err != nil {
		return nil, err
	}
	if resp.MonthlyTrend, err = s.monthlyTrend(db); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (s *AnalyticsService) overview(db *gorm.DB) (Overview, error) {
	var o Overview
	if err := db.Model(&models.Project{}).Count(&o.TotalProjects).Error; err != nil {
		return o, err
	}
	if err := db.Model(&models.Project{}).Where("status = ?", models.StatusApproved).Count(&o.ApprovedProjects).Error; err != nil {
		return o, err
	}
	if err := db.Model(&models.Project{}).Where("status = ?", models.StatusPending).Count(&o.PendingProjects).Error; err != nil {
		return o, err
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&o.TotalStudents).Error; err != nil {
		return o, err
	}
	o.ApprovalRate = ApprovalRate(o.ApprovedProjects, o.TotalProjects)
	return o, nil
}

// ApprovalRate formats approved/total as a percentage with one decimal, "0" for no projects.
func ApprovalRate(approved, total int64) string {
	if total == 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(approved)/float64(total)*100, 'f', 1, 64)
}

func (s *AnalyticsService) groupBy(db *gorm.DB, column, order string) ([]GroupCount, error) {
	rows := make([]GroupCount, 0)
	err := db.Model(&models.Project{}).
		Select(column + " AS bucket, COUNT(*) AS total").
		Group(column).
		Order(order).
		Scan(&rows).Error
	return rows, err
}

// topTechnologies flattens every project's technology list before counting.
func (s *AnalyticsService) topTechnologies(db *gorm.DB) ([]GroupCount, error) {
	var lists []datatypes.JSONSlice[string]
	if err := db.Model(&models.Project{}).Pluck("technologies", &lists).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, list := range lists {
		for _, tech := range list {
			counts[tech]++
		}
	}
	return topN(counts, topTechnologiesLimit), nil
}

func (s *AnalyticsService) topInnovators(db *gorm.DB) ([]Innovator, error) {
	var ranked []GroupCount
	err := db.Model(&models.Project{}).
		Select("projects.submitted_by_id AS bucket, COUNT(*) AS total").
		Joins("JOIN users ON users.id = projects.submitted_by_id").
		Where("projects.status = ? AND users.role = ?", models.StatusApproved, models.RoleStudent).
		Group("projects.submitted_by_id").
		Order("total DESC, bucket ASC").
		Limit(topInnovatorsLimit).
		Scan(&ranked).Error
	if err != nil {
		return nil, err
	}

	innovators := make([]Innovator, 0, len(ranked))
	if len(ranked) == 0 {
		return innovators, nil
	}

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	for _, r := range ranked {
		u, ok := byID[r.ID]
		if !ok {
			continue
		}
		innovators = append(innovators, Innovator{
			ID:           u.ID,
			Name:         u.FullName(),
			Email:        u.Email,
			Faculty:      u.Faculty,
			ProjectCount: r.Count,
		})
	}
	return innovators, nil
}

// monthlyTrend buckets submissions of the trailing six months by calendar month.
func (s *AnalyticsService) monthlyTrend(db *gorm.DB) ([]MonthlyCount, error) {
	since := s.now().AddDate(0, -trendMonths, 0)

	var created []time.Time
	if err := db.Model(&models.Project{}).Where("created_at >= ?", since).Pluck("created_at", &created).Error; err != nil {
		return nil, err
	}

	counts := make(map[YearMonth]int64)
	for _, t := range created {
		t = t.UTC()
		counts[YearMonth{Year: t.Year(), Month: int(t.Month())}]++
	}

	trend := make([]MonthlyCount, 0, len(counts))
	for ym, n := range counts {
		trend = append(trend, MonthlyCount{ID: ym, Count: n})
	}
	sort.Slice(trend, func(i, j int) bool {
		if trend[i].ID.Year != trend[j].ID.Year {
			return trend[i].ID.Year < trend[j].ID.Year
		}
		return trend[i].ID.Month < trend[j].ID.Month
	})
	return trend, nil
}

// topN sorts by count descending, then key ascending, and keeps n entries.
func topN(counts map[string]int64, n int) []GroupCount {
	out := make([]GroupCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, GroupCount{ID: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
