package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ucu-innovators/hub/backend/internal/config"
	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

// AuditEntry is one recorded write operation.
type AuditEntry struct {
	Level     string
	Module    string
	Action    string
	Message   string
	UserID    string
	IP        string
	UserAgent string
	Extra     interface{}
}

// Record stores an entry. Failures are logged and never reach the caller's response.
func (s *SystemLogService) Record(ctx context.Context, e *AuditEntry) {
	var extra string
	if e.Extra != nil {
		if b, err := json.Marshal(e.Extra); err == nil {
			extra = string(b)
		}
	}

	level := e.Level
	if level == "" {
		level = LogLevelInfo
	}

	entry := &models.SystemLog{
		Level:     level,
		Module:    e.Module,
		Action:    e.Action,
		Message:   e.Message,
		IP:        e.IP,
		UserAgent: e.UserAgent,
		Extra:     extra,
		CreatedAt: time.Now(),
	}
	if e.UserID != "" {
		uid := e.UserID
		entry.UserID = &uid
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Warn().Err(err).Str("module", e.Module).Msg("failed to write system log")
	}
}

type SystemLogListRequest struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	Level     string `form:"level"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Search    string `form:"search"`
}

type SystemLogListResponse struct {
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Items []models.SystemLog `json:"items"`
}

func (s *SystemLogService) List(ctx context.Context, req *SystemLogListRequest) (*SystemLogListResponse, error) {
	page, limit, offset := pageBounds(req.Page, req.Limit, DefaultUserPageSize)

	query := s.db.WithContext(ctx).Model(&models.SystemLog{})

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?"+likeEscape, containsPattern(req.Action))
	}
	if start, err := time.Parse("2006-01-02", req.StartDate); err == nil {
		query = query.Where("created_at >= ?", start)
	}
	if end, err := time.Parse("2006-01-02", req.EndDate); err == nil {
		query = query.Where("created_at < ?", end.AddDate(0, 0, 1))
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		query = query.Where("message LIKE ?"+likeEscape, containsPattern(search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	logs := make([]models.SystemLog, 0)
	if err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}

	return &SystemLogListResponse{Total: total, Page: page, Limit: limit, Items: logs}, nil
}

func (s *SystemLogService) GetModules(ctx context.Context) ([]string, error) {
	modules := make([]string, 0)
	if err := s.db.WithContext(ctx).Model(&models.SystemLog{}).Distinct("module").Order("module").Pluck("module", &modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// CleanupOldLogs deletes logs older than the specified number of days
// Returns the number of deleted records
func (s *SystemLogService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// LogCleanupScheduler runs CleanupOldLogs on the configured cron schedule.
type LogCleanupScheduler struct {
	service *SystemLogService
	config  *config.AuditConfig
	cron    *cron.Cron
}

func NewLogCleanupScheduler(service *SystemLogService, cfg *config.AuditConfig) *LogCleanupScheduler {
	return &LogCleanupScheduler{service: service, config: cfg}
}

func (s *LogCleanupScheduler) Start() error {
	if s.config.RetentionDays <= 0 {
		logger.Infof("[SystemLog] Log cleanup disabled (retention_days <= 0)")
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.config.CleanupCron, s.runCleanup); err != nil {
		return fmt.Errorf("invalid audit cleanup schedule %q: %w", s.config.CleanupCron, err)
	}
	s.cron.Start()

	logger.Infof("[SystemLog] Cleanup scheduled (cron: %s, retention: %d days)", s.config.CleanupCron, s.config.RetentionDays)
	return nil
}

func (s *LogCleanupScheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *LogCleanupScheduler) runCleanup() {
	deleted, err := s.service.CleanupOldLogs(context.Background(), s.config.RetentionDays)
	if err != nil {
		logger.Errorf("[SystemLog] Failed to cleanup old logs: %v", err)
		return
	}
	if deleted > 0 {
		logger.Infof("[SystemLog] Cleaned up %d logs older than %d days", deleted, s.config.RetentionDays)
	}
}
