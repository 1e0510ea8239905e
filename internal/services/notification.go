package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/ucu-innovators/hub/backend/internal/metrics"
	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService turns review tasks into emails to the submitter.
type NotificationService struct {
	db     *gorm.DB
	mailer Mailer
}

func NewNotificationService(db *gorm.DB, mailer Mailer) *NotificationService {
	return &NotificationService{db: db, mailer: mailer}
}

// ProcessReviewNotification is the TaskProcessor for TaskTypeProjectReviewed.
func (s *NotificationService) ProcessReviewNotification(ctx context.Context, task *ReviewNotificationTask) error {
	var project models.Project
	err := s.db.WithContext(ctx).
		Preload("SubmittedBy").
		Preload("Supervisor").
		Where("id = ?", task.ProjectID).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// project deleted after the review
			metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
			logger.Warnf("[Notification] project %s no longer exists", task.ProjectID)
			return nil
		}
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return err
	}

	if project.SubmittedBy == nil || project.SubmittedBy.Email == "" {
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	subject := fmt.Sprintf("[Innovators Hub] Your project %q is %s", project.Title, statusLabel(task.Status))
	if err := s.mailer.Send([]string{project.SubmittedBy.Email}, subject, reviewEmailBody(&project, task.Status)); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return err
	}

	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	return nil
}

func statusLabel(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

func reviewEmailBody(p *models.Project, status string) string {
	var sb strings.Builder

	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	fmt.Fprintf(&sb, "<p>Hello %s,</p>", html.EscapeString(p.SubmittedBy.FirstName))
	fmt.Fprintf(&sb, "<p>Your project <strong>%s</strong> has been marked <strong>%s</strong>.</p>",
		html.EscapeString(p.Title), html.EscapeString(statusLabel(status)))

	if p.Supervisor != nil {
		fmt.Fprintf(&sb, "<p>Reviewed by %s %s.</p>",
			html.EscapeString(p.Supervisor.FirstName), html.EscapeString(p.Supervisor.LastName))
	}
	if p.ReviewComment != "" {
		sb.WriteString("<h3>Review comment</h3>")
		fmt.Fprintf(&sb, "<div style=\"background: #f9f9f9; padding: 16px; border-radius: 4px; white-space: pre-wrap;\">%s</div>",
			html.EscapeString(p.ReviewComment))
	}

	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">UCU Innovators Hub</p>")
	sb.WriteString("</body></html>")
	return sb.String()
}
