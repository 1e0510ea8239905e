package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ucu-innovators/hub/backend/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports liveness and the state of the subsystems.
type HealthHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue) *HealthHandler {
	return &HealthHandler{db: db, queue: queue}
}

// CheckHealth
// GET /api/health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	status, code := "OK", http.StatusOK
	message := "UCU Innovators Hub API is running"

	dbStatus := "ok"
	if err := h.pingDB(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
		status, code = "DEGRADED", http.StatusServiceUnavailable
		message = "Database unavailable"
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	c.JSON(code, gin.H{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"components": gin.H{
			"database":   dbStatus,
			"queue_mode": queueMode,
		},
	})
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
