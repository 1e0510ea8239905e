package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ucu-innovators/hub/backend/internal/services"
	"github.com/ucu-innovators/hub/backend/pkg/response"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetAnalytics returns the dashboard aggregates, computed per request
// GET /api/analytics
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	result, err := h.analyticsService.GetAnalytics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
