package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ucu-innovators/hub/backend/internal/metrics"
	"github.com/ucu-innovators/hub/backend/internal/middleware"
	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/internal/storage"
	"github.com/ucu-innovators/hub/backend/pkg/logger"
	"github.com/ucu-innovators/hub/backend/pkg/response"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	cfg := svc.cfg

	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(cfg.Server.ClientURL))
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware())
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	r.Use(middleware.RequestTimeout(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second))

	// Uploaded documents
	if local, ok := svc.store.(*storage.LocalStorage); ok {
		r.Static(local.PublicPath(), local.Dir())
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Route not found")
	})

	// Rate limiter for credential routes
	authLimiter := middleware.NewRateLimiter(cfg.Security.AuthRateLimitRPS, cfg.Security.AuthRateLimitBurst)
	svc.authLimiter = authLimiter

	authRequired := middleware.AuthRequired(svc.authService)

	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(svc.authService), middleware.AuditLog(svc.systemLogs))
	{
		api.GET("/health", svc.health.CheckHealth)

		// Auth
		auth := api.Group("/auth")
		{
			auth.POST("/register", authLimiter.Middleware(), svc.authHandler.Register)
			auth.POST("/login", authLimiter.Middleware(), svc.authHandler.Login)
			auth.GET("/me", authRequired, svc.authHandler.Me)
			auth.PUT("/me", authRequired, svc.authHandler.UpdateProfile)
			auth.POST("/change-password", authRequired, svc.authHandler.ChangePassword)
		}

		// Projects
		projects := api.Group("/projects")
		{
			projects.GET("", svc.projectHandler.List)
			projects.GET("/my-projects", authRequired, svc.projectHandler.ListMine)
			projects.GET("/:id", svc.projectHandler.Get)
			projects.POST("", authRequired, middleware.RequireRoles(models.RoleStudent), svc.projectHandler.Create)
			projects.PUT("/:id", authRequired, svc.projectHandler.Update)
			projects.DELETE("/:id", authRequired, svc.projectHandler.Delete)
			projects.PATCH("/:id/status", authRequired, middleware.RequireRoles(models.RoleSupervisor, models.RoleAdmin), svc.projectHandler.UpdateStatus)
		}

		// Comments
		comments := api.Group("/comments")
		{
			comments.GET("/project/:projectId", svc.commentHandler.ListForProject)
			comments.POST("/project/:projectId", authRequired, svc.commentHandler.Create)
			comments.DELETE("/:id", authRequired, svc.commentHandler.Delete)
		}

		// Analytics
		api.GET("/analytics", authRequired, middleware.RequireRoles(models.RoleSupervisor, models.RoleAdmin), svc.analytics.GetAnalytics)

		// Admin only
		admin := api.Group("", authRequired, middleware.AdminRequired())
		{
			admin.GET("/users", svc.userHandler.List)
			admin.GET("/users/:id", svc.userHandler.Get)
			admin.PUT("/users/:id", svc.userHandler.Update)
			admin.DELETE("/users/:id", svc.userHandler.Delete)

			admin.GET("/system-logs", svc.systemLogHandler.List)
			admin.GET("/system-logs/modules", svc.systemLogHandler.GetModules)
		}
	}
}
