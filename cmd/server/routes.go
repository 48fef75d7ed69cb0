package main

import (
	"github.com/gin-gonic/gin"
	"github.com/lumosoft/agencyhub/internal/handlers"
	"github.com/lumosoft/agencyhub/internal/middleware"
	"github.com/lumosoft/agencyhub/internal/models"
	"github.com/lumosoft/agencyhub/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Transport-level limiters, distinct from the per-user quota gate
	authLimiter := middleware.NewRateLimiter(5, 10)
	aiLimiter := middleware.NewRateLimiter(2, 5)

	// Health check
	healthHandler := handlers.NewHealthHandler(models.GetDB())
	r.GET("/health", healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/register", svc.authHandler.Register)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// AI generation (quota gated inside the handler)
			protected.POST("/ai/generate", aiLimiter.Middleware(), svc.generateHandler.Generate)
			protected.GET("/ai/generate", svc.generateHandler.UsageStatus)

			// Projects and tasks (clients see their own, admins see all)
			projectHandler := handlers.NewProjectHandler(models.GetDB())
			protected.GET("/projects", projectHandler.List)
			protected.GET("/projects/:id", projectHandler.GetByID)
			protected.POST("/projects", projectHandler.Create)
			protected.PUT("/projects/:id", projectHandler.Update)
			protected.DELETE("/projects/:id", projectHandler.Delete)
			protected.GET("/projects/:id/tasks", projectHandler.ListTasks)
			protected.POST("/projects/:id/tasks", projectHandler.CreateTask)
			protected.PUT("/projects/:id/tasks/:taskId", projectHandler.UpdateTask)
			protected.DELETE("/projects/:id/tasks/:taskId", projectHandler.DeleteTask)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			// Users
			userHandler := handlers.NewUserHandler(models.GetDB())
			admin.GET("/users", userHandler.List)
			admin.PUT("/users/:id", userHandler.Update)
			admin.DELETE("/users/:id", userHandler.Delete)

			// AI provider settings
			settingHandler := handlers.NewAISettingHandler(models.GetDB())
			admin.GET("/ai-settings", settingHandler.List)
			admin.GET("/ai-settings/:id", settingHandler.GetByID)
			admin.POST("/ai-settings", settingHandler.Create)
			admin.PUT("/ai-settings/:id", settingHandler.Update)
			admin.POST("/ai-settings/:id/activate", settingHandler.Activate)
			admin.DELETE("/ai-settings/:id", settingHandler.Delete)

			// AI usage statistics
			usageHandler := handlers.NewAIUsageHandler(models.GetDB())
			admin.GET("/ai-usage/stats", usageHandler.GetStats)
			admin.GET("/ai-usage/users", usageHandler.GetUserBreakdown)
			admin.GET("/ai-usage/providers", usageHandler.GetProviderBreakdown)

			// System Config
			systemConfigHandler := handlers.NewSystemConfigHandler(models.GetDB())
			admin.GET("/system-config/:group", systemConfigHandler.GetByGroup)
			admin.PUT("/system-config", systemConfigHandler.Update)
		}
	}
}
