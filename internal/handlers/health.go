package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lumosoft/agencyhub/internal/models"
	"github.com/lumosoft/agencyhub/internal/services"
	"gorm.io/gorm"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db             *gorm.DB
	settingService *services.AISettingService
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{
		db:             db,
		settingService: services.NewAISettingService(db),
	}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// AI configured is informational, not a health failure.
	aiConfigured := false
	aiProvider := ""
	if setting, err := h.settingService.GetActive(); err == nil && setting != nil {
		aiConfigured = true
		aiProvider = setting.Provider
	}

	var activeProjects int64
	h.db.Model(&models.Project{}).
		Where("status NOT IN ?", []string{models.ProjectStatusDone}).
		Count(&activeProjects)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "agencyhub",
		"components": gin.H{
			"database":        dbStatus,
			"ai_configured":   aiConfigured,
			"ai_provider":     aiProvider,
			"active_projects": activeProjects,
		},
	})
}
