package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumosoft/agencyhub/internal/services"
	"gorm.io/gorm"
)

// SystemConfigHandler exposes runtime-tunable settings (admin only).
type SystemConfigHandler struct {
	configService *services.SystemConfigService
}

func NewSystemConfigHandler(db *gorm.DB) *SystemConfigHandler {
	return &SystemConfigHandler{
		configService: services.NewSystemConfigService(db),
	}
}

// GetByGroup returns all config entries in a group.
// GET /api/system/config/:group
func (h *SystemConfigHandler) GetByGroup(c *gin.Context) {
	configs, err := h.configService.GetByGroup(c.Param("group"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, configs)
}

type UpdateConfigRequest struct {
	Entries map[string]string `json:"entries" binding:"required"`
}

// Update sets one or more config values.
// PUT /api/system/config
func (h *SystemConfigHandler) Update(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for key, value := range req.Entries {
		if err := h.configService.Set(key, value); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "config updated"})
}
