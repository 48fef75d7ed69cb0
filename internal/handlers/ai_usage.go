package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lumosoft/agencyhub/internal/services"
	"github.com/lumosoft/agencyhub/pkg/response"
	"gorm.io/gorm"
)

// AIUsageHandler provides endpoints for AI usage statistics (admin only).
type AIUsageHandler struct {
	usageService *services.AIUsageService
}

func NewAIUsageHandler(db *gorm.DB) *AIUsageHandler {
	return &AIUsageHandler{
		usageService: services.NewAIUsageService(db),
	}
}

// GetStats returns aggregated AI usage statistics.
func (h *AIUsageHandler) GetStats(c *gin.Context) {
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	var userID *uint
	if uidStr := c.Query("user_id"); uidStr != "" {
		if uid, err := strconv.ParseUint(uidStr, 10, 32); err == nil {
			u := uint(uid)
			userID = &u
		}
	}

	stats, err := h.usageService.GetStats(startDate, endDate, userID)
	if err != nil {
		response.ServerError(c, "failed to get AI usage stats: "+err.Error())
		return
	}

	response.Success(c, stats)
}

// GetUserBreakdown returns AI usage grouped by user.
func (h *AIUsageHandler) GetUserBreakdown(c *gin.Context) {
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	users, err := h.usageService.GetUserBreakdown(startDate, endDate)
	if err != nil {
		response.ServerError(c, "failed to get user breakdown: "+err.Error())
		return
	}

	response.Success(c, users)
}

// GetProviderBreakdown returns AI usage grouped by provider/model.
func (h *AIUsageHandler) GetProviderBreakdown(c *gin.Context) {
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	providers, err := h.usageService.GetProviderBreakdown(startDate, endDate)
	if err != nil {
		response.ServerError(c, "failed to get provider breakdown: "+err.Error())
		return
	}

	response.Success(c, providers)
}
