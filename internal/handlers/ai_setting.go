package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lumosoft/agencyhub/internal/services"
	"github.com/lumosoft/agencyhub/pkg/response"
	"gorm.io/gorm"
)

// AISettingHandler manages provider credentials (admin only). Keys are
// masked on every read path.
type AISettingHandler struct {
	settingService *services.AISettingService
}

func NewAISettingHandler(db *gorm.DB) *AISettingHandler {
	return &AISettingHandler{
		settingService: services.NewAISettingService(db),
	}
}

func (h *AISettingHandler) List(c *gin.Context) {
	settings, err := h.settingService.List()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, settings)
}

func (h *AISettingHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid setting id")
		return
	}

	setting, err := h.settingService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "setting not found")
		return
	}

	response.Success(c, setting)
}

func (h *AISettingHandler) Create(c *gin.Context) {
	var req services.CreateAISettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	setting, err := h.settingService.Create(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, setting)
}

func (h *AISettingHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid setting id")
		return
	}

	var req services.UpdateAISettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	setting, err := h.settingService.Update(uint(id), &req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, setting)
}

// Activate makes the setting the active one; every other setting is
// deactivated in the same call.
func (h *AISettingHandler) Activate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid setting id")
		return
	}

	setting, err := h.settingService.Activate(uint(id))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, setting)
}

func (h *AISettingHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid setting id")
		return
	}

	if err := h.settingService.Delete(uint(id)); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "setting deleted successfully"})
}
