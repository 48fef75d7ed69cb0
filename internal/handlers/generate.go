package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumosoft/agencyhub/internal/middleware"
	"github.com/lumosoft/agencyhub/internal/models"
	"github.com/lumosoft/agencyhub/internal/services"
	"github.com/lumosoft/agencyhub/pkg/logger"
	"gorm.io/gorm"
)

// Error codes of the generation endpoint wire contract.
const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInvalidType      = "INVALID_TYPE"
	CodeNotConfigured    = "NOT_CONFIGURED"
	CodeLimitReached     = "LIMIT_REACHED"
	CodeGenerationFailed = "GENERATION_FAILED"
)

// Generator is the slice of the AI service the endpoint needs; tests
// substitute a stub.
type Generator interface {
	GeneratePRD(ctx context.Context, setting *models.AISetting, in services.PRDInput) (*services.GenerationOutput, error)
	GenerateTasks(ctx context.Context, setting *models.AISetting, prd string) (*services.GenerationOutput, error)
	SuggestDescriptions(ctx context.Context, setting *models.AISetting, serviceName string) (*services.GenerationOutput, error)
	EnhanceDescription(ctx context.Context, setting *models.AISetting, description string) (*services.GenerationOutput, error)
}

// GenerateHandler serves the AI generation endpoint: usage gate in
// front, provider router behind, one audit row per attempt.
type GenerateHandler struct {
	generator      Generator
	usageService   *services.AIUsageService
	projectService *services.ProjectService
}

func NewGenerateHandler(db *gorm.DB) *GenerateHandler {
	return &GenerateHandler{
		generator:      services.NewAIService(db),
		usageService:   services.NewAIUsageService(db),
		projectService: services.NewProjectService(db),
	}
}

// NewGenerateHandlerWithGenerator wires a custom generator (tests).
func NewGenerateHandlerWithGenerator(db *gorm.DB, g Generator) *GenerateHandler {
	h := NewGenerateHandler(db)
	h.generator = g
	return h
}

type GenerateRequest struct {
	Type      string       `json:"type" binding:"required"`
	ProjectID *uint        `json:"project_id"`
	Data      GenerateData `json:"data"`
}

type GenerateData struct {
	ServiceName     string            `json:"service_name"`
	Description     string            `json:"description"`
	QuestionAnswers map[string]string `json:"question_answers"`
	PRD             string            `json:"prd"`
}

func validGenerationType(t string) bool {
	switch t {
	case models.GenerationTypePRD, models.GenerationTypeTasks,
		models.GenerationTypeSuggestion, models.GenerationTypeEnhancement:
		return true
	}
	return false
}

// Generate handles POST /api/ai/generate.
func (h *GenerateHandler) Generate(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeInvalidType})
		return
	}

	if !validGenerationType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown generation type: " + req.Type, "code": CodeInvalidType})
		return
	}

	// A named project must belong to the caller; checked before the
	// quota so a bad id never consumes a generation.
	if req.ProjectID != nil {
		if _, err := h.projectService.GetByID(*req.ProjectID, scopeClientID(c)); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
	}

	elig, err := h.usageService.CanUserGenerate(userID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "usage check failed: " + err.Error(), "code": CodeGenerationFailed})
		return
	}

	if elig.Config == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI generation is not configured", "code": CodeNotConfigured})
		return
	}

	if !elig.Allowed {
		// Denials are auditable like any other attempt; best-effort.
		h.usageService.Record(&models.AIUsageLog{
			UserID:         userID,
			ProjectID:      req.ProjectID,
			GenerationType: req.Type,
			Provider:       elig.Config.Provider,
			Model:          elig.Config.Model,
			Status:         models.UsageStatusRateLimited,
		})
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": elig.Usage.Message,
			"code":  CodeLimitReached,
			"usage": elig.Usage,
		})
		return
	}

	out, err := h.dispatch(c.Request.Context(), elig.Config, &req)

	entry := &models.AIUsageLog{
		UserID:         userID,
		ProjectID:      req.ProjectID,
		GenerationType: req.Type,
		Provider:       elig.Config.Provider,
		Model:          elig.Config.Model,
	}

	if err != nil {
		entry.Status = models.UsageStatusError
		entry.ErrorMessage = err.Error()
		h.usageService.RecordSync(entry)

		if errors.Is(err, services.ErrMissingInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeInvalidType})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed: " + err.Error(), "code": CodeGenerationFailed})
		return
	}

	entry.Status = models.UsageStatusSuccess
	entry.PromptTokens = out.PromptTokens
	entry.CompletionTokens = out.CompletionTokens
	entry.TotalTokens = out.PromptTokens + out.CompletionTokens
	h.usageService.RecordSync(entry)

	h.persistResult(req, out)

	usage := elig.Usage
	if !elig.IsAdmin {
		usage.Used++
		if usage.Remaining > 0 {
			usage.Remaining--
		}
	}

	var result interface{}
	if req.Type == models.GenerationTypeTasks {
		result = out.Tasks
	} else {
		result = out.Text
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"result":   result,
		"usage":    usage,
		"is_admin": elig.IsAdmin,
	})
}

func (h *GenerateHandler) dispatch(ctx context.Context, setting *models.AISetting, req *GenerateRequest) (*services.GenerationOutput, error) {
	switch req.Type {
	case models.GenerationTypePRD:
		return h.generator.GeneratePRD(ctx, setting, services.PRDInput{
			ServiceName:     req.Data.ServiceName,
			Description:     req.Data.Description,
			QuestionAnswers: req.Data.QuestionAnswers,
		})
	case models.GenerationTypeTasks:
		return h.generator.GenerateTasks(ctx, setting, req.Data.PRD)
	case models.GenerationTypeSuggestion:
		return h.generator.SuggestDescriptions(ctx, setting, req.Data.ServiceName)
	default:
		return h.generator.EnhanceDescription(ctx, setting, req.Data.Description)
	}
}

// persistResult attaches a generated PRD or task list to the project
// when the request names one. Failures here must not fail the response:
// the client already has the result.
func (h *GenerateHandler) persistResult(req GenerateRequest, out *services.GenerationOutput) {
	if req.ProjectID == nil {
		return
	}

	switch req.Type {
	case models.GenerationTypePRD:
		if err := h.projectService.SavePRD(*req.ProjectID, out.Text); err != nil {
			logger.Warnf("[Generate] failed to save PRD on project %d: %v", *req.ProjectID, err)
		}
	case models.GenerationTypeTasks:
		if _, err := h.projectService.ReplaceGeneratedTasks(*req.ProjectID, out.Tasks); err != nil {
			logger.Warnf("[Generate] failed to save tasks on project %d: %v", *req.ProjectID, err)
		}
	}
}

// UsageStatus handles GET /api/ai/generate: the current quota snapshot
// without performing a generation.
func (h *GenerateHandler) UsageStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	elig, err := h.usageService.GetUserUsage(userID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "usage check failed: " + err.Error(), "code": CodeGenerationFailed})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"configured": elig.Config != nil,
		"usage":      elig.Usage,
		"is_admin":   elig.IsAdmin,
	})
}
