package models

import "time"

// Generation types accepted by the AI endpoint.
const (
	GenerationTypePRD         = "prd"
	GenerationTypeTasks       = "tasks"
	GenerationTypeSuggestion  = "description_suggestion"
	GenerationTypeEnhancement = "description_enhance"
)

// Usage log statuses.
const (
	UsageStatusSuccess     = "success"
	UsageStatusError       = "error"
	UsageStatusRateLimited = "rate_limited"
)

// AIUsageLog is an append-only record of one generation attempt.
// Rows are never updated; only successes count against the quota.
type AIUsageLog struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"index;not null" json:"user_id"`
	ProjectID        *uint     `gorm:"index" json:"project_id"`
	GenerationType   string    `gorm:"size:50;not null" json:"generation_type"`
	Provider         string    `gorm:"size:50" json:"provider"`
	Model            string    `gorm:"size:100" json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	Status           string    `gorm:"size:20;index" json:"status"` // success, error, rate_limited
	ErrorMessage     string    `gorm:"size:500" json:"error_message,omitempty"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

func (AIUsageLog) TableName() string { return "ai_usage_log" }
