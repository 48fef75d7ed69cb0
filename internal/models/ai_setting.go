package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultGenerationLimit applies when an AISetting has no per-user ceiling.
const DefaultGenerationLimit = 3

// AISetting is an administrator-configured provider credential.
// At most one setting is active at a time; the active one is used
// for all generation requests.
type AISetting struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	Provider              string         `gorm:"uniqueIndex;size:50;not null" json:"provider"` // openai, anthropic, google, deepseek, groq, mistral, ollama, azure
	APIKey                string         `gorm:"size:500" json:"-"`
	APIKeyMask            string         `gorm:"-" json:"api_key_mask"`
	BaseURL               string         `gorm:"size:500" json:"base_url"` // optional override for OpenAI-compatible and ollama endpoints
	Model                 string         `gorm:"size:100" json:"model"`
	MaxGenerationsPerUser *int           `json:"max_generations_per_user"` // nil means DefaultGenerationLimit
	IsActive              bool           `gorm:"default:false" json:"is_active"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

func (AISetting) TableName() string { return "ai_settings" }

// GenerationLimit returns the effective per-user ceiling.
func (s *AISetting) GenerationLimit() int {
	if s.MaxGenerationsPerUser == nil || *s.MaxGenerationsPerUser <= 0 {
		return DefaultGenerationLimit
	}
	return *s.MaxGenerationsPerUser
}

// MaskAPIKey returns a masked API key for display.
func (s *AISetting) MaskAPIKey() string {
	if len(s.APIKey) <= 8 {
		return "****"
	}
	return s.APIKey[:4] + "****" + s.APIKey[len(s.APIKey)-4:]
}
