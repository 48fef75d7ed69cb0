package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/lumosoft/agencyhub/internal/models"
	"github.com/lumosoft/agencyhub/pkg/logger"
	"gorm.io/gorm"
)

// AIUsageService is the usage gate: it decides whether a user may run a
// generation right now and records every attempt for audit.
type AIUsageService struct {
	db *gorm.DB
}

func NewAIUsageService(db *gorm.DB) *AIUsageService {
	return &AIUsageService{db: db}
}

// UsageSnapshot is the per-user quota view returned with every decision.
type UsageSnapshot struct {
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Message   string `json:"message,omitempty"`
}

// Eligibility is the combined admission result.
type Eligibility struct {
	Allowed bool              `json:"allowed"`
	Config  *models.AISetting `json:"-"`
	Usage   UsageSnapshot     `json:"usage"`
	IsAdmin bool              `json:"is_admin"`
}

// CanUserGenerate checks the active provider setting and the user's
// successful-generation count against the configured ceiling. Admins
// are admitted unconditionally but their usage is still reported.
//
// Two concurrent calls near the quota boundary can both read "one
// remaining" and both be admitted; the ceiling is a soft cap, not a
// resource lock, so no transaction guards the read.
func (s *AIUsageService) CanUserGenerate(userID uint, role string) (*Eligibility, error) {
	setting, err := s.activeSetting()
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return &Eligibility{
			Allowed: false,
			Config:  nil,
			Usage:   UsageSnapshot{Message: "AI generation is not configured"},
			IsAdmin: role == "admin",
		}, nil
	}

	used, err := s.countSuccesses(userID)
	if err != nil {
		return nil, err
	}

	limit := setting.GenerationLimit()

	if role == "admin" {
		return &Eligibility{
			Allowed: true,
			Config:  setting,
			Usage:   UsageSnapshot{Used: used, Limit: limit, Remaining: limit, Message: "unlimited (admin)"},
			IsAdmin: true,
		}, nil
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	elig := &Eligibility{
		Allowed: used < limit,
		Config:  setting,
		Usage:   UsageSnapshot{Used: used, Limit: limit, Remaining: remaining},
	}
	if !elig.Allowed {
		elig.Usage.Message = fmt.Sprintf("generation limit reached (%d of %d used)", used, limit)
	}
	return elig, nil
}

// GetUserUsage returns the snapshot without an admission decision,
// for the read-only status endpoint.
func (s *AIUsageService) GetUserUsage(userID uint, role string) (*Eligibility, error) {
	return s.CanUserGenerate(userID, role)
}

func (s *AIUsageService) activeSetting() (*models.AISetting, error) {
	var setting models.AISetting
	if err := s.db.Where("is_active = ?", true).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

func (s *AIUsageService) countSuccesses(userID uint) (int, error) {
	var count int64
	err := s.db.Model(&models.AIUsageLog{}).
		Where("user_id = ? AND status = ?", userID, models.UsageStatusSuccess).
		Count(&count).Error
	return int(count), err
}

// Record saves a usage log entry asynchronously. Audit logging is
// best-effort: a failed insert must never abort the caller's response.
func (s *AIUsageService) Record(entry *models.AIUsageLog) {
	go func() {
		if err := s.db.Create(entry).Error; err != nil {
			logger.Warnf("[AIUsage] failed to record usage: %v", err)
		}
	}()
}

// RecordSync saves a usage log entry inline. Handlers that need the row
// visible before responding (and tests) use this; errors are still
// swallowed after logging.
func (s *AIUsageService) RecordSync(entry *models.AIUsageLog) {
	if err := s.db.Create(entry).Error; err != nil {
		logger.Warnf("[AIUsage] failed to record usage: %v", err)
	}
}

// UsageStats holds aggregated usage statistics for admin dashboards.
type UsageStats struct {
	TotalCalls       int64   `json:"total_calls"`
	TotalTokens      int64   `json:"total_tokens"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	SuccessRate      float64 `json:"success_rate"`
	SuccessCount     int64   `json:"success_count"`
	FailureCount     int64   `json:"failure_count"`
}

// GetStats returns aggregated usage statistics for the given time range.
func (s *AIUsageService) GetStats(startDate, endDate string, userID *uint) (*UsageStats, error) {
	query := s.db.Model(&models.AIUsageLog{})
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}
	if userID != nil && *userID > 0 {
		query = query.Where("user_id = ?", *userID)
	}

	var stats UsageStats
	err := query.Select(
		"COUNT(*) as total_calls, " +
			"COALESCE(SUM(total_tokens), 0) as total_tokens, " +
			"COALESCE(SUM(prompt_tokens), 0) as prompt_tokens, " +
			"COALESCE(SUM(completion_tokens), 0) as completion_tokens, " +
			"COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) as success_count, " +
			"COALESCE(SUM(CASE WHEN status != 'success' THEN 1 ELSE 0 END), 0) as failure_count",
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.TotalCalls) * 100
	}
	return &stats, nil
}

// UserUsage holds usage grouped by user, for the admin breakdown.
type UserUsage struct {
	UserID      uint `json:"user_id"`
	Calls       int  `json:"calls"`
	Successes   int  `json:"successes"`
	TotalTokens int  `json:"total_tokens"`
}

// GetUserBreakdown returns usage grouped by user.
func (s *AIUsageService) GetUserBreakdown(startDate, endDate string) ([]UserUsage, error) {
	query := s.db.Model(&models.AIUsageLog{})
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}

	var results []UserUsage
	err := query.Select(
		"user_id, " +
			"COUNT(*) as calls, " +
			"COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) as successes, " +
			"COALESCE(SUM(total_tokens), 0) as total_tokens",
	).Group("user_id").Order("calls DESC").Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []UserUsage{}
	}
	return results, nil
}

// ProviderUsage holds usage grouped by provider and model.
type ProviderUsage struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Calls       int     `json:"calls"`
	TotalTokens int     `json:"total_tokens"`
	SuccessRate float64 `json:"success_rate"`
}

// GetProviderBreakdown returns usage grouped by provider and model.
func (s *AIUsageService) GetProviderBreakdown(startDate, endDate string) ([]ProviderUsage, error) {
	query := s.db.Model(&models.AIUsageLog{})
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}

	var results []ProviderUsage
	err := query.Select(
		"provider, model, " +
			"COUNT(*) as calls, " +
			"COALESCE(SUM(total_tokens), 0) as total_tokens, " +
			"COALESCE(AVG(CASE WHEN status = 'success' THEN 100.0 ELSE 0.0 END), 0) as success_rate",
	).Group("provider, model").Order("calls DESC").Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []ProviderUsage{}
	}
	return results, nil
}

// CleanupBefore deletes usage logs older than the given time. Retention
// cleanup is the single sanctioned delete path for the audit table.
func (s *AIUsageService) CleanupBefore(before time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", before).Delete(&models.AIUsageLog{})
	return result.RowsAffected, result.Error
}
