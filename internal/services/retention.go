package services

import (
	"time"

	"github.com/lumosoft/agencyhub/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// RetentionService deletes AI usage log rows past the configured
// retention window. Runs nightly; retention days come from system
// config so admins can change it without a restart.
type RetentionService struct {
	usageService  *AIUsageService
	configService *SystemConfigService
	scheduler     *cron.Cron
}

func NewRetentionService(db *gorm.DB) *RetentionService {
	return &RetentionService{
		usageService:  NewAIUsageService(db),
		configService: NewSystemConfigService(db),
	}
}

// StartScheduler schedules the nightly cleanup at 03:30.
func (s *RetentionService) StartScheduler() {
	s.scheduler = cron.New()

	_, err := s.scheduler.AddFunc("30 3 * * *", func() {
		s.RunCleanup()
	})
	if err != nil {
		logger.Errorf("[Retention] failed to schedule cleanup: %v", err)
		return
	}

	s.scheduler.Start()
	logger.Infof("[Retention] usage log cleanup scheduled (daily 03:30)")
}

// StopScheduler stops the cron scheduler.
func (s *RetentionService) StopScheduler() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunCleanup deletes usage log rows older than the retention window.
func (s *RetentionService) RunCleanup() {
	days := s.configService.GetIntWithDefault("usage_log_retention_days", 90)
	if days <= 0 {
		return
	}

	before := time.Now().AddDate(0, 0, -days)
	deleted, err := s.usageService.CleanupBefore(before)
	if err != nil {
		logger.Errorf("[Retention] cleanup failed: %v", err)
		return
	}

	if deleted > 0 {
		logger.Infof("[Retention] deleted %d usage log rows older than %d days", deleted, days)
	}
}
