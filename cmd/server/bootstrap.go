package main

import (
	"github.com/lumosoft/agencyhub/internal/config"
	"github.com/lumosoft/agencyhub/internal/handlers"
	"github.com/lumosoft/agencyhub/internal/models"
	"github.com/lumosoft/agencyhub/internal/services"
	"github.com/lumosoft/agencyhub/internal/utils"
	"github.com/lumosoft/agencyhub/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	retentionService *services.RetentionService
	authHandler      *handlers.AuthHandler
	generateHandler  *handlers.GenerateHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed default data
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	// Seed a provider setting from config when the admin has not set one
	// up yet. Leaves the table alone once any row exists.
	seedAISettingFromConfig(cfg)

	// Start usage log retention scheduler
	retentionService := services.NewRetentionService(models.GetDB())
	retentionService.StartScheduler()

	// Create default admin user
	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		retentionService: retentionService,
		authHandler:      authHandler,
		generateHandler:  handlers.NewGenerateHandler(models.GetDB()),
	}
}

func seedAISettingFromConfig(cfg *config.Config) {
	if cfg.AI.APIKey == "" {
		return
	}

	var count int64
	models.GetDB().Model(&models.AISetting{}).Count(&count)
	if count > 0 {
		return
	}

	settingService := services.NewAISettingService(models.GetDB())
	_, err := settingService.Create(&services.CreateAISettingRequest{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		BaseURL:  cfg.AI.BaseURL,
		Model:    cfg.AI.Model,
		IsActive: true,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to seed AI setting from config")
		return
	}
	logger.Info().Str("provider", cfg.AI.Provider).Msg("Seeded AI setting from config")
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.retentionService.StopScheduler()
	logger.Info().Msg("All schedulers stopped")
}
