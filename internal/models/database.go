package models

import (
	"fmt"

	"github.com/lumosoft/agencyhub/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the database selected by configuration. A sqlite DSN of
// "file::memory:?cache=shared" gives the in-memory store used for
// development and tests; there is no other fallback storage.
func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&Project{},
		&Task{},
		&AISetting{},
		&AIUsageLog{},
		&SystemConfig{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates default system config rows if not present.
func SeedDefaultData() error {
	defaultConfigs := []SystemConfig{
		{Key: "usage_log_retention_days", Value: "90", Type: "int", Group: "ai", Label: "AI Usage Log Retention Days"},
		{Key: "generation_limit_default", Value: "3", Type: "int", Group: "ai", Label: "Default Generations Per User"},
		{Key: "agency_name", Value: "AgencyHub", Type: "string", Group: "general", Label: "Agency Display Name"},
	}

	for _, cfg := range defaultConfigs {
		var count int64
		DB.Model(&SystemConfig{}).Where("`key` = ?", cfg.Key).Count(&count)
		if count == 0 {
			if err := DB.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
