package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/exam-prep-service/internal/config"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

// InitDatabase opens the postgres connection pool and migrates the schema
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if !cfg.IsProduction() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if cfg.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// Migrate creates the tables and the indexes the attempt lifecycle relies on
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Exam{},
		&models.Test{},
		&models.Question{},
		&models.TestAttempt{},
		&models.Achievement{},
		&models.UserStats{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Partial unique index backing AttemptRepository.FindOrCreateActive
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_test_attempts_active
		ON test_attempts (user_id, test_id) WHERE is_completed = false`).Error
	if err != nil {
		return fmt.Errorf("failed to create active attempt index: %w", err)
	}

	return nil
}
