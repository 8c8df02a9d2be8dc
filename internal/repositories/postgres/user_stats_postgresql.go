package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/exam-prep-service/internal/cache"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

type UserStatsPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserStatsPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.UserStatsRepository {
	return &UserStatsPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (u *UserStatsPostgreSQL) GetByUserID(ctx context.Context, userID string) (*models.UserStats, error) {
	var stats models.UserStats

	err := u.cacheManager.Stats.CacheOrExecute(ctx, cache.UserStatsKey(userID), &stats, func() (interface{}, error) {
		var dbStats models.UserStats
		if err := u.db.WithContext(ctx).Where("user_id = ?", userID).First(&dbStats).Error; err != nil {
			return nil, wrapNotFound(err, "user stats")
		}
		return &dbStats, nil
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// GetForUpdate must run inside WithTransaction for the row lock to matter.
// The first submission of a user inserts an empty row so later
// submissions always find something to lock.
func (u *UserStatsPostgreSQL) GetForUpdate(ctx context.Context, userID string) (*models.UserStats, error) {
	seed := models.UserStats{UserID: userID}
	err := u.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to seed user stats: %w", err)
	}

	var stats models.UserStats
	err = u.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user stats %s: %w", userID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock user stats: %w", err)
	}
	return &stats, nil
}

func (u *UserStatsPostgreSQL) Save(ctx context.Context, stats *models.UserStats) error {
	err := u.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tests_taken", "avg_score", "last_test", "updated_at"}),
		}).
		Create(stats).Error
	if err != nil {
		return fmt.Errorf("failed to save user stats: %w", err)
	}
	return nil
}

func (u *UserStatsPostgreSQL) InvalidateCache(ctx context.Context, userID string) {
	cache.InvalidateUserStats(ctx, u.cacheManager, userID)
}
