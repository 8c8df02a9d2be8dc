package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

type AchievementPostgreSQL struct {
	db *gorm.DB
}

func NewAchievementPostgreSQL(db *gorm.DB) repositories.AchievementRepository {
	return &AchievementPostgreSQL{db: db}
}

// CreateIfAbsent leans on idx_achievements_user_title; concurrent unlocks of
// the same title insert once.
func (a *AchievementPostgreSQL) CreateIfAbsent(ctx context.Context, achievement *models.Achievement) (bool, error) {
	result := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "title"}},
			DoNothing: true,
		}).
		Create(achievement)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create achievement: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (a *AchievementPostgreSQL) ExistsByTitle(ctx context.Context, userID, title string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.Achievement{}).
		Where("user_id = ? AND title = ?", userID, title).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check achievement: %w", err)
	}
	return count > 0, nil
}

func (a *AchievementPostgreSQL) ListByUser(ctx context.Context, userID string) ([]*models.Achievement, error) {
	var achievements []*models.Achievement
	err := a.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Find(&achievements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return achievements, nil
}
