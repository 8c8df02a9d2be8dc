package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, wrapNotFound(err, "attempt")
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetActive(ctx context.Context, userID string, testID uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	err := a.db.WithContext(ctx).
		Where("user_id = ? AND test_id = ? AND is_completed = ?", userID, testID, false).
		First(&attempt).Error
	if err != nil {
		return nil, wrapNotFound(err, "active attempt")
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetActiveForUser(ctx context.Context, id uint, userID string) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	err := a.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_completed = ?", id, userID, false).
		First(&attempt).Error
	if err != nil {
		return nil, wrapNotFound(err, "active attempt")
	}
	return &attempt, nil
}

// FindOrCreateActive relies on the partial unique index
// idx_test_attempts_active (user_id, test_id) WHERE is_completed = false.
// A losing concurrent insert becomes a no-op and the winner is read back.
func (a *AttemptPostgreSQL) FindOrCreateActive(ctx context.Context, attempt *models.TestAttempt) (*models.TestAttempt, bool, error) {
	result := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "test_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Name: "is_completed"}, Value: false},
			}},
			DoNothing: true,
		}).
		Create(attempt)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create attempt: %w", result.Error)
	}

	if result.RowsAffected == 1 {
		return attempt, true, nil
	}

	existing, err := a.GetActive(ctx, attempt.UserID, attempt.TestID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (a *AttemptPostgreSQL) UpdateProgress(ctx context.Context, id uint, userID string, update repositories.ProgressUpdate) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if update.Responses != nil {
		updates["responses"] = datatypes.JSONSlice[models.Response](update.Responses)
	}
	if update.TimeSpent != nil {
		updates["time_spent"] = *update.TimeSpent
	}

	result := a.db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Where("id = ? AND user_id = ? AND is_completed = ?", id, userID, false).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to save progress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("active attempt %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}

// Complete writes the scored fields and flips is_completed in one guarded
// statement, so an attempt can be finalized at most once.
func (a *AttemptPostgreSQL) Complete(ctx context.Context, attempt *models.TestAttempt) error {
	result := a.db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Where("id = ? AND user_id = ? AND is_completed = ?", attempt.ID, attempt.UserID, false).
		Updates(map[string]interface{}{
			"responses":         attempt.Responses,
			"end_time":          attempt.EndTime,
			"time_spent":        attempt.TimeSpent,
			"score":             attempt.Score,
			"correct_answers":   attempt.CorrectAnswers,
			"incorrect_answers": attempt.IncorrectAnswers,
			"accuracy":          attempt.Accuracy,
			"is_completed":      true,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to complete attempt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("active attempt %d: %w", attempt.ID, repositories.ErrNotFound)
	}

	attempt.IsCompleted = true
	return nil
}

func (a *AttemptPostgreSQL) ListCompletedByUser(ctx context.Context, userID string, filters repositories.AttemptFilters) ([]*models.TestAttempt, int64, error) {
	var attempts []*models.TestAttempt
	var total int64

	query := a.db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Where("user_id = ? AND is_completed = ?", userID, true)
	query = applyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attempts: %w", err)
	}

	query = applyAttemptPagination(query, filters)
	err := query.
		Preload("Test", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "exam_id", "title", "category", "duration")
		}).
		Preload("Exam", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		Find(&attempts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) CountCompletedWithMinScore(ctx context.Context, userID string, minScore float64) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Where("user_id = ? AND is_completed = ? AND score >= ?", userID, true, minScore).
		Count(&count).Error
	return count, err
}

func (a *AttemptPostgreSQL) MonthlyAverages(ctx context.Context, userID string, since time.Time) ([]repositories.MonthlyScore, error) {
	var rows []repositories.MonthlyScore
	err := a.db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Select("to_char(date_trunc('month', created_at), 'YYYY-MM') AS month, AVG(score) AS avg_score, COUNT(*) AS count").
		Where("user_id = ? AND is_completed = ? AND created_at >= ?", userID, true, since).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly scores: %w", err)
	}
	return rows, nil
}
