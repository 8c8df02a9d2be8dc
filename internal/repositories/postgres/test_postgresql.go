package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-prep-service/internal/cache"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

type TestPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewTestPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.TestRepository {
	return &TestPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (t *TestPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Test, error) {
	var test models.Test

	err := t.cacheManager.Test.CacheOrExecute(ctx, cache.TestKey(id), &test, func() (interface{}, error) {
		var dbTest models.Test
		err := t.db.WithContext(ctx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC, id ASC")
			}).
			First(&dbTest, id).Error
		if err != nil {
			return nil, wrapNotFound(err, "test")
		}
		return &dbTest, nil
	})
	if err != nil {
		return nil, err
	}

	return &test, nil
}

func (t *TestPostgreSQL) ListByExam(ctx context.Context, examID uint) ([]*models.Test, error) {
	var tests []*models.Test

	err := t.cacheManager.Exam.CacheOrExecute(ctx, cache.ExamTestsKey(examID), &tests, func() (interface{}, error) {
		var dbTests []*models.Test
		err := t.db.WithContext(ctx).
			Where("exam_id = ? AND is_active = ?", examID, true).
			Order("created_at ASC").
			Find(&dbTests).Error
		if err != nil {
			return nil, err
		}
		return dbTests, nil
	})
	if err != nil {
		return nil, err
	}

	return tests, nil
}

func (t *TestPostgreSQL) ListActiveByCategory(ctx context.Context, category models.TestCategory, limit int) ([]*models.Test, error) {
	var tests []*models.Test
	query := t.db.WithContext(ctx).
		Where("is_active = ? AND category = ?", true, category).
		Order("created_at DESC").
		Order("id DESC")
	if err := applyLimitOffset(query, limit, 0).Find(&tests).Error; err != nil {
		return nil, fmt.Errorf("failed to list tests by category: %w", err)
	}
	return tests, nil
}

func (t *TestPostgreSQL) CountQuestionsBySubject(ctx context.Context, examID uint) ([]repositories.SubjectCount, error) {
	var rows []repositories.SubjectCount
	err := t.db.WithContext(ctx).
		Model(&models.Question{}).
		Select("test_questions.subject AS subject, COUNT(*) AS count").
		Joins("JOIN tests ON tests.id = test_questions.test_id").
		Where("tests.exam_id = ? AND tests.is_active = ?", examID, true).
		Group("test_questions.subject").
		Order("test_questions.subject ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count questions by subject: %w", err)
	}
	return rows, nil
}
