package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-prep-service/internal/cache"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

type ExamPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam

	err := e.cacheManager.Exam.CacheOrExecute(ctx, cache.ExamKey(id), &exam, func() (interface{}, error) {
		var dbExam models.Exam
		if err := e.db.WithContext(ctx).First(&dbExam, id).Error; err != nil {
			return nil, wrapNotFound(err, "exam")
		}
		return &dbExam, nil
	})
	if err != nil {
		return nil, err
	}

	return &exam, nil
}

// examPage is the cached form of one page of the active catalog
type examPage struct {
	Exams []*models.Exam `json:"exams"`
	Total int64          `json:"total"`
}

// ListActive caches unfiltered pages; search results always hit the database.
func (e *ExamPostgreSQL) ListActive(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	if filters.Search != "" {
		return e.listActive(ctx, filters)
	}

	var page examPage
	err := e.cacheManager.Exam.CacheOrExecute(ctx, cache.ActiveExamsPageKey(filters.Limit, filters.Offset), &page, func() (interface{}, error) {
		exams, total, err := e.listActive(ctx, filters)
		if err != nil {
			return nil, err
		}
		return examPage{Exams: exams, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	return page.Exams, page.Total, nil
}

func (e *ExamPostgreSQL) listActive(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	query := e.db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("is_active = ?", true)
	if filters.Search != "" {
		pattern := containsPattern(filters.Search)
		query = query.Where("(name ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exams: %w", err)
	}

	var exams []*models.Exam
	query = applyLimitOffset(query.Order("created_at DESC").Order("id DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&exams).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}

	return exams, total, nil
}
