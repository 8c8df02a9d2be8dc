package postgres

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

// wrapNotFound maps gorm's not-found error to the repository sentinel
func wrapNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// applyAttemptFilters applies the optional attempt filters
func applyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}
	if filters.TestID != nil {
		query = query.Where("test_id = ?", *filters.TestID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at < ?", *filters.DateTo)
	}
	return query
}

// applyAttemptPagination applies ordering and limit/offset; newest first by default
func applyAttemptPagination(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	order := "created_at DESC"
	if filters.SortOrder == "asc" {
		order = "created_at ASC"
	}
	query = query.Order(order).Order("id DESC")

	return applyLimitOffset(query, filters.Limit, filters.Offset)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching term literally
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func applyLimitOffset(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
