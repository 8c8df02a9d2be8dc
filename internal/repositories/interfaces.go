package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

// AttemptFilters narrows attempt listings. DateTo is exclusive.
type AttemptFilters struct {
	ExamID    *uint      `json:"exam_id"`
	TestID    *uint      `json:"test_id"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"` // 0 means no limit
	Offset    int        `json:"offset"`
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

// ExamFilters pages the active catalog. Search matches name or description.
type ExamFilters struct {
	Search string
	Limit  int
	Offset int
}

// ProgressUpdate carries the optional fields of a progress checkpoint.
// Nil fields are left untouched.
type ProgressUpdate struct {
	Responses []models.Response
	TimeSpent *int
}

type SubjectCount struct {
	Subject models.Subject `json:"subject"`
	Count   int            `json:"count"`
}

type MonthlyScore struct {
	Month    string  `json:"month"` // YYYY-MM
	AvgScore float64 `json:"avg_score"`
	Count    int     `json:"count"`
}

// ===== REPOSITORY INTERFACES =====

// ExamRepository is a read-only view of the exam catalog
type ExamRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	// ListActive returns one page of active exams, newest first, and the total
	ListActive(ctx context.Context, filters ExamFilters) ([]*models.Exam, int64, error)
}

// TestRepository is a read-only view of test definitions
type TestRepository interface {
	// GetByID returns the test with its questions in authored order
	GetByID(ctx context.Context, id uint) (*models.Test, error)
	ListByExam(ctx context.Context, examID uint) ([]*models.Test, error)
	ListActiveByCategory(ctx context.Context, category models.TestCategory, limit int) ([]*models.Test, error)
	// CountQuestionsBySubject counts questions across the exam's active tests
	CountQuestionsBySubject(ctx context.Context, examID uint) ([]SubjectCount, error)
}

type AttemptRepository interface {
	GetByID(ctx context.Context, id uint) (*models.TestAttempt, error)
	GetActive(ctx context.Context, userID string, testID uint) (*models.TestAttempt, error)
	GetActiveForUser(ctx context.Context, id uint, userID string) (*models.TestAttempt, error)

	// FindOrCreateActive inserts attempt unless the user already has an
	// in-progress attempt for the same test. It returns whichever attempt
	// is active afterwards and whether it was created by this call.
	FindOrCreateActive(ctx context.Context, attempt *models.TestAttempt) (*models.TestAttempt, bool, error)

	// UpdateProgress and Complete only touch rows that are still in progress
	// and owned by userID. Both return ErrNotFound otherwise.
	UpdateProgress(ctx context.Context, id uint, userID string, update ProgressUpdate) error
	Complete(ctx context.Context, attempt *models.TestAttempt) error

	ListCompletedByUser(ctx context.Context, userID string, filters AttemptFilters) ([]*models.TestAttempt, int64, error)
	CountCompletedWithMinScore(ctx context.Context, userID string, minScore float64) (int64, error)
	MonthlyAverages(ctx context.Context, userID string, since time.Time) ([]MonthlyScore, error)
}

type AchievementRepository interface {
	// CreateIfAbsent inserts the achievement unless one with the same
	// (user, title) exists. It reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, achievement *models.Achievement) (bool, error)
	ExistsByTitle(ctx context.Context, userID, title string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Achievement, error)
}

type UserStatsRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserStats, error)
	// GetForUpdate locks the user's stats row for the rest of the
	// transaction. A zero-valued row is returned for new users.
	GetForUpdate(ctx context.Context, userID string) (*models.UserStats, error)
	Save(ctx context.Context, stats *models.UserStats) error
	// InvalidateCache drops cached stats. Call it after the writing
	// transaction commits, never inside it.
	InvalidateCache(ctx context.Context, userID string)
}
