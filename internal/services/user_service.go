package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

const (
	defaultHistoryLimit = 10
	improvementMonths   = 6
	upcomingTestsLimit  = 5
	unknownExamName     = "Unknown"
)

type userService struct {
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	achievements AchievementService
	now          func() time.Time
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, achievements AchievementService) UserService {
	return &userService{
		repo:         repo,
		logger:       logger,
		validator:    validator,
		achievements: achievements,
		now:          time.Now,
	}
}

func (s *userService) GetTestHistory(ctx context.Context, userID string, query *HistoryQuery) (*TestHistoryResponse, error) {
	if query == nil {
		query = &HistoryQuery{}
	}
	if err := s.validator.ValidateHistory(query); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	page, limit, offset := pageBounds(query.Page, query.Limit, defaultHistoryLimit)
	filters := repositories.AttemptFilters{
		ExamID:    query.ExamID,
		TestID:    query.TestID,
		DateFrom:  query.From,
		Limit:     limit,
		Offset:    offset,
		SortOrder: query.SortOrder,
	}
	if query.To != nil {
		// To is inclusive of the whole day
		end := query.To.AddDate(0, 0, 1)
		filters.DateTo = &end
	}

	attempts, total, err := s.repo.Attempt().ListCompletedByUser(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get test history: %w", err)
	}

	return &TestHistoryResponse{
		TestAttempts: attempts,
		CurrentPage:  page,
		TotalPages:   totalPages(total, limit),
		TotalTests:   total,
	}, nil
}

func (s *userService) GetPerformance(ctx context.Context, userID string) (*PerformanceResponse, error) {
	attempts, _, err := s.repo.Attempt().ListCompletedByUser(ctx, userID, repositories.AttemptFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	since := monthStart(s.now()).AddDate(0, -(improvementMonths - 1), 0)
	monthly, err := s.repo.Attempt().MonthlyAverages(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly scores: %w", err)
	}

	improvement := make([]MonthlyImprovement, len(monthly))
	for i, m := range monthly {
		improvement[i] = MonthlyImprovement{
			Month: m.Month,
			Score: formatScore(m.AvgScore),
			Tests: m.Count,
		}
	}

	return &PerformanceResponse{
		Overall:     overallPerformance(attempts),
		Subjects:    examPerformance(attempts),
		Improvement: improvement,
	}, nil
}

func (s *userService) GetAchievements(ctx context.Context, userID string) ([]*models.Achievement, error) {
	return s.achievements.ListByUser(ctx, userID)
}

// GetStats returns zeroed stats for users who never submitted a test
func (s *userService) GetStats(ctx context.Context, userID string) (*models.UserStats, error) {
	stats, err := s.repo.UserStats().GetByUserID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return &models.UserStats{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

func overallPerformance(attempts []*models.TestAttempt) PerformanceOverview {
	overview := PerformanceOverview{TestsTaken: len(attempts)}

	var scoreSum float64
	for _, a := range attempts {
		scoreSum += a.Score
		overview.TotalQuestions += a.TotalQuestions
		overview.CorrectAnswers += a.CorrectAnswers
		overview.IncorrectAnswers += a.IncorrectAnswers
	}

	var avg float64
	if len(attempts) > 0 {
		avg = scoreSum / float64(len(attempts))
	}
	overview.AvgScore = formatScore(avg)
	overview.Accuracy = percentage(overview.CorrectAnswers, overview.TotalQuestions)

	return overview
}

// examPerformance groups attempts by exam in order of first appearance
func examPerformance(attempts []*models.TestAttempt) []ExamPerformance {
	var order []uint
	groups := make(map[uint]*ExamPerformance)

	for _, a := range attempts {
		g, ok := groups[a.ExamID]
		if !ok {
			name := unknownExamName
			if a.Exam != nil && a.Exam.Name != "" {
				name = a.Exam.Name
			}
			g = &ExamPerformance{ExamID: a.ExamID, Subject: name}
			groups[a.ExamID] = g
			order = append(order, a.ExamID)
		}
		g.Correct += a.CorrectAnswers
		g.Total += a.TotalQuestions
		g.Attempts++
	}

	out := make([]ExamPerformance, 0, len(order))
	for _, id := range order {
		g := groups[id]
		g.Percentage = percentage(g.Correct, g.Total)
		out = append(out, *g)
	}
	return out
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// GetUpcomingTests suggests the newest active full-length tests
func (s *userService) GetUpcomingTests(ctx context.Context) ([]*models.Test, error) {
	tests, err := s.repo.Test().ListActiveByCategory(ctx, models.CategorySetWise, upcomingTestsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming tests: %w", err)
	}
	if tests == nil {
		tests = []*models.Test{}
	}
	return tests, nil
}
