package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
	"github.com/shopspring/decimal"
)

type resultsService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewResultsService(repo repositories.Repository, logger *slog.Logger) ResultsService {
	return &resultsService{
		repo:   repo,
		logger: logger,
	}
}

func (s *resultsService) GetResults(ctx context.Context, attemptID uint, userID string) (*TestResultsResponse, error) {
	attempt, test, err := loadCompletedAttempt(ctx, s.repo, attemptID, userID)
	if err != nil {
		return nil, err
	}

	return BuildResults(attempt, test), nil
}

// loadCompletedAttempt returns the caller's completed attempt and its test.
// Missing, foreign and in-progress attempts are all reported as
// ErrResultsNotFound.
func loadCompletedAttempt(ctx context.Context, repo repositories.Repository, attemptID uint, userID string) (*models.TestAttempt, *models.Test, error) {
	attempt, err := repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrResultsNotFound
		}
		return nil, nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.UserID != userID || !attempt.IsCompleted {
		return nil, nil, ErrResultsNotFound
	}

	test, err := repo.Test().GetByID(ctx, attempt.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrTestNotFound
		}
		return nil, nil, fmt.Errorf("failed to get test: %w", err)
	}

	return attempt, test, nil
}

// BuildResults joins each response to its question and groups the outcome
// by subject and difficulty. Groups are listed in order of first appearance.
// Responses for questions no longer in the test are left out.
func BuildResults(attempt *models.TestAttempt, test *models.Test) *TestResultsResponse {
	questions := test.QuestionIndex()

	detailed := make([]DetailedResult, 0, len(attempt.Responses))
	for _, r := range attempt.Responses {
		q, ok := questions[r.QuestionID]
		if !ok {
			continue
		}
		detailed = append(detailed, DetailedResult{
			QuestionID:     q.ID,
			Question:       q.Text,
			Options:        q.Options,
			SelectedOption: r.SelectedOption,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      r.IsCorrect,
			Explanation:    q.Explanation,
			Subject:        q.Subject,
			Difficulty:     q.Difficulty,
			TimeSpent:      r.TimeSpent,
		})
	}

	return &TestResultsResponse{
		TestAttempt:           attempt,
		DetailedResults:       detailed,
		SubjectPerformance:    subjectPerformance(detailed),
		DifficultyPerformance: difficultyPerformance(detailed),
	}
}

type tally struct {
	correct int
	total   int
}

func subjectPerformance(results []DetailedResult) []SubjectPerformance {
	var order []models.Subject
	counts := make(map[models.Subject]*tally)
	for _, r := range results {
		t, ok := counts[r.Subject]
		if !ok {
			t = &tally{}
			counts[r.Subject] = t
			order = append(order, r.Subject)
		}
		t.total++
		if r.IsCorrect {
			t.correct++
		}
	}

	out := make([]SubjectPerformance, 0, len(order))
	for _, subject := range order {
		t := counts[subject]
		out = append(out, SubjectPerformance{
			Subject:    subject,
			Correct:    t.correct,
			Total:      t.total,
			Percentage: percentage(t.correct, t.total),
		})
	}
	return out
}

func difficultyPerformance(results []DetailedResult) []DifficultyPerformance {
	var order []models.Difficulty
	counts := make(map[models.Difficulty]*tally)
	for _, r := range results {
		t, ok := counts[r.Difficulty]
		if !ok {
			t = &tally{}
			counts[r.Difficulty] = t
			order = append(order, r.Difficulty)
		}
		t.total++
		if r.IsCorrect {
			t.correct++
		}
	}

	out := make([]DifficultyPerformance, 0, len(order))
	for _, difficulty := range order {
		t := counts[difficulty]
		out = append(out, DifficultyPerformance{
			Difficulty: difficulty,
			Correct:    t.correct,
			Total:      t.total,
			Percentage: percentage(t.correct, t.total),
		})
	}
	return out
}

// percentage formats part/whole*100 with two decimals; "0.00" when whole is 0
func percentage(part, whole int) string {
	if whole == 0 {
		return decimal.Zero.StringFixed(2)
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).
		StringFixed(2)
}

// formatScore renders a stored float score with two decimals
func formatScore(score float64) string {
	return decimal.NewFromFloat(score).StringFixed(2)
}
