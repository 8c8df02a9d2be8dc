package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/events"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

const (
	messageProgressSaved = "Progress saved successfully"
	messageSubmitted     = "Test submitted successfully"
)

type attemptService struct {
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	publisher    events.EventPublisher
	achievements AchievementService
	now          func() time.Time
}

func NewAttemptService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	publisher events.EventPublisher,
	achievements AchievementService,
) AttemptService {
	return &attemptService{
		repo:         repo,
		logger:       logger,
		validator:    validator,
		publisher:    publisher,
		achievements: achievements,
		now:          time.Now,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, testID uint, userID string) (*StartAttemptResponse, error) {
	s.logger.Info("Starting test attempt",
		"test_id", testID,
		"user_id", userID)

	test, err := s.getTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	// Fast path: resume without touching the write path
	active, err := s.repo.Attempt().GetActive(ctx, userID, testID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get active attempt: %w", err)
	}
	if active != nil {
		s.logger.Info("Resuming existing attempt", "attempt_id", active.ID)
		return newStartResponse(active, false), nil
	}

	// Inactive tests can be resumed but not started
	if !test.IsActive {
		return nil, ErrTestNotFound
	}

	attempt, created, err := s.repo.Attempt().FindOrCreateActive(ctx, models.NewTestAttempt(userID, test, s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	if !created {
		s.logger.Info("Concurrent start resolved to existing attempt", "attempt_id", attempt.ID)
		return newStartResponse(attempt, false), nil
	}

	s.logger.Info("Test attempt started successfully",
		"attempt_id", attempt.ID,
		"test_id", testID,
		"user_id", userID,
		"total_questions", attempt.TotalQuestions)

	s.publish(ctx, events.NewEvent(events.AttemptStarted, userID, events.AttemptStartedData{
		AttemptID: attempt.ID,
		TestID:    attempt.TestID,
		ExamID:    attempt.ExamID,
	}))

	return newStartResponse(attempt, true), nil
}

func (s *attemptService) SaveProgress(ctx context.Context, attemptID uint, userID string, req *SaveProgressRequest) error {
	if err := s.validator.ValidateProgress(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	update := repositories.ProgressUpdate{
		Responses: validator.ToResponses(req.Responses),
		TimeSpent: req.TimeSpent,
	}

	if err := s.repo.Attempt().UpdateProgress(ctx, attemptID, userID, update); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to save progress: %w", err)
	}

	s.logger.Debug("Attempt progress saved",
		"attempt_id", attemptID,
		"user_id", userID,
		"responses", len(update.Responses))

	return nil
}

func (s *attemptService) Submit(ctx context.Context, attemptID uint, userID string, req *SubmitAttemptRequest) (*SubmissionResult, error) {
	s.logger.Info("Submitting test attempt",
		"attempt_id", attemptID,
		"user_id", userID)

	if err := s.validator.ValidateSubmission(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	attempt, err := s.repo.Attempt().GetActiveForUser(ctx, attemptID, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	test, err := s.getTest(ctx, attempt.TestID)
	if err != nil {
		return nil, err
	}

	// Questions added to the test after start are not part of this attempt
	questions := attempt.QuestionsAtStart(test.Questions)
	result := ScoreResponses(questions, validator.ToResponses(req.Responses), attempt.TotalQuestions)
	s.applyScore(attempt, result)

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		// Conditional on is_completed = false, so only one submit can win
		if err := tx.Attempt().Complete(ctx, attempt); err != nil {
			return err
		}

		stats, err := tx.UserStats().GetForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock user stats: %w", err)
		}
		stats.RecordSubmission(result.Score, test.Title)

		if err := tx.UserStats().Save(ctx, stats); err != nil {
			return fmt.Errorf("failed to save user stats: %w", err)
		}
		return nil
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to submit attempt: %w", err)
	}

	// After commit, so a concurrent read cannot re-cache the old row
	s.repo.UserStats().InvalidateCache(ctx, userID)

	s.logger.Info("Test attempt submitted successfully",
		"attempt_id", attempt.ID,
		"user_id", userID,
		"score", result.Score,
		"correct_answers", result.CorrectAnswers,
		"total_questions", result.TotalQuestions,
		"time_spent", attempt.TimeSpent)

	s.publish(ctx, events.NewEvent(events.AttemptSubmitted, userID, events.AttemptSubmittedData{
		AttemptID:      attempt.ID,
		TestID:         attempt.TestID,
		ExamID:         attempt.ExamID,
		Score:          result.Score,
		CorrectAnswers: result.CorrectAnswers,
		TotalQuestions: result.TotalQuestions,
		TimeSpent:      attempt.TimeSpent,
	}))

	s.evaluateAchievements(ctx, attempt, test)

	return &SubmissionResult{
		Message:        messageSubmitted,
		Score:          result.Score,
		CorrectAnswers: result.CorrectAnswers,
		TotalQuestions: result.TotalQuestions,
	}, nil
}
