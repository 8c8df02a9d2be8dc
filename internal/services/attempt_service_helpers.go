package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/events"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

// ===== HELPER METHODS =====

func (s *attemptService) getTest(ctx context.Context, testID uint) (*models.Test, error) {
	test, err := s.repo.Test().GetByID(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return test, nil
}

// applyScore copies the scoring outcome and the elapsed time onto attempt
func (s *attemptService) applyScore(attempt *models.TestAttempt, result ScoreResult) {
	endTime := s.now()

	attempt.Responses = result.Responses
	attempt.CorrectAnswers = result.CorrectAnswers
	attempt.IncorrectAnswers = result.Incorrect
	attempt.Score = result.Score
	attempt.Accuracy = result.Score
	attempt.EndTime = &endTime
	attempt.TimeSpent = elapsedSeconds(attempt, endTime)
	attempt.IsCompleted = true
}

// elapsedSeconds is whole seconds since the attempt started, never negative
func elapsedSeconds(attempt *models.TestAttempt, end time.Time) int {
	elapsed := math.Floor(end.Sub(attempt.StartTime).Seconds())
	if elapsed < 0 {
		return 0
	}
	return int(elapsed)
}

func newStartResponse(attempt *models.TestAttempt, created bool) *StartAttemptResponse {
	message := models.AttemptMessageContinued
	if created {
		message = models.AttemptMessageStarted
	}
	return &StartAttemptResponse{
		AttemptID: attempt.ID,
		Message:   message,
		Resumed:   !created,
	}
}

// evaluateAchievements runs after the submission is committed. Failures are
// logged and never reach the caller.
func (s *attemptService) evaluateAchievements(ctx context.Context, attempt *models.TestAttempt, test *models.Test) {
	if s.achievements == nil {
		return
	}

	unlocked, err := s.achievements.Evaluate(ctx, attempt, test)
	if err != nil {
		s.logger.Error("Failed to evaluate achievements",
			"attempt_id", attempt.ID,
			"user_id", attempt.UserID,
			"error", err)
	}
	for _, a := range unlocked {
		s.logger.Info("Achievement unlocked",
			"user_id", attempt.UserID,
			"title", a.Title)
	}
}

func (s *attemptService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			"event_type", event.Type,
			"user_id", event.UserID,
			"error", err)
	}
}
