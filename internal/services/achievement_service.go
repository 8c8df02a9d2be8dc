package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/events"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

const (
	consistentPerformerMinScore = 80
	consistentPerformerAttempts = 5
)

// achievementRule unlocks one titled badge. Rules are evaluated
// independently; one failing does not stop the others.
type achievementRule struct {
	title       string
	description string
	icon        string
	satisfied   func(ctx context.Context, repo repositories.Repository, attempt *models.TestAttempt, test *models.Test) (bool, error)
}

var achievementRules = []achievementRule{
	{
		title:       models.AchievementPerfectScore,
		description: "Scored 100% in a test",
		icon:        "🏆",
		satisfied: func(_ context.Context, _ repositories.Repository, attempt *models.TestAttempt, _ *models.Test) (bool, error) {
			return attempt.Score == 100, nil
		},
	},
	{
		title:       models.AchievementSpeedMaster,
		description: "Completed a test in half the allotted time",
		icon:        "⚡",
		satisfied: func(_ context.Context, _ repositories.Repository, attempt *models.TestAttempt, test *models.Test) (bool, error) {
			return float64(attempt.TimeSpent) <= float64(test.Duration)/2, nil
		},
	},
	{
		title:       models.AchievementConsistentPerformer,
		description: "Scored 80% or more in 5 tests",
		icon:        "📈",
		satisfied: func(ctx context.Context, repo repositories.Repository, attempt *models.TestAttempt, _ *models.Test) (bool, error) {
			count, err := repo.Attempt().CountCompletedWithMinScore(ctx, attempt.UserID, consistentPerformerMinScore)
			if err != nil {
				return false, fmt.Errorf("failed to count high score attempts: %w", err)
			}
			return count >= consistentPerformerAttempts, nil
		},
	},
}

type achievementService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	publisher events.EventPublisher
	now       func() time.Time
}

func NewAchievementService(repo repositories.Repository, logger *slog.Logger, publisher events.EventPublisher) AchievementService {
	return &achievementService{
		repo:      repo,
		logger:    logger,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *achievementService) Evaluate(ctx context.Context, attempt *models.TestAttempt, test *models.Test) ([]*models.Achievement, error) {
	if attempt == nil || test == nil || !attempt.IsCompleted {
		return nil, nil
	}

	var (
		unlocked []*models.Achievement
		errs     []error
	)

	for _, rule := range achievementRules {
		achievement, err := s.apply(ctx, rule, attempt, test)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rule.title, err))
			continue
		}
		if achievement != nil {
			unlocked = append(unlocked, achievement)
		}
	}

	return unlocked, errors.Join(errs...)
}

// apply returns the achievement created by this call, or nil when the rule
// does not hold or the user already has it.
func (s *achievementService) apply(ctx context.Context, rule achievementRule, attempt *models.TestAttempt, test *models.Test) (*models.Achievement, error) {
	ok, err := rule.satisfied(ctx, s.repo, attempt, test)
	if err != nil || !ok {
		return nil, err
	}

	exists, err := s.repo.Achievement().ExistsByTitle(ctx, attempt.UserID, rule.title)
	if err != nil {
		return nil, fmt.Errorf("failed to check achievement: %w", err)
	}
	if exists {
		return nil, nil
	}

	achievement := &models.Achievement{
		UserID:      attempt.UserID,
		Title:       rule.title,
		Description: rule.description,
		Icon:        rule.icon,
		Unlocked:    true,
		UnlockedAt:  s.now(),
	}

	// A concurrent submission may insert the same title between the check
	// and the insert; the unique index keeps one row.
	created, err := s.repo.Achievement().CreateIfAbsent(ctx, achievement)
	if err != nil {
		return nil, fmt.Errorf("failed to create achievement: %w", err)
	}
	if !created {
		return nil, nil
	}

	if s.publisher != nil {
		event := events.NewEvent(events.AchievementUnlocked, attempt.UserID, events.AchievementUnlockedData{
			AchievementID: achievement.ID,
			Title:         achievement.Title,
			Icon:          achievement.Icon,
			AttemptID:     attempt.ID,
			UnlockedAt:    achievement.UnlockedAt,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish achievement event",
				"user_id", attempt.UserID,
				"title", rule.title,
				"error", err)
		}
	}

	return achievement, nil
}

func (s *achievementService) ListByUser(ctx context.Context, userID string) ([]*models.Achievement, error) {
	achievements, err := s.repo.Achievement().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return achievements, nil
}
