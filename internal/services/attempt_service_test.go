package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-prep-service/internal/events"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

type attemptFixture struct {
	store     *fakeStore
	clock     *fakeClock
	publisher *events.MockEventPublisher
	service   *attemptService
	test      *models.Test
}

func newAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()

	store := newFakeStore()
	test := sampleTest(1, 600)
	store.addTest(test)

	clock := newFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	publisher := events.NewMockEventPublisher(nil)
	logger := discardLogger()

	achievements := NewAchievementService(store, logger, publisher)
	service := NewAttemptService(store, logger, validator.New(), publisher, achievements).(*attemptService)
	service.now = clock.Now

	return &attemptFixture{
		store:     store,
		clock:     clock,
		publisher: publisher,
		service:   service,
		test:      test,
	}
}

func (f *attemptFixture) start(t *testing.T, userID string) uint {
	t.Helper()
	resp, err := f.service.Start(context.Background(), f.test.ID, userID)
	require.NoError(t, err)
	return resp.AttemptID
}

func TestAttemptService_Start(t *testing.T) {
	t.Run("creates attempt with one placeholder per question", func(t *testing.T) {
		f := newAttemptFixture(t)

		resp, err := f.service.Start(context.Background(), f.test.ID, "user-1")
		require.NoError(t, err)
		assert.Equal(t, models.AttemptMessageStarted, resp.Message)
		assert.False(t, resp.Resumed)

		attempt := f.store.attempt(resp.AttemptID)
		assert.Equal(t, "user-1", attempt.UserID)
		assert.Equal(t, f.test.ExamID, attempt.ExamID)
		assert.Equal(t, 4, attempt.TotalQuestions)
		assert.Equal(t, f.clock.Now(), attempt.StartTime)
		assert.False(t, attempt.IsCompleted)
		require.Len(t, attempt.Responses, 4)
		for i, r := range attempt.Responses {
			assert.Equal(t, f.test.Questions[i].ID, r.QuestionID)
			assert.Nil(t, r.SelectedOption)
			assert.False(t, r.IsCorrect)
			assert.Zero(t, r.TimeSpent)
		}

		assert.Len(t, f.publisher.EventsOfType(events.AttemptStarted), 1)
	})

	t.Run("second start resumes the same attempt", func(t *testing.T) {
		f := newAttemptFixture(t)

		first, err := f.service.Start(context.Background(), f.test.ID, "user-1")
		require.NoError(t, err)
		second, err := f.service.Start(context.Background(), f.test.ID, "user-1")
		require.NoError(t, err)

		assert.Equal(t, first.AttemptID, second.AttemptID)
		assert.Equal(t, models.AttemptMessageContinued, second.Message)
		assert.True(t, second.Resumed)
		assert.Len(t, f.publisher.EventsOfType(events.AttemptStarted), 1)
	})

	t.Run("concurrent starts share one attempt", func(t *testing.T) {
		f := newAttemptFixture(t)

		const workers = 16
		ids := make([]uint, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				resp, err := f.service.Start(context.Background(), f.test.ID, "user-1")
				if assert.NoError(t, err) {
					ids[i] = resp.AttemptID
				}
			}(i)
		}
		wg.Wait()

		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
	})

	t.Run("different users get different attempts", func(t *testing.T) {
		f := newAttemptFixture(t)
		assert.NotEqual(t, f.start(t, "user-1"), f.start(t, "user-2"))
	})

	t.Run("unknown test", func(t *testing.T) {
		f := newAttemptFixture(t)
		_, err := f.service.Start(context.Background(), 42, "user-1")
		assert.ErrorIs(t, err, ErrTestNotFound)
	})

	t.Run("inactive test cannot be started", func(t *testing.T) {
		f := newAttemptFixture(t)
		inactive := sampleTest(2, 600)
		inactive.IsActive = false
		f.store.addTest(inactive)

		_, err := f.service.Start(context.Background(), inactive.ID, "user-1")
		assert.ErrorIs(t, err, ErrTestNotFound)
	})

	t.Run("starting again after submit creates a new attempt", func(t *testing.T) {
		f := newAttemptFixture(t)
		first := f.start(t, "user-1")
		_, err := f.service.Submit(context.Background(), first, "user-1", &SubmitAttemptRequest{
			Responses: answers(f.test, 1, 0, 2, 3),
		})
		require.NoError(t, err)

		assert.NotEqual(t, first, f.start(t, "user-1"))
	})
}

func TestAttemptService_SaveProgress(t *testing.T) {
	t.Run("replaces responses wholesale and time spent", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")

		err := f.service.SaveProgress(context.Background(), id, "user-1", &SaveProgressRequest{
			Responses: answers(f.test, 2),
			TimeSpent: intPtr(120),
		})
		require.NoError(t, err)

		attempt := f.store.attempt(id)
		require.Len(t, attempt.Responses, 1)
		assert.Equal(t, 2, *attempt.Responses[0].SelectedOption)
		assert.Equal(t, 120, attempt.TimeSpent)
	})

	t.Run("omitted fields are left untouched", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")
		require.NoError(t, f.service.SaveProgress(context.Background(), id, "user-1", &SaveProgressRequest{TimeSpent: intPtr(30)}))

		require.NoError(t, f.service.SaveProgress(context.Background(), id, "user-1", &SaveProgressRequest{
			CurrentQuestionIndex: intPtr(2),
		}))

		attempt := f.store.attempt(id)
		assert.Len(t, attempt.Responses, 4)
		assert.Equal(t, 30, attempt.TimeSpent)
	})

	t.Run("zero time spent replaces the stored value", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")
		require.NoError(t, f.service.SaveProgress(context.Background(), id, "user-1", &SaveProgressRequest{TimeSpent: intPtr(30)}))
		require.NoError(t, f.service.SaveProgress(context.Background(), id, "user-1", &SaveProgressRequest{TimeSpent: intPtr(0)}))

		assert.Zero(t, f.store.attempt(id).TimeSpent)
	})

	t.Run("foreign attempt is not found", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")

		err := f.service.SaveProgress(context.Background(), id, "user-2", &SaveProgressRequest{TimeSpent: intPtr(5)})
		assert.ErrorIs(t, err, ErrAttemptNotFound)
		assert.Zero(t, f.store.attempt(id).TimeSpent)
	})

	t.Run("completed attempt is not found", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")
		_, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{Responses: answers(f.test, 1)})
		require.NoError(t, err)

		err = f.service.SaveProgress(context.Background(), id, "user-1", &SaveProgressRequest{TimeSpent: intPtr(5)})
		assert.ErrorIs(t, err, ErrAttemptNotFound)
	})

	t.Run("duplicate question ids are rejected", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")
		responses := answers(f.test, 1, 0)
		responses[1].QuestionID = responses[0].QuestionID

		err := f.service.SaveProgress(context.Background(), id, "user-1", &SaveProgressRequest{Responses: responses})
		assert.ErrorIs(t, err, ErrValidationFailed)

		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "unique_question", verrs[0].Rule)
		assert.Len(t, f.store.attempt(id).Responses, 4)
	})

	t.Run("negative time spent is rejected", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")

		err := f.service.SaveProgress(context.Background(), id, "user-1", &SaveProgressRequest{TimeSpent: intPtr(-1)})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestAttemptService_Submit(t *testing.T) {
	t.Run("scores and finalizes the attempt", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")
		f.clock.Advance(250 * time.Second)

		result, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{
			Responses: answers(f.test, 1, 0, 2, 0),
		})
		require.NoError(t, err)

		assert.Equal(t, "Test submitted successfully", result.Message)
		assert.Equal(t, 75.0, result.Score)
		assert.Equal(t, 3, result.CorrectAnswers)
		assert.Equal(t, 4, result.TotalQuestions)

		attempt := f.store.attempt(id)
		assert.True(t, attempt.IsCompleted)
		assert.Equal(t, 75.0, attempt.Score)
		assert.Equal(t, attempt.Score, attempt.Accuracy)
		assert.Equal(t, 3, attempt.CorrectAnswers)
		assert.Equal(t, 1, attempt.IncorrectAnswers)
		assert.Equal(t, attempt.TotalQuestions, attempt.CorrectAnswers+attempt.IncorrectAnswers)
		assert.Equal(t, 250, attempt.TimeSpent)
		require.NotNil(t, attempt.EndTime)
		assert.Equal(t, f.clock.Now(), *attempt.EndTime)

		assert.Len(t, f.publisher.EventsOfType(events.AttemptSubmitted), 1)
	})

	t.Run("time spent is floored to whole seconds", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")
		f.clock.Advance(90*time.Second + 900*time.Millisecond)

		_, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{Responses: answers(f.test, 1)})
		require.NoError(t, err)
		assert.Equal(t, 90, f.store.attempt(id).TimeSpent)
	})

	t.Run("second submit is not found and leaves attempt unchanged", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")
		f.clock.Advance(100 * time.Second)
		_, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{
			Responses: answers(f.test, 1, 0, 2, 0),
		})
		require.NoError(t, err)
		before := f.store.attempt(id)
		statsBefore := f.store.userStats("user-1")

		f.clock.Advance(100 * time.Second)
		_, err = f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{
			Responses: answers(f.test, 1, 0, 2, 3),
		})
		assert.ErrorIs(t, err, ErrAttemptNotFound)
		assert.Equal(t, before, f.store.attempt(id))
		assert.Equal(t, statsBefore, f.store.userStats("user-1"))
	})

	t.Run("foreign attempt is not found", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")

		_, err := f.service.Submit(context.Background(), id, "user-2", &SubmitAttemptRequest{Responses: answers(f.test, 1)})
		assert.ErrorIs(t, err, ErrAttemptNotFound)
		assert.False(t, f.store.attempt(id).IsCompleted)
	})

	t.Run("missing responses fail validation before any write", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")

		_, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{})
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.False(t, f.store.attempt(id).IsCompleted)
	})

	t.Run("score uses the question count frozen at start", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")

		grown := sampleTest(1, 600)
		grown.Questions = append(grown.Questions, models.Question{ID: 199, TestID: 1, CorrectAnswer: 0, Subject: models.SubjectGK})
		f.store.addTest(grown)

		result, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{
			Responses: answers(f.test, 1, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, 4, result.TotalQuestions)
		assert.Equal(t, 50.0, result.Score)
	})

	t.Run("questions added after start are not scored", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")

		grown := sampleTest(1, 600)
		grown.Questions = append(grown.Questions, models.Question{ID: 199, TestID: 1, CorrectAnswer: 0, Subject: models.SubjectGK})
		f.store.addTest(grown)

		result, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{
			Responses: answers(grown, 1, 0, 2, 3, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, 4, result.TotalQuestions)
		assert.Equal(t, 4, result.CorrectAnswers)
		assert.Equal(t, 100.0, result.Score)

		stored := f.store.attempt(id)
		assert.Equal(t, 0, stored.IncorrectAnswers)
		assert.LessOrEqual(t, stored.Score, 100.0)
		for _, r := range stored.Responses {
			if r.QuestionID == 199 {
				assert.False(t, r.IsCorrect)
			}
		}
	})

	t.Run("stats use the incremental running mean", func(t *testing.T) {
		f := newAttemptFixture(t)
		scores := [][]int{
			{1, 0, 2, 3}, // 100
			{1, 0, 2, 0}, // 75
			{0, 0, 0, 0}, // 25
		}

		var want float64
		for i, selected := range scores {
			id := f.start(t, "user-1")
			result, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{
				Responses: answers(f.test, selected...),
			})
			require.NoError(t, err)

			n := float64(i + 1)
			want = (want*(n-1) + result.Score) / n
		}

		stats := f.store.userStats("user-1")
		assert.Equal(t, 3, stats.TestsTaken)
		assert.Equal(t, want, stats.AvgScore)
		assert.InDelta(t, 66.666, stats.AvgScore, 0.001)
		assert.Equal(t, f.test.Title, stats.LastTest)
	})

	t.Run("stats failure rolls back the submission", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")
		f.store.statsSaveErr = errInjected

		_, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{Responses: answers(f.test, 1)})
		require.Error(t, err)
		assert.ErrorIs(t, err, errInjected)
		assert.False(t, f.store.attempt(id).IsCompleted)
		assert.Zero(t, f.store.userStats("user-1").TestsTaken)
		assert.Empty(t, f.store.statsInvalidations)
	})

	t.Run("stats cache is dropped after the transaction commits", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")

		_, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{Responses: answers(f.test, 1)})
		require.NoError(t, err)

		assert.Equal(t, []statsInvalidation{{userID: "user-1", inTx: false}}, f.store.statsInvalidations)
	})

	t.Run("achievement failure does not fail the submission", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")
		f.store.achievementErr = errInjected

		result, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{
			Responses: answers(f.test, 1, 0, 2, 3),
		})
		require.NoError(t, err)
		assert.Equal(t, 100.0, result.Score)
		assert.True(t, f.store.attempt(id).IsCompleted)
		assert.Empty(t, f.store.achievementTitles("user-1"))
	})

	t.Run("publish failure does not fail the submission", func(t *testing.T) {
		f := newAttemptFixture(t)
		id := f.start(t, "user-1")
		f.publisher.FailWith(errInjected)

		_, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{Responses: answers(f.test, 1)})
		require.NoError(t, err)
	})
}

func TestAttemptService_SpeedMaster(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{name: "well under half the duration", elapsed: 250 * time.Second, want: true},
		{name: "exactly half the duration", elapsed: 300 * time.Second, want: true},
		{name: "over half the duration", elapsed: 400 * time.Second, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAttemptFixture(t)
			id := f.start(t, "user-1")
			f.clock.Advance(tt.elapsed)

			_, err := f.service.Submit(context.Background(), id, "user-1", &SubmitAttemptRequest{
				Responses: answers(f.test, 1, 0, 2, 0),
			})
			require.NoError(t, err)

			titles := f.store.achievementTitles("user-1")
			if tt.want {
				assert.Contains(t, titles, models.AchievementSpeedMaster)
			} else {
				assert.NotContains(t, titles, models.AchievementSpeedMaster)
			}
		})
	}
}
