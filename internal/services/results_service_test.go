package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

func submittedAttempt(t *testing.T, f *attemptFixture, userID string, selected ...int) uint {
	t.Helper()
	id := f.start(t, userID)
	_, err := f.service.Submit(context.Background(), id, userID, &SubmitAttemptRequest{
		Responses: answers(f.test, selected...),
	})
	require.NoError(t, err)
	return id
}

func TestResultsService_GetResults(t *testing.T) {
	f := newAttemptFixture(t)
	svc := NewResultsService(f.store, discardLogger())
	id := submittedAttempt(t, f, "user-1", 1, 0, 2, 0)

	results, err := svc.GetResults(context.Background(), id, "user-1")
	require.NoError(t, err)

	assert.Equal(t, id, results.TestAttempt.ID)
	require.Len(t, results.DetailedResults, 4)

	last := results.DetailedResults[3]
	assert.Equal(t, f.test.Questions[3].ID, last.QuestionID)
	assert.Equal(t, 0, *last.SelectedOption)
	assert.Equal(t, 3, last.CorrectAnswer)
	assert.False(t, last.IsCorrect)
	assert.Equal(t, models.SubjectReasoning, last.Subject)

	// Quant, English, Reasoning in order of first appearance
	assert.Equal(t, []SubjectPerformance{
		{Subject: models.SubjectQuant, Correct: 2, Total: 2, Percentage: "100.00"},
		{Subject: models.SubjectEnglish, Correct: 1, Total: 1, Percentage: "100.00"},
		{Subject: models.SubjectReasoning, Correct: 0, Total: 1, Percentage: "0.00"},
	}, results.SubjectPerformance)

	assert.Equal(t, []DifficultyPerformance{
		{Difficulty: models.DifficultyEasy, Correct: 2, Total: 2, Percentage: "100.00"},
		{Difficulty: models.DifficultyHard, Correct: 1, Total: 1, Percentage: "100.00"},
		{Difficulty: models.DifficultyMedium, Correct: 0, Total: 1, Percentage: "0.00"},
	}, results.DifficultyPerformance)
}

func TestResultsService_NotFound(t *testing.T) {
	f := newAttemptFixture(t)
	svc := NewResultsService(f.store, discardLogger())
	completed := submittedAttempt(t, f, "user-a", 1, 0, 2, 3)
	inProgress := f.start(t, "user-b")

	tests := []struct {
		name      string
		attemptID uint
		userID    string
	}{
		{name: "owned by another user", attemptID: completed, userID: "user-b"},
		{name: "missing attempt", attemptID: 999, userID: "user-a"},
		{name: "attempt still in progress", attemptID: inProgress, userID: "user-b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetResults(context.Background(), tt.attemptID, tt.userID)
			assert.ErrorIs(t, err, ErrResultsNotFound)
		})
	}
}

func TestBuildResults_SkipsUnknownQuestions(t *testing.T) {
	test := sampleTest(1, 600)
	attempt := &models.TestAttempt{
		Responses: []models.Response{
			{QuestionID: test.Questions[0].ID, SelectedOption: intPtr(1), IsCorrect: true},
			{QuestionID: 4242, SelectedOption: intPtr(0)},
		},
	}

	results := BuildResults(attempt, test)

	require.Len(t, results.DetailedResults, 1)
	assert.Equal(t, []SubjectPerformance{
		{Subject: models.SubjectQuant, Correct: 1, Total: 1, Percentage: "100.00"},
	}, results.SubjectPerformance)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		part, whole int
		want        string
	}{
		{part: 0, whole: 0, want: "0.00"},
		{part: 1, whole: 3, want: "33.33"},
		{part: 2, whole: 3, want: "66.67"},
		{part: 3, whole: 4, want: "75.00"},
		{part: 5, whole: 5, want: "100.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, percentage(tt.part, tt.whole), "%d/%d", tt.part, tt.whole)
	}
}
