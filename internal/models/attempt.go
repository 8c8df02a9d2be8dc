package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AttemptMessageStarted   = "Test started successfully"
	AttemptMessageContinued = "Continuing existing test attempt"
)

// Response is one question's recorded selection inside an attempt.
type Response struct {
	QuestionID     uint `json:"questionId"`
	SelectedOption *int `json:"selectedOption"`
	IsCorrect      bool `json:"isCorrect"`
	TimeSpent      int  `json:"timeSpent"` // seconds
}

type TestAttempt struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;size:255;index;uniqueIndex:idx_test_attempts_active,where:is_completed = false"`
	TestID uint   `json:"test_id" gorm:"not null;index;uniqueIndex:idx_test_attempts_active,where:is_completed = false"`
	ExamID uint   `json:"exam_id" gorm:"not null;index"`

	// Timing
	StartTime time.Time  `json:"start_time" gorm:"not null"`
	EndTime   *time.Time `json:"end_time"`
	TimeSpent int        `json:"time_spent"` // seconds

	// Frozen at start, the denominator for score
	TotalQuestions int                       `json:"total_questions" gorm:"not null"`
	QuestionIDs    datatypes.JSONSlice[uint] `json:"question_ids" gorm:"type:jsonb"`

	Responses datatypes.JSONSlice[Response] `json:"responses" gorm:"type:jsonb"`

	// Scoring
	Score            float64 `json:"score" gorm:"default:0"`
	CorrectAnswers   int     `json:"correct_answers" gorm:"default:0"`
	IncorrectAnswers int     `json:"incorrect_answers" gorm:"default:0"`
	Accuracy         float64 `json:"accuracy" gorm:"default:0"`
	Percentile       float64 `json:"percentile" gorm:"default:0"`
	IsCompleted      bool    `json:"is_completed" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Test *Test `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Exam *Exam `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}

// NewTestAttempt builds an in-progress attempt with one empty response per question.
func NewTestAttempt(userID string, test *Test, now time.Time) *TestAttempt {
	responses := make([]Response, len(test.Questions))
	ids := make([]uint, len(test.Questions))
	for i, q := range test.Questions {
		responses[i] = Response{QuestionID: q.ID}
		ids[i] = q.ID
	}

	return &TestAttempt{
		UserID:         userID,
		TestID:         test.ID,
		ExamID:         test.ExamID,
		StartTime:      now,
		TotalQuestions: len(test.Questions),
		QuestionIDs:    ids,
		Responses:      responses,
	}
}

// QuestionsAtStart keeps only the questions the attempt was started with.
// Attempts created before QuestionIDs existed get every question back.
func (a *TestAttempt) QuestionsAtStart(questions []Question) []Question {
	if len(a.QuestionIDs) == 0 {
		return questions
	}

	started := make(map[uint]struct{}, len(a.QuestionIDs))
	for _, id := range a.QuestionIDs {
		started[id] = struct{}{}
	}

	kept := make([]Question, 0, len(a.QuestionIDs))
	for _, q := range questions {
		if _, ok := started[q.ID]; ok {
			kept = append(kept, q)
		}
	}
	return kept
}
