package validator

import (
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

// ResponseInput is one answer as sent by the client
type ResponseInput struct {
	QuestionID     uint `json:"questionId" validate:"required"`
	SelectedOption *int `json:"selectedOption" validate:"omitempty,min=0"`
	TimeSpent      int  `json:"timeSpent" validate:"seconds"`
}

// SaveProgressRequest checkpoints an in-progress attempt. Nil fields are left untouched.
type SaveProgressRequest struct {
	Responses            []ResponseInput `json:"responses" validate:"omitempty,dive"`
	CurrentQuestionIndex *int            `json:"currentQuestionIndex" validate:"omitempty,min=0"`
	TimeSpent            *int            `json:"timeSpent" validate:"omitempty,seconds"`
}

type SubmitAttemptRequest struct {
	Responses []ResponseInput `json:"responses" validate:"required,dive"`
}

// HistoryQuery pages through completed attempts. From and To are whole
// days; To includes the whole day.
type HistoryQuery struct {
	Page      int        `form:"page" json:"page" validate:"omitempty,min=1"`
	Limit     int        `form:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
	SortOrder string     `form:"sort" json:"sort" validate:"sort_order"`
	ExamID    *uint      `form:"examId" json:"examId" validate:"omitempty,min=1"`
	TestID    *uint      `form:"testId" json:"testId" validate:"omitempty,min=1"`
	From      *time.Time `form:"from" json:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" json:"to" time_format:"2006-01-02"`
}

// ExamQuery pages through the active exam catalog
type ExamQuery struct {
	Page  int `form:"page" json:"page" validate:"omitempty,min=1"`
	Limit int `form:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
}

type ExamSearchQuery struct {
	ExamQuery
	Q string `form:"q" json:"q" validate:"required,max=100"`
}

// ToResponses converts client input into stored responses. Correctness is
// never taken from the client.
func ToResponses(inputs []ResponseInput) []models.Response {
	if inputs == nil {
		return nil
	}

	responses := make([]models.Response, len(inputs))
	for i, in := range inputs {
		responses[i] = models.Response{
			QuestionID:     in.QuestionID,
			SelectedOption: in.SelectedOption,
			TimeSpent:      in.TimeSpent,
		}
	}
	return responses
}
