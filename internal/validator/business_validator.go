package validator

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const maxTimeSpentSeconds = 24 * 60 * 60

// registerBusinessRules registers custom business rule validators
func (v *Validator) registerBusinessRules() {
	// Elapsed time reported by clients, in seconds
	v.validate.RegisterValidation("seconds", func(fl validator.FieldLevel) bool {
		seconds := fl.Field().Int()
		return seconds >= 0 && seconds <= maxTimeSpentSeconds
	})

	v.validate.RegisterValidation("sort_order", func(fl validator.FieldLevel) bool {
		order := fl.Field().String()
		return order == "" || order == "asc" || order == "desc"
	})
}

// ValidateSubmission runs struct validation plus the rule that a question
// may be answered at most once per submission.
func (v *Validator) ValidateSubmission(req *SubmitAttemptRequest) error {
	var errs ValidationErrors
	if err := v.Validate(req); err != nil {
		errs = append(errs, ToValidationErrors(err)...)
	}
	errs = append(errs, duplicateQuestions(req.Responses)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateProgress applies the same duplicate rule to a progress checkpoint
func (v *Validator) ValidateProgress(req *SaveProgressRequest) error {
	var errs ValidationErrors
	if err := v.Validate(req); err != nil {
		errs = append(errs, ToValidationErrors(err)...)
	}
	errs = append(errs, duplicateQuestions(req.Responses)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateHistory also rejects a date range that ends before it starts
func (v *Validator) ValidateHistory(query *HistoryQuery) error {
	var errs ValidationErrors
	if err := v.Validate(query); err != nil {
		errs = append(errs, ToValidationErrors(err)...)
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		errs = append(errs, ValidationError{
			Field:   "to",
			Message: "must not be before from",
			Value:   query.To.Format(time.DateOnly),
			Rule:    "date_range",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func duplicateQuestions(responses []ResponseInput) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[uint]int, len(responses))
	for i, r := range responses {
		if first, ok := seen[r.QuestionID]; ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("responses[%d].questionId", i),
				Message: fmt.Sprintf("duplicates responses[%d]", first),
				Value:   r.QuestionID,
				Rule:    "unique_question",
			})
			continue
		}
		seen[r.QuestionID] = i
	}
	return errs
}
