package services

import (
	"errors"

	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

// Domain errors. Ownership and lifecycle mismatches are reported as the
// matching not-found error, so another user's attempt looks like a missing one.
var (
	ErrTestNotFound    = errors.New("test not found")
	ErrExamNotFound    = errors.New("exam not found")
	ErrAttemptNotFound = errors.New("test attempt not found")
	ErrResultsNotFound = errors.New("test results not found")

	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
)

type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors
