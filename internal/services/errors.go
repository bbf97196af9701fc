package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/cbt-service/internal/models"
)

// Common errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
)

// Exam and attempt errors
var (
	ErrExamNotVisible          = errors.New("exam not visible to student")
	ErrExamNotYetScheduled     = errors.New("exam has not started yet")
	ErrAttemptsExhausted       = errors.New("no attempts remaining")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrDeadlineExceeded        = errors.New("attempt deadline exceeded")
	ErrMalformedExam           = errors.New("exam has no questions")
)

// Entity not-found errors wrap ErrNotFound so callers can match either.
var (
	ErrExamNotFound        = fmt.Errorf("exam %w", ErrNotFound)
	ErrQuestionNotFound    = fmt.Errorf("question %w", ErrNotFound)
	ErrAttemptNotFound     = fmt.Errorf("attempt %w", ErrNotFound)
	ErrStudentNotFound     = fmt.Errorf("student %w", ErrNotFound)
	ErrSessionTermNotFound = fmt.Errorf("session term %w", ErrNotFound)
)

// ImportPartialFailure reports an import in which some rows were committed
// and others rejected.
type ImportPartialFailure struct {
	Result *models.ImportResult
}

func (e *ImportPartialFailure) Error() string {
	return fmt.Sprintf("import partially failed: %d committed, %d rejected", e.Result.Committed, len(e.Result.Errors))
}

func NewConflictError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

func NewValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidationFailed)
}
