package services

import (
	"time"

	"github.com/SAP-F-2025/cbt-service/internal/models"
)

// CheckEligibility applies the start rules in order and returns the first
// failure. A nil or unpublished exam is reported as not found so that
// drafts are indistinguishable from missing exams.
func CheckEligibility(exam *models.Exam, student *models.Student, attemptCount int64, now time.Time) error {
	switch {
	case exam == nil || !exam.Published:
		return ErrExamNotFound
	case exam.ClassLevel != student.ClassLevel:
		return ErrExamNotVisible
	case !exam.IsScheduledBy(now):
		return ErrExamNotYetScheduled
	case attemptCount >= int64(exam.AllowedAttempts):
		return ErrAttemptsExhausted
	}
	return nil
}

// visibleToStudent is the scope in which a student may learn an exam exists.
func visibleToStudent(exam *models.Exam, student *models.Student) bool {
	return exam != nil && exam.Published && exam.ClassLevel == student.ClassLevel
}

// listedForStudent mirrors the student exam listing scope, which also
// hides exams without a schedule.
func listedForStudent(exam *models.Exam, student *models.Student, now time.Time) bool {
	return visibleToStudent(exam, student) &&
		exam.ScheduledAt != nil &&
		!exam.ScheduledAt.After(now)
}
