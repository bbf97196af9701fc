package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/models"
)

type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)
	CountByStudentAndExam(ctx context.Context, tx *gorm.DB, studentID, examID uint) (int64, error)
	CountByStudentForExams(ctx context.Context, tx *gorm.DB, studentID uint, examIDs []uint) (map[uint]int64, error)

	// Finalize moves an IN_PROGRESS attempt to SUBMITTED in one conditional
	// update. It returns false when the attempt was not in progress.
	Finalize(ctx context.Context, tx *gorm.DB, id uint, outcome AttemptOutcome) (bool, error)

	// ListOverdue returns in-progress attempts whose deadline is before cutoff.
	ListOverdue(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*models.Attempt, error)

	// ListSubmitted preloads student and exam, newest submission first.
	ListSubmitted(ctx context.Context, tx *gorm.DB, filters ResultFilters) ([]*models.Attempt, int64, error)
	ListSubmittedByStudentAndExam(ctx context.Context, tx *gorm.DB, studentID, examID uint) ([]*models.Attempt, error)
	GetWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)
}

type AnswerRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error
	CountByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (int64, error)
}
