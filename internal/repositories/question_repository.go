package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/models"
)

// Every method takes an optional tx; nil means the repository's own handle.

type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error

	// IsReferenced reports whether any submitted answer points at the question.
	IsReferenced(ctx context.Context, tx *gorm.DB, id uint) (bool, error)

	// InvalidateCache drops cached copies of the question and every paper.
	// Call it after the writing transaction commits.
	InvalidateCache(ctx context.Context, id uint)
}

type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	// GetByIDForUpdate row-locks the exam until tx ends.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	SetPublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error

	// ListVisibleTo returns published exams for classLevel whose schedule
	// has been reached by now.
	ListVisibleTo(ctx context.Context, tx *gorm.DB, classLevel string, now time.Time) ([]*models.Exam, error)
	CountBySessionTerm(ctx context.Context, tx *gorm.DB, sessionTermID uint) (int64, error)
}

type ExamQuestionRepository interface {
	GetMaxOrder(ctx context.Context, tx *gorm.DB, examID uint) (int, error)
	Create(ctx context.Context, tx *gorm.DB, examQuestion *models.ExamQuestion) error
	CreateBatch(ctx context.Context, tx *gorm.DB, examQuestions []*models.ExamQuestion) error
	Remove(ctx context.Context, tx *gorm.DB, examID, questionID uint) error
	Exists(ctx context.Context, tx *gorm.DB, examID, questionID uint) (bool, error)

	// ListByExam returns entries with their questions, ordered by position.
	ListByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error)
	CountByExams(ctx context.Context, tx *gorm.DB, examIDs []uint) (map[uint]int64, error)

	// InvalidatePaper drops the cached paper. Call it after the writing
	// transaction commits, or a concurrent read can cache uncommitted rows.
	InvalidatePaper(ctx context.Context, examID uint)
}
