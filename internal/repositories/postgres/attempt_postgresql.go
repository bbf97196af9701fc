package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	if err := a.getDB(tx).WithContext(ctx).Omit(clause.Associations).Create(attempt).Error; err != nil {
		return wrapWriteError(err, "create attempt")
	}
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := a.getDB(tx).WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, wrapNotFound(err, "attempt", id)
	}
	return &attempt, nil
}

// CountByStudentAndExam counts attempts in any status.
func (a *AttemptPostgreSQL) CountByStudentAndExam(ctx context.Context, tx *gorm.DB, studentID, examID uint) (int64, error) {
	var count int64
	if err := a.getDB(tx).WithContext(ctx).
		Model(&models.Attempt{}).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}

func (a *AttemptPostgreSQL) CountByStudentForExams(ctx context.Context, tx *gorm.DB, studentID uint, examIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(examIDs))
	if len(examIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ExamID uint
		Total  int64
	}
	if err := a.getDB(tx).WithContext(ctx).
		Model(&models.Attempt{}).
		Select("exam_id, COUNT(*) AS total").
		Where("student_id = ? AND exam_id IN ?", studentID, examIDs).
		Group("exam_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count attempts per exam: %w", err)
	}
	for _, row := range rows {
		counts[row.ExamID] = row.Total
	}
	return counts, nil
}

func (a *AttemptPostgreSQL) Finalize(ctx context.Context, tx *gorm.DB, id uint, outcome repositories.AttemptOutcome) (bool, error) {
	result := a.getDB(tx).WithContext(ctx).
		Model(&models.Attempt{}).
		Where("id = ? AND status = ?", id, models.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":          models.AttemptSubmitted,
			"submitted_at":    outcome.SubmittedAt,
			"auto_submitted":  outcome.AutoSubmitted,
			"score":           outcome.Score,
			"correct_count":   outcome.CorrectCount,
			"total_questions": outcome.TotalQuestions,
			"mark_total":      outcome.MarkTotal,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to finalize attempt: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (a *AttemptPostgreSQL) ListOverdue(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*models.Attempt, error) {
	if limit <= 0 {
		limit = 100
	}
	var attempts []*models.Attempt
	if err := a.getDB(tx).WithContext(ctx).
		Where("status = ? AND deadline < ?", models.AttemptInProgress, cutoff).
		Order("deadline ASC").
		Limit(limit).
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to list overdue attempts: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) ListSubmitted(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.Attempt, int64, error) {
	query := a.getDB(tx).WithContext(ctx).
		Model(&models.Attempt{}).
		Where("attempts.status = ?", models.AttemptSubmitted)

	if filters.ExamID != nil {
		query = query.Where("attempts.exam_id = ?", *filters.ExamID)
	}
	if filters.StudentID != nil {
		query = query.Where("attempts.student_id = ?", *filters.StudentID)
	}
	if filters.ClassLevel != nil {
		query = query.Joins("JOIN students ON students.id = attempts.student_id").
			Where("students.class_level = ?", *filters.ClassLevel)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count results: %w", err)
	}

	var attempts []*models.Attempt
	if err := applyPagination(query, filters.Limit, filters.Offset).
		Preload("Student").
		Preload("Exam").
		Order("attempts.submitted_at DESC").
		Order("attempts.id DESC").
		Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list results: %w", err)
	}
	return attempts, total, nil
}

func (a *AttemptPostgreSQL) ListSubmittedByStudentAndExam(ctx context.Context, tx *gorm.DB, studentID, examID uint) ([]*models.Attempt, error) {
	var attempts []*models.Attempt
	if err := a.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND exam_id = ? AND status = ?", studentID, examID, models.AttemptSubmitted).
		Order("attempt_number ASC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to list student results: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) GetWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := a.getDB(tx).WithContext(ctx).
		Preload("Student").
		Preload("Exam").
		Preload("Answers").
		First(&attempt, id).Error; err != nil {
		return nil, wrapNotFound(err, "attempt", id)
	}
	return &attempt, nil
}

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AnswerPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	if err := a.getDB(tx).WithContext(ctx).Omit(clause.Associations).CreateInBatches(answers, 100).Error; err != nil {
		return wrapWriteError(err, "save answers")
	}
	return nil
}

func (a *AnswerPostgreSQL) CountByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (int64, error) {
	var count int64
	if err := a.getDB(tx).WithContext(ctx).
		Model(&models.Answer{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return count, nil
}
