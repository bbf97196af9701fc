package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/cache"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

type ExamPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	if err := e.getDB(tx).WithContext(ctx).Create(exam).Error; err != nil {
		return wrapWriteError(err, "create exam")
	}
	return nil
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.getDB(tx).WithContext(ctx).Preload("SessionTerm").First(&exam, id).Error; err != nil {
		return nil, wrapNotFound(err, "exam", id)
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := forUpdate(e.getDB(tx).WithContext(ctx)).First(&exam, id).Error; err != nil {
		return nil, wrapNotFound(err, "exam", id)
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	query := e.getDB(tx).WithContext(ctx).Model(&models.Exam{})

	if filters.ClassLevel != nil {
		query = query.Where("class_level = ?", *filters.ClassLevel)
	}
	if filters.Published != nil {
		query = query.Where("published = ?", *filters.Published)
	}
	if filters.SessionTermID != nil {
		query = query.Where("session_term_id = ?", *filters.SessionTermID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exams: %w", err)
	}

	allowed := map[string]bool{"created_at": true, "scheduled_at": true, "title": true, "id": true}
	var exams []*models.Exam
	if err := applyPaginationAndSort(query.Preload("SessionTerm"), allowed, filters.SortBy, filters.SortOrder, "created_at", filters.Limit, filters.Offset).
		Find(&exams).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, total, nil
}

// Update writes every editable column, including cleared schedule and pass
// mark.
func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	result := e.getDB(tx).WithContext(ctx).
		Model(exam).
		Select("title", "description", "class_level", "duration_minutes", "scheduled_at",
			"randomize_question_order", "shuffle_options", "negative_marking",
			"show_results_immediately", "pass_mark_percent", "allowed_attempts",
			"session_term_id", "updated_at").
		Updates(exam)
	if result.Error != nil {
		return wrapWriteError(result.Error, "update exam")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("exam %d: %w", exam.ID, repositories.ErrNotFound)
	}
	return nil
}

func (e *ExamPostgreSQL) SetPublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error {
	result := e.getDB(tx).WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"published": published, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("failed to set exam published: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("exam %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}

func (e *ExamPostgreSQL) ListVisibleTo(ctx context.Context, tx *gorm.DB, classLevel string, now time.Time) ([]*models.Exam, error) {
	var exams []*models.Exam
	if err := e.getDB(tx).WithContext(ctx).
		Where("published = ? AND class_level = ?", true, classLevel).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ?", now).
		Order("scheduled_at DESC").
		Order("id DESC").
		Find(&exams).Error; err != nil {
		return nil, fmt.Errorf("failed to list visible exams: %w", err)
	}
	return exams, nil
}

func (e *ExamPostgreSQL) CountBySessionTerm(ctx context.Context, tx *gorm.DB, sessionTermID uint) (int64, error) {
	var count int64
	if err := e.getDB(tx).WithContext(ctx).
		Model(&models.Exam{}).
		Where("session_term_id = ?", sessionTermID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count exams for session term: %w", err)
	}
	return count, nil
}
