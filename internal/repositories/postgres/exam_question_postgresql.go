package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/cbt-service/internal/cache"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

type ExamQuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewExamQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ExamQuestionRepository {
	return &ExamQuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (eq *ExamQuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return eq.db
}

// GetMaxOrder returns 0 for an exam with no questions. Callers hold the
// exam row lock so that max+1 stays unique.
func (eq *ExamQuestionPostgreSQL) GetMaxOrder(ctx context.Context, tx *gorm.DB, examID uint) (int, error) {
	var maxOrder int
	if err := eq.getDB(tx).WithContext(ctx).
		Model(&models.ExamQuestion{}).
		Where("exam_id = ?", examID).
		Select(`COALESCE(MAX("order"), 0)`).
		Scan(&maxOrder).Error; err != nil {
		return 0, fmt.Errorf("failed to get max order: %w", err)
	}
	return maxOrder, nil
}

func (eq *ExamQuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, examQuestion *models.ExamQuestion) error {
	if err := eq.getDB(tx).WithContext(ctx).Omit(clause.Associations).Create(examQuestion).Error; err != nil {
		return wrapWriteError(err, "add exam question")
	}
	return nil
}

func (eq *ExamQuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, examQuestions []*models.ExamQuestion) error {
	if len(examQuestions) == 0 {
		return nil
	}
	if err := eq.getDB(tx).WithContext(ctx).Omit(clause.Associations).CreateInBatches(examQuestions, 100).Error; err != nil {
		return wrapWriteError(err, "add exam questions")
	}
	return nil
}

// Remove deletes one entry. Positions of the remaining entries are kept.
func (eq *ExamQuestionPostgreSQL) Remove(ctx context.Context, tx *gorm.DB, examID, questionID uint) error {
	result := eq.getDB(tx).WithContext(ctx).
		Where("exam_id = ? AND question_id = ?", examID, questionID).
		Delete(&models.ExamQuestion{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove exam question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("question %d in exam %d: %w", questionID, examID, repositories.ErrNotFound)
	}
	return nil
}

func (eq *ExamQuestionPostgreSQL) InvalidatePaper(ctx context.Context, examID uint) {
	cache.InvalidateExamPaperCache(ctx, eq.cacheManager, examID)
}

func (eq *ExamQuestionPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, examID, questionID uint) (bool, error) {
	var count int64
	if err := eq.getDB(tx).WithContext(ctx).
		Model(&models.ExamQuestion{}).
		Where("exam_id = ? AND question_id = ?", examID, questionID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check exam question: %w", err)
	}
	return count > 0, nil
}

// ListByExam reads through the paper cache outside transactions.
func (eq *ExamQuestionPostgreSQL) ListByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error) {
	if tx != nil {
		return eq.fetchByExam(ctx, tx, examID)
	}

	var entries []*models.ExamQuestion
	err := eq.cacheManager.Exam.CacheOrExecute(ctx, cache.ExamPaperKey(examID), &entries, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		return eq.fetchByExam(ctx, nil, examID)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (eq *ExamQuestionPostgreSQL) fetchByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error) {
	var entries []*models.ExamQuestion
	if err := eq.getDB(tx).WithContext(ctx).
		Preload("Question").
		Where("exam_id = ?", examID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list exam questions: %w", err)
	}
	return entries, nil
}

func (eq *ExamQuestionPostgreSQL) CountByExams(ctx context.Context, tx *gorm.DB, examIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(examIDs))
	if len(examIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ExamID uint
		Total  int64
	}
	if err := eq.getDB(tx).WithContext(ctx).
		Model(&models.ExamQuestion{}).
		Select("exam_id, COUNT(*) AS total").
		Where("exam_id IN ?", examIDs).
		Group("exam_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count exam questions: %w", err)
	}
	for _, row := range rows {
		counts[row.ExamID] = row.Total
	}
	return counts, nil
}
