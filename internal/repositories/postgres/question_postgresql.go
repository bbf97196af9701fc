package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/cache"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := q.getDB(tx).WithContext(ctx).Create(question).Error; err != nil {
		return wrapWriteError(err, "create question")
	}
	return nil
}

// CreateBatch inserts questions in chunks of 100.
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	if err := q.getDB(tx).WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return wrapWriteError(err, "create questions")
	}
	return nil
}

// GetByID reads through the cache outside transactions.
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	if tx != nil {
		return q.fetch(ctx, tx, id)
	}

	var question models.Question
	err := q.cacheManager.Question.CacheOrExecute(ctx, cache.QuestionKey(id), &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		return q.fetch(ctx, nil, id)
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) fetch(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.getDB(tx).WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, wrapNotFound(err, "question", id)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	query := q.getDB(tx).WithContext(ctx).Model(&models.Question{})

	if filters.Subject != nil {
		query = query.Where("subject = ?", *filters.Subject)
	}
	if filters.ClassLevel != nil {
		query = query.Where("class_level = ?", *filters.ClassLevel)
	}
	if filters.Term != nil {
		query = query.Where("term = ?", *filters.Term)
	}
	if filters.Topic != nil {
		query = query.Where("topic = ?", *filters.Topic)
	}
	if filters.Search != "" {
		query = query.Where("LOWER(text) LIKE ? ESCAPE '\\'", likePattern(filters.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	allowed := map[string]bool{"created_at": true, "subject": true, "id": true}
	var questions []*models.Question
	if err := applyPaginationAndSort(query, allowed, filters.SortBy, filters.SortOrder, "created_at", filters.Limit, filters.Offset).
		Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	result := q.getDB(tx).WithContext(ctx).
		Model(question).
		Select("text", "subject", "class_level", "term", "topic", "difficulty", "options", "correct_option", "updated_at").
		Updates(question)
	if result.Error != nil {
		return wrapWriteError(result.Error, "update question")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("question %d: %w", question.ID, repositories.ErrNotFound)
	}
	return nil
}

func (q *QuestionPostgreSQL) InvalidateCache(ctx context.Context, id uint) {
	cache.InvalidateQuestionCache(ctx, q.cacheManager, id)
}

func (q *QuestionPostgreSQL) IsReferenced(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := q.getDB(tx).WithContext(ctx).
		Model(&models.Answer{}).
		Where("question_id = ?", id).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check question references: %w", err)
	}
	return count > 0, nil
}
