package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) QuestionService {
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionService) Create(ctx context.Context, req *models.QuestionCreateRequest) (*models.Question, error) {
	s.logger.InfoContext(ctx, "Creating question", "subject", req.Subject)

	if err := s.validator.ValidateQuestion(req); err != nil {
		return nil, err
	}

	question := questionFromRequest(req)
	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.InfoContext(ctx, "Question created successfully", "question_id", question.ID)
	publishEvent(ctx, s.publisher, s.logger, events.QuestionCreated, "question", question.ID,
		map[string]interface{}{"subject": question.Subject})

	return question, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapNotFound(err, ErrQuestionNotFound)
	}
	return question, nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	filters.Limit, filters.Offset = normalizePage(filters.Limit, filters.Offset)
	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

// Update rewrites the question in place. Questions already answered in a
// submitted attempt are frozen so stored results keep their meaning.
func (s *questionService) Update(ctx context.Context, id uint, req *models.QuestionUpdateRequest) (*models.Question, error) {
	s.logger.InfoContext(ctx, "Updating question", "question_id", id)

	if err := s.validator.ValidateQuestion(req); err != nil {
		return nil, err
	}

	var question *models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.Question().GetByID(ctx, tx, id); err != nil {
			return mapNotFound(err, ErrQuestionNotFound)
		}

		referenced, err := s.repo.Question().IsReferenced(ctx, tx, id)
		if err != nil {
			return err
		}
		if referenced {
			return NewConflictError("question %d has recorded answers", id)
		}

		question = questionFromRequest(req)
		question.ID = id
		if err := s.repo.Question().Update(ctx, tx, question); err != nil {
			return mapNotFound(err, ErrQuestionNotFound)
		}
		question, err = s.repo.Question().GetByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.repo.Question().InvalidateCache(ctx, id)

	publishEvent(ctx, s.publisher, s.logger, events.QuestionUpdated, "question", id, nil)
	return question, nil
}

// questionFromRequest trims texts and maps the five option columns to the
// positional option list. Call only after validation.
func questionFromRequest(req *models.QuestionCreateRequest) *models.Question {
	label, _ := models.ParseOptionLabel(req.CorrectOption)
	return &models.Question{
		Text:          strings.TrimSpace(req.Text),
		Subject:       strings.TrimSpace(req.Subject),
		ClassLevel:    trimmed(req.ClassLevel),
		Term:          req.Term,
		Topic:         trimmed(req.Topic),
		Difficulty:    trimmed(req.Difficulty),
		Options:       models.NewOptions(req.OptionTexts()...),
		CorrectOption: label,
	}
}

// trimmed returns nil for a missing or blank value.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
