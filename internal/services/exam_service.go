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

type examService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewExamService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ExamService {
	return &examService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *examService) Create(ctx context.Context, req *models.ExamCreateRequest) (*models.Exam, error) {
	s.logger.InfoContext(ctx, "Creating exam", "title", req.Title, "class_level", req.ClassLevel)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam := &models.Exam{
		Title:                  strings.TrimSpace(req.Title),
		Description:            req.Description,
		ClassLevel:             strings.TrimSpace(req.ClassLevel),
		DurationMinutes:        req.DurationMinutes,
		ScheduledAt:            req.ScheduledAt,
		Published:              req.Published,
		RandomizeQuestionOrder: req.RandomizeQuestionOrder,
		ShuffleOptions:         boolOr(req.ShuffleOptions, true),
		NegativeMarking:        req.NegativeMarking,
		ShowResultsImmediately: boolOr(req.ShowResultsImmediately, true),
		PassMarkPercent:        req.PassMarkPercent,
		AllowedAttempts:        1,
		SessionTermID:          req.SessionTermID,
	}
	if req.AllowedAttempts != nil {
		exam.AllowedAttempts = *req.AllowedAttempts
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkSessionTerm(ctx, tx, exam.SessionTermID); err != nil {
			return err
		}
		return s.repo.Exam().Create(ctx, tx, exam)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Exam created successfully", "exam_id", exam.ID)
	publishEvent(ctx, s.publisher, s.logger, events.ExamCreated, "exam", exam.ID, map[string]interface{}{
		"title":       exam.Title,
		"class_level": exam.ClassLevel,
		"published":   exam.Published,
	})
	return exam, nil
}

func (s *examService) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapNotFound(err, ErrExamNotFound)
	}
	return exam, nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	filters.Limit, filters.Offset = normalizePage(filters.Limit, filters.Offset)
	exams, total, err := s.repo.Exam().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, total, nil
}

// Update applies only the fields present in req. Attempts already started
// keep the deadline they were given.
func (s *examService) Update(ctx context.Context, id uint, req *models.ExamUpdateRequest) (*models.Exam, error) {
	s.logger.InfoContext(ctx, "Updating exam", "exam_id", id)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var exam *models.Exam
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		exam, err = s.repo.Exam().GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return mapNotFound(err, ErrExamNotFound)
		}

		applyExamUpdate(exam, req)
		if req.SessionTermID != nil {
			if err := s.checkSessionTerm(ctx, tx, req.SessionTermID); err != nil {
				return err
			}
		}
		if err := s.repo.Exam().Update(ctx, tx, exam); err != nil {
			return mapNotFound(err, ErrExamNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.ExamUpdated, "exam", id, nil)
	return exam, nil
}

// SetPublished toggles visibility. Attempts in progress are unaffected and
// can still be submitted after an exam is unpublished.
func (s *examService) SetPublished(ctx context.Context, id uint, published bool) (*models.Exam, error) {
	var exam *models.Exam
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Exam().SetPublished(ctx, tx, id, published); err != nil {
			return mapNotFound(err, ErrExamNotFound)
		}
		var err error
		exam, err = s.repo.Exam().GetByID(ctx, tx, id)
		return mapNotFound(err, ErrExamNotFound)
	})
	if err != nil {
		return nil, err
	}

	eventType := events.ExamUnpublished
	if published {
		eventType = events.ExamPublished
	}
	s.logger.InfoContext(ctx, "Exam visibility changed", "exam_id", id, "published", published)
	publishEvent(ctx, s.publisher, s.logger, eventType, "exam", id, nil)
	return exam, nil
}

// ===== EXAM QUESTIONS =====

// AddQuestion appends the question after the current last position. The
// exam row lock keeps concurrent appends from taking the same position.
func (s *examService) AddQuestion(ctx context.Context, examID, questionID uint) (*models.ExamQuestion, error) {
	var entry *models.ExamQuestion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.Exam().GetByIDForUpdate(ctx, tx, examID); err != nil {
			return mapNotFound(err, ErrExamNotFound)
		}
		if _, err := s.repo.Question().GetByID(ctx, tx, questionID); err != nil {
			return mapNotFound(err, ErrQuestionNotFound)
		}

		exists, err := s.repo.ExamQuestion().Exists(ctx, tx, examID, questionID)
		if err != nil {
			return err
		}
		if exists {
			return NewConflictError("question %d is already in exam %d", questionID, examID)
		}

		maxOrder, err := s.repo.ExamQuestion().GetMaxOrder(ctx, tx, examID)
		if err != nil {
			return err
		}
		entry = &models.ExamQuestion{ExamID: examID, QuestionID: questionID, Order: maxOrder + 1}
		if err := s.repo.ExamQuestion().Create(ctx, tx, entry); err != nil {
			if repositories.IsDuplicateKeyError(err) {
				return NewConflictError("question %d is already in exam %d", questionID, examID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.repo.ExamQuestion().InvalidatePaper(ctx, examID)

	s.logger.InfoContext(ctx, "Question added to exam", "exam_id", examID, "question_id", questionID, "order", entry.Order)
	publishEvent(ctx, s.publisher, s.logger, events.ExamQuestionAdded, "exam", examID,
		map[string]interface{}{"question_id": questionID, "order": entry.Order})
	return entry, nil
}

// RemoveQuestion leaves a gap in the ordering; remaining entries keep their
// positions.
func (s *examService) RemoveQuestion(ctx context.Context, examID, questionID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.Exam().GetByIDForUpdate(ctx, tx, examID); err != nil {
			return mapNotFound(err, ErrExamNotFound)
		}
		if err := s.repo.ExamQuestion().Remove(ctx, tx, examID, questionID); err != nil {
			return mapNotFound(err, ErrQuestionNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.repo.ExamQuestion().InvalidatePaper(ctx, examID)

	publishEvent(ctx, s.publisher, s.logger, events.ExamQuestionRemoved, "exam", examID,
		map[string]interface{}{"question_id": questionID})
	return nil
}

func (s *examService) ListQuestions(ctx context.Context, examID uint) ([]*models.ExamQuestion, error) {
	if _, err := s.repo.Exam().GetByID(ctx, nil, examID); err != nil {
		return nil, mapNotFound(err, ErrExamNotFound)
	}
	return s.repo.ExamQuestion().ListByExam(ctx, nil, examID)
}

// ===== HELPERS =====

func (s *examService) checkSessionTerm(ctx context.Context, tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.repo.SessionTerm().GetByID(ctx, tx, *id); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewValidationError("session term %d does not exist", *id)
		}
		return err
	}
	return nil
}

func applyExamUpdate(exam *models.Exam, req *models.ExamUpdateRequest) {
	if req.Title != nil {
		exam.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		exam.Description = req.Description
	}
	if req.ClassLevel != nil {
		exam.ClassLevel = strings.TrimSpace(*req.ClassLevel)
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = *req.DurationMinutes
	}
	if req.ClearSchedule {
		exam.ScheduledAt = nil
	} else if req.ScheduledAt != nil {
		exam.ScheduledAt = req.ScheduledAt
	}
	if req.RandomizeQuestionOrder != nil {
		exam.RandomizeQuestionOrder = *req.RandomizeQuestionOrder
	}
	if req.ShuffleOptions != nil {
		exam.ShuffleOptions = *req.ShuffleOptions
	}
	if req.NegativeMarking != nil {
		exam.NegativeMarking = *req.NegativeMarking
	}
	if req.ShowResultsImmediately != nil {
		exam.ShowResultsImmediately = *req.ShowResultsImmediately
	}
	if req.ClearPassMark {
		exam.PassMarkPercent = nil
	} else if req.PassMarkPercent != nil {
		exam.PassMarkPercent = req.PassMarkPercent
	}
	if req.AllowedAttempts != nil {
		exam.AllowedAttempts = *req.AllowedAttempts
	}
	if req.SessionTermID != nil {
		exam.SessionTermID = req.SessionTermID
		exam.SessionTerm = nil
	}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
