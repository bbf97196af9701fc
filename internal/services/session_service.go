package services

import (
	"context"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/validator"
)

type sessionTermService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewSessionTermService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) SessionTermService {
	return &sessionTermService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *sessionTermService) Create(ctx context.Context, req *models.SessionTermCreateRequest) (*models.SessionTerm, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	st := &models.SessionTerm{Session: strings.TrimSpace(req.Session), Term: req.Term}
	if err := s.repo.SessionTerm().Create(ctx, nil, st); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, NewConflictError("term %d of %s already exists", st.Term, st.Session)
		}
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.SessionTermCreated, "session_term", st.ID,
		map[string]interface{}{"session": st.Session, "term": st.Term})
	return st, nil
}

func (s *sessionTermService) List(ctx context.Context) ([]*models.SessionTerm, error) {
	return s.repo.SessionTerm().List(ctx, nil)
}

// Delete refuses while any exam still points at the term.
func (s *sessionTermService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.SessionTerm().GetByID(ctx, tx, id); err != nil {
			return mapNotFound(err, ErrSessionTermNotFound)
		}
		inUse, err := s.repo.Exam().CountBySessionTerm(ctx, tx, id)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return NewConflictError("session term %d is used by %d exams", id, inUse)
		}
		return mapNotFound(s.repo.SessionTerm().Delete(ctx, tx, id), ErrSessionTermNotFound)
	})
	if err != nil {
		return err
	}

	publishEvent(ctx, s.publisher, s.logger, events.SessionTermDeleted, "session_term", id, nil)
	return nil
}
