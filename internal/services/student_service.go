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

type studentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewStudentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) StudentService {
	return &studentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *studentService) Create(ctx context.Context, req *models.StudentCreateRequest) (*models.Student, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	student := &models.Student{
		StudentCode:   strings.TrimSpace(req.StudentID),
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      trimmed(req.LastName),
		ClassLevel:    strings.TrimSpace(req.ClassLevel),
		Section:       trimmed(req.Section),
		AdmissionNo:   trimmed(req.AdmissionNo),
		DateOfBirth:   req.DateOfBirth,
		ParentContact: trimmed(req.ParentContact),
		Email:         trimmed(req.Email),
	}
	if err := s.repo.Student().Create(ctx, nil, student); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, NewConflictError("student id %q is already registered", student.StudentCode)
		}
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.InfoContext(ctx, "Student created", "student_id", student.StudentCode, "class_level", student.ClassLevel)
	publishEvent(ctx, s.publisher, s.logger, events.StudentCreated, "student", student.StudentCode,
		map[string]interface{}{"class_level": student.ClassLevel})
	return student, nil
}

func (s *studentService) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	student, err := s.repo.Student().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapNotFound(err, ErrStudentNotFound)
	}
	return student, nil
}

func (s *studentService) GetByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.repo.Student().GetByStudentID(ctx, nil, strings.TrimSpace(studentID))
	if err != nil {
		return nil, mapNotFound(err, ErrStudentNotFound)
	}
	return student, nil
}

func (s *studentService) List(ctx context.Context, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	filters.Limit, filters.Offset = normalizePage(filters.Limit, filters.Offset)
	students, total, err := s.repo.Student().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list students: %w", err)
	}
	return students, total, nil
}
