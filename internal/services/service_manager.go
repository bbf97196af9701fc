package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/config"
	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	Auth    config.AuthConfig
	Casdoor config.CasdoorConfig
	Exam    config.ExamConfig

	// Clock defaults to SystemClock.
	Clock Clock
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	config    ServiceManagerConfig

	// Service instances
	questionService    QuestionService
	importService      ImportService
	examService        ExamService
	attemptService     AttemptService
	resultService      ResultService
	studentService     StudentService
	authService        AuthService
	sessionTermService SessionTermService
	auditService       AuditService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, config ServiceManagerConfig) ServiceManager {
	if config.Clock == nil {
		config.Clock = SystemClock
	}
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		config:    config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	sm.logger.Info("Initializing service manager")

	sm.questionService = NewQuestionService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.importService = NewImportService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.examService = NewExamService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.attemptService = NewAttemptService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher, AttemptOptions{
		SubmitGrace: sm.config.Exam.SubmitGrace,
		Clock:       sm.config.Clock,
	})
	sm.resultService = NewResultService(sm.repo, sm.db, sm.logger)
	sm.studentService = NewStudentService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.authService = NewAuthService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher, sm.config.Auth, sm.config.Casdoor, sm.config.Clock)
	sm.sessionTermService = NewSessionTermService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.auditService = NewAuditService(sm.repo, sm.logger)

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")
	return nil
}

// Service getters

func (sm *serviceManager) Question() QuestionService {
	sm.mustBeReady()
	return sm.questionService
}

func (sm *serviceManager) Import() ImportService {
	sm.mustBeReady()
	return sm.importService
}

func (sm *serviceManager) Exam() ExamService {
	sm.mustBeReady()
	return sm.examService
}

func (sm *serviceManager) Attempt() AttemptService {
	sm.mustBeReady()
	return sm.attemptService
}

func (sm *serviceManager) Result() ResultService {
	sm.mustBeReady()
	return sm.resultService
}

func (sm *serviceManager) Student() StudentService {
	sm.mustBeReady()
	return sm.studentService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mustBeReady()
	return sm.authService
}

func (sm *serviceManager) SessionTerm() SessionTermService {
	sm.mustBeReady()
	return sm.sessionTermService
}

func (sm *serviceManager) Audit() AuditService {
	sm.mustBeReady()
	return sm.auditService
}

func (sm *serviceManager) mustBeReady() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Health and lifecycle

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	return sm.repo.Ping(ctx)
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")
	return nil
}
