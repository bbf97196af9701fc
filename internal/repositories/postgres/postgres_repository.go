package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/cache"
	"github.com/SAP-F-2025/cbt-service/internal/config"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/repositories/casdoor"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	question       repositories.QuestionRepository
	exam           repositories.ExamRepository
	examQuestion   repositories.ExamQuestionRepository
	attempt        repositories.AttemptRepository
	answer         repositories.AnswerRepository
	student        repositories.StudentRepository
	admin          repositories.AdminRepository
	sessionTerm    repositories.SessionTermRepository
	auditLog       repositories.AuditLogRepository
	adminDirectory repositories.AdminDirectory
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB            *gorm.DB
	RedisClient   *redis.Client
	CasdoorConfig config.CasdoorConfig
}

func NewPostgreSQLRepository(cfg RepositoryConfig) repositories.Repository {
	repo := &PostgreSQLRepository{
		db:           cfg.DB,
		redisClient:  cfg.RedisClient,
		cacheManager: cache.NewCacheManager(cfg.RedisClient),
	}

	repo.question = NewQuestionPostgreSQL(cfg.DB, cfg.RedisClient)
	repo.exam = NewExamPostgreSQL(cfg.DB, cfg.RedisClient)
	repo.examQuestion = NewExamQuestionPostgreSQL(cfg.DB, cfg.RedisClient)
	repo.attempt = NewAttemptPostgreSQL(cfg.DB)
	repo.answer = NewAnswerPostgreSQL(cfg.DB)
	repo.student = NewStudentPostgreSQL(cfg.DB)
	repo.admin = NewAdminPostgreSQL(cfg.DB)
	repo.sessionTerm = NewSessionTermPostgreSQL(cfg.DB)
	repo.auditLog = NewAuditLogPostgreSQL(cfg.DB)

	if cfg.CasdoorConfig.Enabled() {
		repo.adminDirectory = casdoor.NewAdminCasdoor(cfg.CasdoorConfig, cfg.RedisClient)
	}

	return repo
}

func (r *PostgreSQLRepository) Question() repositories.QuestionRepository { return r.question }

func (r *PostgreSQLRepository) Exam() repositories.ExamRepository { return r.exam }

func (r *PostgreSQLRepository) ExamQuestion() repositories.ExamQuestionRepository {
	return r.examQuestion
}

func (r *PostgreSQLRepository) Attempt() repositories.AttemptRepository { return r.attempt }

func (r *PostgreSQLRepository) Answer() repositories.AnswerRepository { return r.answer }

func (r *PostgreSQLRepository) Student() repositories.StudentRepository { return r.student }

func (r *PostgreSQLRepository) Admin() repositories.AdminRepository { return r.admin }

func (r *PostgreSQLRepository) SessionTerm() repositories.SessionTermRepository {
	return r.sessionTerm
}

func (r *PostgreSQLRepository) AuditLog() repositories.AuditLogRepository { return r.auditLog }

func (r *PostgreSQLRepository) AdminDirectory() repositories.AdminDirectory {
	return r.adminDirectory
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}
	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}
	return nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SessionTerm{},
		&models.Question{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.Student{},
		&models.Admin{},
		&models.Attempt{},
		&models.Answer{},
		&models.AuditLog{},
	)
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(cfg RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{config: cfg}
}

// Initialize verifies connections and builds the repository.
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
