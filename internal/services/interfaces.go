package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

// Clock returns the current time. Services read time only through it.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }

// ===== QUESTION BANK =====

type QuestionService interface {
	Create(ctx context.Context, req *models.QuestionCreateRequest) (*models.Question, error)
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
	// Update fails with ErrConflict once any answer references the question.
	Update(ctx context.Context, id uint, req *models.QuestionUpdateRequest) (*models.Question, error)
}

// ImportService loads questions from .csv or .xlsx files.
type ImportService interface {
	// ImportQuestions commits every valid row. When some rows are rejected
	// the result is returned together with *ImportPartialFailure.
	ImportQuestions(ctx context.Context, examID *uint, filename string, data []byte) (*models.ImportResult, error)
	// Template returns an empty import file and its content type.
	Template(format string) ([]byte, string, error)
}

// ===== EXAMS =====

type ExamService interface {
	Create(ctx context.Context, req *models.ExamCreateRequest) (*models.Exam, error)
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error)
	Update(ctx context.Context, id uint, req *models.ExamUpdateRequest) (*models.Exam, error)
	SetPublished(ctx context.Context, id uint, published bool) (*models.Exam, error)

	AddQuestion(ctx context.Context, examID, questionID uint) (*models.ExamQuestion, error)
	RemoveQuestion(ctx context.Context, examID, questionID uint) error
	// ListQuestions includes answer keys and is for admins only.
	ListQuestions(ctx context.Context, examID uint) ([]*models.ExamQuestion, error)
}

// ===== ATTEMPTS =====

type AttemptService interface {
	ListAvailableExams(ctx context.Context, studentID string) ([]*models.StudentExamSummary, error)
	Start(ctx context.Context, studentID string, examID uint, ip string) (*models.ExamPaper, error)
	Resume(ctx context.Context, studentID string, attemptID uint) (*models.ExamPaper, error)
	Submit(ctx context.Context, studentID string, attemptID uint, req *models.SubmitAttemptRequest) (*models.SubmitResult, error)

	// ExpireOverdue closes every in-progress attempt past its deadline plus
	// grace and returns how many were closed.
	ExpireOverdue(ctx context.Context) (int, error)
	// RunSweeper calls ExpireOverdue every interval until ctx is done.
	RunSweeper(ctx context.Context, interval time.Duration)
}

// ===== RESULTS =====

type ResultService interface {
	ListResults(ctx context.Context, filters repositories.ResultFilters) ([]*models.AdminResultListItem, int64, error)
	GetResult(ctx context.Context, attemptID uint) (*models.AdminResultDetail, error)
	ListStudentResults(ctx context.Context, studentID string, examID uint) (*models.StudentExamResults, error)
	GetStudentResult(ctx context.Context, studentID string, attemptID uint) (*models.StudentAttemptResult, error)
}

// ===== PEOPLE =====

type StudentService interface {
	Create(ctx context.Context, req *models.StudentCreateRequest) (*models.Student, error)
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	GetByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	List(ctx context.Context, filters repositories.StudentFilters) ([]*models.Student, int64, error)
}

// StudentClaims identify the student behind a session token.
type StudentClaims struct {
	StudentID  string
	ClassLevel string
}

type AuthService interface {
	StudentLogin(ctx context.Context, req *models.StudentLoginRequest) (*models.LoginResponse, error)
	AdminLogin(ctx context.Context, req *models.AdminLoginRequest) (*models.LoginResponse, error)

	VerifyStudentToken(ctx context.Context, token string) (*StudentClaims, error)
	// VerifyAdminToken accepts local session tokens and, when configured,
	// Casdoor tokens.
	VerifyAdminToken(ctx context.Context, token string) (*models.Principal, error)

	EnsureBootstrapAdmin(ctx context.Context) error
}

// ===== SCHOOL CALENDAR AND AUDIT =====

type SessionTermService interface {
	Create(ctx context.Context, req *models.SessionTermCreateRequest) (*models.SessionTerm, error)
	List(ctx context.Context) ([]*models.SessionTerm, error)
	Delete(ctx context.Context, id uint) error
}

type AuditService interface {
	List(ctx context.Context, filters repositories.AuditLogFilters) ([]*models.AuditLog, error)
}

// ===== MANAGER =====

type ServiceManager interface {
	Initialize(ctx context.Context) error

	Question() QuestionService
	Import() ImportService
	Exam() ExamService
	Attempt() AttemptService
	Result() ResultService
	Student() StudentService
	Auth() AuthService
	SessionTerm() SessionTermService
	Audit() AuditService

	// HealthCheck pings the database and, when configured, Redis.
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
