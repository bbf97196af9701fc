package repositories

import "context"

// Repository groups every store behind one process-wide handle.
type Repository interface {
	Question() QuestionRepository
	Exam() ExamRepository
	ExamQuestion() ExamQuestionRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository
	Student() StudentRepository
	Admin() AdminRepository
	SessionTerm() SessionTermRepository
	AuditLog() AuditLogRepository

	// AdminDirectory resolves externally managed admins. Nil when no
	// identity provider is configured.
	AdminDirectory() AdminDirectory

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns the repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
