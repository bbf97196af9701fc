package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/models"
)

type SessionTermRepository interface {
	Create(ctx context.Context, tx *gorm.DB, sessionTerm *models.SessionTerm) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SessionTerm, error)
	// List fills ExamCount, session descending then term ascending.
	List(ctx context.Context, tx *gorm.DB) ([]*models.SessionTerm, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type AuditLogRepository interface {
	// Append ignores a second row with the same event id.
	Append(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error
	List(ctx context.Context, tx *gorm.DB, filters AuditLogFilters) ([]*models.AuditLog, error)
}
