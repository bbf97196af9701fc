package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

type SessionTermPostgreSQL struct {
	db *gorm.DB
}

func NewSessionTermPostgreSQL(db *gorm.DB) repositories.SessionTermRepository {
	return &SessionTermPostgreSQL{db: db}
}

func (s *SessionTermPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SessionTermPostgreSQL) Create(ctx context.Context, tx *gorm.DB, sessionTerm *models.SessionTerm) error {
	if err := s.getDB(tx).WithContext(ctx).Create(sessionTerm).Error; err != nil {
		return wrapWriteError(err, "create session term")
	}
	return nil
}

func (s *SessionTermPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SessionTerm, error) {
	var sessionTerm models.SessionTerm
	if err := s.getDB(tx).WithContext(ctx).First(&sessionTerm, id).Error; err != nil {
		return nil, wrapNotFound(err, "session term", id)
	}
	return &sessionTerm, nil
}

func (s *SessionTermPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.SessionTerm, error) {
	db := s.getDB(tx).WithContext(ctx)

	var sessionTerms []*models.SessionTerm
	if err := db.Order("session DESC").Order("term ASC").Find(&sessionTerms).Error; err != nil {
		return nil, fmt.Errorf("failed to list session terms: %w", err)
	}
	if len(sessionTerms) == 0 {
		return sessionTerms, nil
	}

	var rows []struct {
		SessionTermID uint
		Total         int64
	}
	if err := db.Model(&models.Exam{}).
		Select("session_term_id, COUNT(*) AS total").
		Where("session_term_id IS NOT NULL").
		Group("session_term_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count exams per session term: %w", err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.SessionTermID] = row.Total
	}
	for _, st := range sessionTerms {
		st.ExamCount = counts[st.ID]
	}
	return sessionTerms, nil
}

func (s *SessionTermPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := s.getDB(tx).WithContext(ctx).Delete(&models.SessionTerm{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete session term: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("session term %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}

type AuditLogPostgreSQL struct {
	db *gorm.DB
}

func NewAuditLogPostgreSQL(db *gorm.DB) repositories.AuditLogRepository {
	return &AuditLogPostgreSQL{db: db}
}

func (a *AuditLogPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AuditLogPostgreSQL) Append(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	if err := a.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

// List returns the newest entries first, at most 100.
func (a *AuditLogPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AuditLogFilters) ([]*models.AuditLog, error) {
	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := a.getDB(tx).WithContext(ctx).Model(&models.AuditLog{})
	if filters.ActorType != nil {
		query = query.Where("actor_type = ?", *filters.ActorType)
	}
	if filters.Action != nil {
		query = query.Where("action = ?", *filters.Action)
	}

	var entries []*models.AuditLog
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}
