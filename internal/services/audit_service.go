package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

type auditService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewAuditService(repo repositories.Repository, logger *slog.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) List(ctx context.Context, filters repositories.AuditLogFilters) ([]*models.AuditLog, error) {
	return s.repo.AuditLog().List(ctx, nil, filters)
}
