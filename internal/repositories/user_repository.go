package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/models"
)

type StudentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, student *models.Student) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error)
	GetByStudentID(ctx context.Context, tx *gorm.DB, studentID string) (*models.Student, error)
	// GetByStudentIDForUpdate row-locks the student until tx ends. Attempt
	// creation serialises on this lock.
	GetByStudentIDForUpdate(ctx context.Context, tx *gorm.DB, studentID string) (*models.Student, error)
	List(ctx context.Context, tx *gorm.DB, filters StudentFilters) ([]*models.Student, int64, error)
}

type AdminRepository interface {
	Create(ctx context.Context, tx *gorm.DB, admin *models.Admin) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Admin, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Admin, error)
}

// AdminDirectory looks up admins held by the external identity provider.
type AdminDirectory interface {
	GetByID(ctx context.Context, id string) (*models.Principal, error)
}
