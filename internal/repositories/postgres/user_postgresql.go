package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

type StudentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db}
}

func (s *StudentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *StudentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	if err := s.getDB(tx).WithContext(ctx).Create(student).Error; err != nil {
		return wrapWriteError(err, "create student")
	}
	return nil
}

func (s *StudentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error) {
	var student models.Student
	if err := s.getDB(tx).WithContext(ctx).First(&student, id).Error; err != nil {
		return nil, wrapNotFound(err, "student", id)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByStudentID(ctx context.Context, tx *gorm.DB, studentID string) (*models.Student, error) {
	var student models.Student
	if err := s.getDB(tx).WithContext(ctx).
		Where("student_code = ?", strings.TrimSpace(studentID)).
		First(&student).Error; err != nil {
		return nil, wrapNotFound(err, "student", studentID)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByStudentIDForUpdate(ctx context.Context, tx *gorm.DB, studentID string) (*models.Student, error) {
	var student models.Student
	if err := forUpdate(s.getDB(tx).WithContext(ctx)).
		Where("student_code = ?", strings.TrimSpace(studentID)).
		First(&student).Error; err != nil {
		return nil, wrapNotFound(err, "student", studentID)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	query := s.getDB(tx).WithContext(ctx).Model(&models.Student{})

	if filters.ClassLevel != nil {
		query = query.Where("class_level = ?", *filters.ClassLevel)
	}
	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where(
			"LOWER(first_name) LIKE ? ESCAPE '\\' OR LOWER(last_name) LIKE ? ESCAPE '\\' OR LOWER(student_code) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count students: %w", err)
	}

	var students []*models.Student
	if err := applyPagination(query, filters.Limit, filters.Offset).
		Order("class_level ASC").
		Order("first_name ASC").
		Order("id ASC").
		Find(&students).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list students: %w", err)
	}
	return students, total, nil
}

type AdminPostgreSQL struct {
	db *gorm.DB
}

func NewAdminPostgreSQL(db *gorm.DB) repositories.AdminRepository {
	return &AdminPostgreSQL{db: db}
}

func (a *AdminPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AdminPostgreSQL) Create(ctx context.Context, tx *gorm.DB, admin *models.Admin) error {
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	if err := a.getDB(tx).WithContext(ctx).Create(admin).Error; err != nil {
		return wrapWriteError(err, "create admin")
	}
	return nil
}

func (a *AdminPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := a.getDB(tx).WithContext(ctx).First(&admin, id).Error; err != nil {
		return nil, wrapNotFound(err, "admin", id)
	}
	return &admin, nil
}

func (a *AdminPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Admin, error) {
	var admin models.Admin
	if err := a.getDB(tx).WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&admin).Error; err != nil {
		return nil, wrapNotFound(err, "admin", email)
	}
	return &admin, nil
}
