// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/cbt-service/internal/models"
)

var dbSeq atomic.Int64

// NewTestDB opens a private in-memory SQLite database with the full schema.
// It holds a single connection, so transactions run one at a time.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:cbt_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.SessionTerm{},
		&models.Question{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.Student{},
		&models.Admin{},
		&models.Attempt{},
		&models.Answer{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func StrPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }

func BoolPtr(b bool) *bool { return &b }

func TimePtr(t time.Time) *time.Time { return &t }

// SeedQuestions inserts n four-option questions whose correct answer is A.
func SeedQuestions(t testing.TB, db *gorm.DB, subject string, n int) []*models.Question {
	t.Helper()
	out := make([]*models.Question, 0, n)
	for i := 1; i <= n; i++ {
		q := &models.Question{
			Text:          fmt.Sprintf("%s question %d", subject, i),
			Subject:       subject,
			Options:       models.NewOptions("right", "wrong 1", "wrong 2", "wrong 3"),
			CorrectOption: models.OptionA,
		}
		if err := db.Create(q).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
		out = append(out, q)
	}
	return out
}

func SeedStudent(t testing.TB, db *gorm.DB, studentID, classLevel string) *models.Student {
	t.Helper()
	s := &models.Student{StudentCode: studentID, FirstName: "Ada", ClassLevel: classLevel}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return s
}
