package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

type foreignKey struct {
	Table string
	From  string
	To    string
}

func migratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func foreignKeys(t *testing.T, db *gorm.DB, table string) []foreignKey {
	t.Helper()
	var fks []foreignKey
	if err := db.Raw(fmt.Sprintf("PRAGMA foreign_key_list(%q)", table)).Scan(&fks).Error; err != nil {
		t.Fatalf("foreign keys of %s: %v", table, err)
	}
	return fks
}

func TestMigrate_ForeignKeys(t *testing.T) {
	db := migratedDB(t)

	tests := []struct {
		table string
		want  []foreignKey
	}{
		{table: "attempts", want: []foreignKey{
			{Table: "exams", From: "exam_id", To: "id"},
			{Table: "students", From: "student_id", To: "id"},
		}},
		{table: "answers", want: []foreignKey{
			{Table: "attempts", From: "attempt_id", To: "id"},
			{Table: "questions", From: "question_id", To: "id"},
		}},
		{table: "exam_questions", want: []foreignKey{
			{Table: "exams", From: "exam_id", To: "id"},
			{Table: "questions", From: "question_id", To: "id"},
		}},
		{table: "students"},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			got := foreignKeys(t, db, tt.table)
			if len(got) != len(tt.want) {
				t.Fatalf("foreign keys = %+v, want %+v", got, tt.want)
			}
			for _, w := range tt.want {
				found := false
				for _, g := range got {
					if g == w {
						found = true
					}
				}
				if !found {
					t.Errorf("missing %s.%s -> %s.%s in %+v", tt.table, w.From, w.Table, w.To, got)
				}
			}
		})
	}
}

func TestAttemptPostgreSQL_LoadsStudent(t *testing.T) {
	db := migratedDB(t)
	ctx := context.Background()
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db})

	student := &models.Student{StudentCode: "STU-001", FirstName: "Ada", ClassLevel: "JSS1"}
	if err := repo.Student().Create(ctx, nil, student); err != nil {
		t.Fatalf("create student: %v", err)
	}
	exam := &models.Exam{Title: "Mathematics", ClassLevel: "JSS1", DurationMinutes: 30, Published: true, AllowedAttempts: 1}
	if err := repo.Exam().Create(ctx, nil, exam); err != nil {
		t.Fatalf("create exam: %v", err)
	}

	now := time.Now().UTC()
	attempt := &models.Attempt{
		ExamID:        exam.ID,
		StudentID:     student.ID,
		AttemptNumber: 1,
		Status:        models.AttemptInProgress,
		StartedAt:     now,
		Deadline:      now.Add(exam.Duration()),
	}
	if err := repo.Attempt().Create(ctx, nil, attempt); err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	if _, err := repo.Attempt().Finalize(ctx, nil, attempt.ID, repositories.AttemptOutcome{SubmittedAt: now, Score: 50, TotalQuestions: 2}); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	loaded, err := repo.Attempt().GetWithDetails(ctx, nil, attempt.ID)
	if err != nil {
		t.Fatalf("GetWithDetails() error = %v", err)
	}
	if loaded.Student == nil || loaded.Student.StudentCode != "STU-001" || loaded.Exam == nil {
		t.Errorf("GetWithDetails() student = %+v, exam = %+v", loaded.Student, loaded.Exam)
	}

	list, total, err := repo.Attempt().ListSubmitted(ctx, nil, repositories.ResultFilters{ExamID: &exam.ID, Limit: 10})
	if err != nil {
		t.Fatalf("ListSubmitted() error = %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].Student == nil || list[0].Student.ID != student.ID {
		t.Errorf("ListSubmitted() = %d rows of %d", len(list), total)
	}

	orphan := &models.Attempt{ExamID: exam.ID, StudentID: student.ID + 100, AttemptNumber: 1, StartedAt: now, Deadline: now}
	if err := repo.Attempt().Create(ctx, nil, orphan); err == nil {
		t.Error("attempt for a missing student was stored")
	}
}
