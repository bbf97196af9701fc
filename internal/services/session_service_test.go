package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/validator"
)

func TestSessionTermService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewSessionTermService(env.repo, env.db, env.log, env.val, env.pub)

	first, err := svc.Create(ctx, &models.SessionTermCreateRequest{Session: "2024/2025", Term: 1})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, &models.SessionTermCreateRequest{Session: "2024/2025", Term: 1}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate Create() error = %v", err)
	}
	var ve validator.ValidationErrors
	if _, err := svc.Create(ctx, &models.SessionTermCreateRequest{Session: "2024/2026", Term: 4}); !errors.As(err, &ve) || len(ve) != 2 {
		t.Errorf("invalid Create() error = %v", err)
	}
	second, _ := svc.Create(ctx, &models.SessionTermCreateRequest{Session: "2025/2026", Term: 2})

	if _, err := env.exams().Create(ctx, &models.ExamCreateRequest{
		Title: "Physics", ClassLevel: "SS1", DurationMinutes: 40, SessionTermID: &first.ID,
	}); err != nil {
		t.Fatal(err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ExamCount != 1 {
		t.Errorf("List() = %+v", list)
	}

	if err := svc.Delete(ctx, first.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("Delete() of used term error = %v", err)
	}
	if err := svc.Delete(ctx, second.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, second.ID); !errors.Is(err, ErrSessionTermNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestStudentService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewStudentService(env.repo, env.db, env.log, env.val, env.pub)

	req := &models.StudentCreateRequest{StudentID: "SWD-2024-001", FirstName: "Chidi", ClassLevel: "JSS2"}
	created, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, req); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate Create() error = %v", err)
	}
	var ve validator.ValidationErrors
	if _, err := svc.Create(ctx, &models.StudentCreateRequest{StudentID: "X", ClassLevel: "JSS2"}); !errors.As(err, &ve) {
		t.Errorf("invalid Create() error = %v", err)
	}

	got, err := svc.GetByStudentID(ctx, "SWD-2024-001")
	if err != nil || got.ID != created.ID {
		t.Errorf("GetByStudentID() = %+v, %v", got, err)
	}
	if _, err := svc.GetByID(ctx, 9999); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("GetByID(unknown) error = %v", err)
	}

	jss2 := "JSS2"
	list, total, err := svc.List(ctx, repositories.StudentFilters{ClassLevel: &jss2, Search: "chid"})
	if err != nil || total != 1 || len(list) != 1 {
		t.Errorf("List() = %d of %d, %v", len(list), total, err)
	}
}
