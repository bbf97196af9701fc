package services

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/testutil"
)

func TestAttemptService_StartAndSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
	exam, questions := env.seedExam(t, 10, func(e *models.Exam) { e.NegativeMarking = true })
	svc := env.attempts()

	paper, err := svc.Start(ctx, "STU-001", exam.ID, "10.0.0.5")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(paper.Questions) != 10 {
		t.Fatalf("paper has %d questions, want 10", len(paper.Questions))
	}
	if want := env.clock.Now().Add(30 * time.Minute); !paper.Deadline.Equal(want) {
		t.Errorf("Deadline = %v, want %v", paper.Deadline, want)
	}
	for _, q := range paper.Questions {
		if len(q.Options) != 4 {
			t.Errorf("question %d has %d options", q.ID, len(q.Options))
		}
	}

	env.clock.Advance(12 * time.Minute)
	res, err := svc.Submit(ctx, "STU-001", paper.AttemptID, &models.SubmitAttemptRequest{Answers: answersFor(questions, 6)})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.Score != 60 || res.CorrectAnswers != 6 || res.TotalQuestions != 10 || res.MarkTotal != 5.0 {
		t.Errorf("Submit() = %+v, want 60%% 6/10 marks 5.0", res)
	}

	stored, err := env.repo.Attempt().GetByID(ctx, nil, paper.AttemptID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !stored.IsSubmitted() || stored.SubmittedAt == nil || stored.Score == nil || *stored.Score != 60 {
		t.Errorf("stored attempt = %+v", stored)
	}
	n, _ := env.repo.Answer().CountByAttempt(ctx, nil, paper.AttemptID)
	if n != 10 {
		t.Errorf("stored %d answers, want 10", n)
	}

	if got := len(env.pub.EventsOfType(events.AttemptStarted)); got != 1 {
		t.Errorf("attempt.started events = %d", got)
	}
	if got := len(env.pub.EventsOfType(events.AttemptSubmitted)); got != 1 {
		t.Errorf("attempt.submitted events = %d", got)
	}
}

func TestAttemptService_StartRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
	svc := env.attempts()

	open, _ := env.seedExam(t, 2, nil)
	otherClass, _ := env.seedExam(t, 2, func(e *models.Exam) { e.ClassLevel = "SS2" })
	later, _ := env.seedExam(t, 2, func(e *models.Exam) { e.ScheduledAt = testutil.TimePtr(env.clock.Now().Add(time.Hour)) })
	draft, _ := env.seedExam(t, 2, func(e *models.Exam) { e.Published = false })
	empty := &models.Exam{Title: "Empty", ClassLevel: "JSS1", DurationMinutes: 10, Published: true, ShuffleOptions: true, AllowedAttempts: 1}
	if err := env.db.Create(empty).Error; err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		student string
		examID  uint
		want    error
	}{
		{name: "unknown exam", student: "STU-001", examID: 9999, want: ErrNotFound},
		{name: "draft exam", student: "STU-001", examID: draft.ID, want: ErrNotFound},
		{name: "other class", student: "STU-001", examID: otherClass.ID, want: ErrExamNotVisible},
		{name: "not yet scheduled", student: "STU-001", examID: later.ID, want: ErrExamNotYetScheduled},
		{name: "no questions", student: "STU-001", examID: empty.ID, want: ErrMalformedExam},
		{name: "unknown student", student: "STU-404", examID: open.ID, want: ErrStudentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Start(ctx, tt.student, tt.examID, "")
			if !errors.Is(err, tt.want) {
				t.Errorf("Start() error = %v, want %v", err, tt.want)
			}
		})
	}

	var count int64
	env.db.Model(&models.Attempt{}).Count(&count)
	if count != 0 {
		t.Errorf("rejected starts created %d attempts", count)
	}
}

// On the single-connection SQLite test database the starts run one after
// another, so this checks the counting only. The row lock and the unique
// attempt number are exercised by the postgres-tagged variant.
func TestAttemptService_ConcurrentStartsRespectLimit(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
	concurrentStarts(t, env, "STU-001", 3)
}

// concurrentStarts races callers on an exam allowing two attempts and
// expects exactly two to start.
func concurrentStarts(t *testing.T, env *testEnv, studentCode string, callers int) {
	t.Helper()
	exam, _ := env.seedExam(t, 3, func(e *models.Exam) { e.AllowedAttempts = 2 })
	svc := env.attempts()

	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Start(context.Background(), studentCode, exam.ID, "")
		}(i)
	}
	wg.Wait()

	ok, exhausted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAttemptsExhausted):
			exhausted++
		default:
			t.Errorf("unexpected Start() error: %v", err)
		}
	}
	if ok != 2 || exhausted != callers-2 {
		t.Errorf("got %d started and %d exhausted, want 2 and %d", ok, exhausted, callers-2)
	}

	var numbers []int
	env.db.Model(&models.Attempt{}).Where("exam_id = ?", exam.ID).Order("attempt_number").Pluck("attempt_number", &numbers)
	if !reflect.DeepEqual(numbers, []int{1, 2}) {
		t.Errorf("attempt numbers = %v, want [1 2]", numbers)
	}
}

func TestAttemptService_SubmitTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
	exam, questions := env.seedExam(t, 4, nil)
	svc := env.attempts()

	paper, err := svc.Start(ctx, "STU-001", exam.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(ctx, "STU-001", paper.AttemptID, &models.SubmitAttemptRequest{Answers: answersFor(questions, 4)}); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}

	_, err = svc.Submit(ctx, "STU-001", paper.AttemptID, &models.SubmitAttemptRequest{Answers: answersFor(questions, 0)})
	if !errors.Is(err, ErrAttemptAlreadySubmitted) {
		t.Fatalf("second Submit() error = %v, want ErrAttemptAlreadySubmitted", err)
	}

	stored, _ := env.repo.Attempt().GetByID(ctx, nil, paper.AttemptID)
	if stored.Score == nil || *stored.Score != 100 {
		t.Errorf("score changed to %v", stored.Score)
	}
	n, _ := env.repo.Answer().CountByAttempt(ctx, nil, paper.AttemptID)
	if n != 4 {
		t.Errorf("answers = %d, want 4", n)
	}
}

func TestAttemptService_SubmitAfterUnpublish(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
	exam, questions := env.seedExam(t, 2, nil)
	svc := env.attempts()

	paper, err := svc.Start(ctx, "STU-001", exam.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.exams().SetPublished(ctx, exam.ID, false); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Submit(ctx, "STU-001", paper.AttemptID, &models.SubmitAttemptRequest{Answers: answersFor(questions, 1)})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.Score != 50 {
		t.Errorf("Score = %v, want 50", res.Score)
	}
}

func TestAttemptService_OtherStudentsAttempt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
	testutil.SeedStudent(t, env.db, "STU-002", "JSS1")
	exam, _ := env.seedExam(t, 2, nil)
	svc := env.attempts()

	paper, err := svc.Start(ctx, "STU-001", exam.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Resume(ctx, "STU-002", paper.AttemptID); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("Resume() by other student error = %v", err)
	}
	if _, err := svc.Submit(ctx, "STU-002", paper.AttemptID, &models.SubmitAttemptRequest{}); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("Submit() by other student error = %v", err)
	}
}

func TestAttemptService_ResumeRendersSamePaper(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
	exam, _ := env.seedExam(t, 8, func(e *models.Exam) { e.RandomizeQuestionOrder = true })
	svc := env.attempts()

	started, err := svc.Start(ctx, "STU-001", exam.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	env.clock.Advance(5 * time.Minute)
	resumed, err := svc.Resume(ctx, "STU-001", started.AttemptID)
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if !reflect.DeepEqual(started.Questions, resumed.Questions) {
		t.Error("resumed paper differs from started paper")
	}
	if !resumed.Deadline.Equal(started.Deadline) {
		t.Errorf("deadline moved from %v to %v", started.Deadline, resumed.Deadline)
	}
}

func TestAttemptService_LateSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
	exam, questions := env.seedExam(t, 3, nil)
	svc := env.attempts()

	paper, err := svc.Start(ctx, "STU-001", exam.ID, "")
	if err != nil {
		t.Fatal(err)
	}

	// Inside the grace window the submission still counts.
	env.clock.Advance(31 * time.Minute)
	if _, err := svc.Resume(ctx, "STU-001", paper.AttemptID); err != nil {
		t.Fatalf("Resume() within grace error = %v", err)
	}

	env.clock.Advance(2 * time.Minute)
	_, err = svc.Submit(ctx, "STU-001", paper.AttemptID, &models.SubmitAttemptRequest{Answers: answersFor(questions, 3)})
	if !errors.Is(err, ErrDeadlineExceeded) {
		t.Fatalf("Submit() error = %v, want ErrDeadlineExceeded", err)
	}

	stored, _ := env.repo.Attempt().GetByID(ctx, nil, paper.AttemptID)
	if !stored.IsSubmitted() || !stored.AutoSubmitted || stored.Score == nil || *stored.Score != 0 {
		t.Errorf("late attempt stored as %+v", stored)
	}
	if _, err := svc.Submit(ctx, "STU-001", paper.AttemptID, &models.SubmitAttemptRequest{}); !errors.Is(err, ErrAttemptAlreadySubmitted) {
		t.Errorf("Submit() after close error = %v", err)
	}
}

func TestAttemptService_ExpireOverdue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
	testutil.SeedStudent(t, env.db, "STU-002", "JSS1")
	exam, questions := env.seedExam(t, 3, nil)
	svc := env.attempts()

	first, err := svc.Start(ctx, "STU-001", exam.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	env.clock.Advance(20 * time.Minute)
	second, err := svc.Start(ctx, "STU-002", exam.ID, "")
	if err != nil {
		t.Fatal(err)
	}

	env.clock.Advance(15 * time.Minute)
	closed, err := svc.ExpireOverdue(ctx)
	if err != nil {
		t.Fatalf("ExpireOverdue() error = %v", err)
	}
	if closed != 1 {
		t.Fatalf("ExpireOverdue() closed %d, want 1", closed)
	}

	stored, _ := env.repo.Attempt().GetByID(ctx, nil, first.AttemptID)
	if !stored.AutoSubmitted || stored.TotalQuestions == nil || *stored.TotalQuestions != 3 {
		t.Errorf("expired attempt = %+v", stored)
	}
	evs := env.pub.EventsOfType(events.AttemptAutoSubmitted)
	if len(evs) != 1 || evs[0].Actor.Type != models.ActorSystem {
		t.Errorf("auto-submit events = %+v", evs)
	}

	if _, err := svc.Submit(ctx, "STU-002", second.AttemptID, &models.SubmitAttemptRequest{Answers: answersFor(questions, 2)}); err != nil {
		t.Errorf("Submit() of live attempt error = %v", err)
	}

	again, err := svc.ExpireOverdue(ctx)
	if err != nil || again != 0 {
		t.Errorf("second ExpireOverdue() = %d, %v", again, err)
	}
}

func TestAttemptService_ListAvailableExams(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
	open, _ := env.seedExam(t, 3, nil)
	env.seedExam(t, 3, func(e *models.Exam) { e.ClassLevel = "JSS2" })
	env.seedExam(t, 3, func(e *models.Exam) { e.ScheduledAt = nil })
	env.seedExam(t, 3, func(e *models.Exam) { e.ScheduledAt = testutil.TimePtr(env.clock.Now().Add(time.Hour)) })
	svc := env.attempts()

	if _, err := svc.Start(ctx, "STU-001", open.ID, ""); err != nil {
		t.Fatal(err)
	}

	list, err := svc.ListAvailableExams(ctx, "STU-001")
	if err != nil {
		t.Fatalf("ListAvailableExams() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("listed %d exams, want 1", len(list))
	}
	got := list[0]
	if got.ID != open.ID || got.QuestionCount != 3 || got.Attempts != 1 || got.MaxAttempts != 1 {
		t.Errorf("summary = %+v", got)
	}
}

func TestAttemptService_RunSweeperStops(t *testing.T) {
	env := newTestEnv(t)
	svc := env.attempts()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunSweeper did not return after cancel")
	}
}
