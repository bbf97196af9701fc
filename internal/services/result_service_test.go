package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/testutil"
)

// submitted runs one attempt through start and submit, answering `right`
// questions correctly after `took`.
func submitted(t *testing.T, env *testEnv, studentID string, exam *models.Exam, questions []*models.Question, right int, took time.Duration) uint {
	t.Helper()
	ctx := context.Background()
	svc := env.attempts()
	paper, err := svc.Start(ctx, studentID, exam.ID, "")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	env.clock.Advance(took)
	if _, err := svc.Submit(ctx, studentID, paper.AttemptID, &models.SubmitAttemptRequest{Answers: answersFor(questions, right)}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return paper.AttemptID
}

func TestResultService_StudentResultVisibility(t *testing.T) {
	pass := 70.0
	tests := []struct {
		name       string
		showResult bool
		wantReview bool
	}{
		{name: "review shown immediately", showResult: true, wantReview: true},
		{name: "review withheld", showResult: false, wantReview: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
			exam, questions := env.seedExam(t, 4, func(e *models.Exam) {
				e.ShowResultsImmediately = tt.showResult
				e.PassMarkPercent = &pass
			})
			attemptID := submitted(t, env, "STU-001", exam, questions, 3, 10*time.Minute+40*time.Second)

			got, err := env.results().GetStudentResult(context.Background(), "STU-001", attemptID)
			if err != nil {
				t.Fatalf("GetStudentResult() error = %v", err)
			}
			if got.Summary.Score != 75 || got.Summary.CorrectAnswers != 3 || got.Summary.TotalQuestions != 4 {
				t.Errorf("summary = %+v", got.Summary)
			}
			if got.Summary.Passed == nil || !*got.Summary.Passed {
				t.Errorf("Passed = %v, want true", got.Summary.Passed)
			}
			if got.Summary.TimeTakenMin != 11 {
				t.Errorf("TimeTakenMin = %d, want 11", got.Summary.TimeTakenMin)
			}
			if got.ReviewAvailable != tt.wantReview || (len(got.Review) > 0) != tt.wantReview {
				t.Errorf("review available = %v with %d items", got.ReviewAvailable, len(got.Review))
			}
			if tt.wantReview {
				last := got.Review[3]
				if last.IsCorrect || last.SelectedOption != models.OptionB || last.CorrectOption != models.OptionA || last.Order != 4 {
					t.Errorf("last review item = %+v", last)
				}
			}
		})
	}
}

func TestResultService_StudentScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
	testutil.SeedStudent(t, env.db, "STU-002", "JSS1")
	exam, questions := env.seedExam(t, 2, func(e *models.Exam) { e.AllowedAttempts = 2 })
	first := submitted(t, env, "STU-001", exam, questions, 1, time.Minute)
	submitted(t, env, "STU-001", exam, questions, 2, time.Minute)

	if _, err := env.results().GetStudentResult(ctx, "STU-002", first); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("GetStudentResult() for another student error = %v", err)
	}

	list, err := env.results().ListStudentResults(ctx, "STU-001", exam.ID)
	if err != nil {
		t.Fatalf("ListStudentResults() error = %v", err)
	}
	if len(list.Attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(list.Attempts))
	}
	none, err := env.results().ListStudentResults(ctx, "STU-002", exam.ID)
	if err != nil || len(none.Attempts) != 0 {
		t.Errorf("other student's list = %+v, %v", none, err)
	}

	// An in-progress attempt has no result yet.
	testutil.SeedStudent(t, env.db, "STU-003", "JSS1")
	paper, err := env.attempts().Start(ctx, "STU-003", exam.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.results().GetStudentResult(ctx, "STU-003", paper.AttemptID); !errors.Is(err, ErrConflict) {
		t.Errorf("GetStudentResult() in progress error = %v", err)
	}
}

func TestResultService_AdminViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")
	testutil.SeedStudent(t, env.db, "STU-002", "JSS1")
	exam, questions := env.seedExam(t, 5, func(e *models.Exam) { e.ShowResultsImmediately = false })
	a1 := submitted(t, env, "STU-001", exam, questions, 5, time.Minute)
	submitted(t, env, "STU-002", exam, questions, 2, time.Minute)

	items, total, err := env.results().ListResults(ctx, repositories.ResultFilters{ExamID: &exam.ID})
	if err != nil {
		t.Fatalf("ListResults() error = %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("ListResults() = %d items of %d", len(items), total)
	}
	if items[0].Student.StudentID != "STU-002" {
		t.Errorf("newest submission should come first, got %s", items[0].Student.StudentID)
	}

	jss2 := "JSS2"
	_, total, _ = env.results().ListResults(ctx, repositories.ResultFilters{ClassLevel: &jss2})
	if total != 0 {
		t.Errorf("JSS2 results = %d, want 0", total)
	}

	detail, err := env.results().GetResult(ctx, a1)
	if err != nil {
		t.Fatalf("GetResult() error = %v", err)
	}
	// Admins always see the review.
	if len(detail.Review) != 5 || detail.Result.Score != 100 {
		t.Errorf("detail = %+v", detail)
	}
	if _, err := env.results().GetResult(ctx, 9999); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("GetResult(unknown) error = %v", err)
	}
}

func TestResultService_StudentResultsHideOutOfScopeExams(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "JSS1")

	draft, _ := env.seedExam(t, 2, func(e *models.Exam) {
		e.Title = "SS3 Secret Draft"
		e.ClassLevel = "SS3"
		e.Published = false
	})
	otherClass, _ := env.seedExam(t, 2, func(e *models.Exam) { e.ClassLevel = "JSS2" })
	sat, questions := env.seedExam(t, 2, nil)
	submitted(t, env, "STU-001", sat, questions, 2, time.Minute)
	if _, err := env.exams().SetPublished(ctx, sat.ID, false); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		examID  uint
		wantErr error
	}{
		{name: "draft of another class", examID: draft.ID, wantErr: ErrExamNotFound},
		{name: "published for another class", examID: otherClass.ID, wantErr: ErrExamNotFound},
		{name: "unknown exam", examID: 9999, wantErr: ErrExamNotFound},
		{name: "unpublished after sitting it", examID: sat.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.results().ListStudentResults(ctx, "STU-001", tt.examID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || got != nil {
					t.Errorf("ListStudentResults() = %+v, %v, want %v", got, err, tt.wantErr)
				}
				return
			}
			if err != nil || len(got.Attempts) != 1 {
				t.Errorf("ListStudentResults() = %+v, %v", got, err)
			}
		})
	}
}
