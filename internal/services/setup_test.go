package services

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/config"
	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/cbt-service/internal/testutil"
	"github.com/SAP-F-2025/cbt-service/internal/validator"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	db    *gorm.DB
	repo  repositories.Repository
	pub   *events.MockEventPublisher
	clock *fakeClock
	log   *slog.Logger
	val   *validator.Validator
	grace time.Duration
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		db:    db,
		repo:  postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db}),
		pub:   events.NewMockEventPublisher(logger),
		clock: &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
		log:   logger,
		val:   validator.New(),
		grace: 2 * time.Minute,
	}
}

func (e *testEnv) attempts() AttemptService {
	return NewAttemptService(e.repo, e.db, e.log, e.val, e.pub, AttemptOptions{SubmitGrace: e.grace, Clock: e.clock.Now})
}

func (e *testEnv) exams() ExamService {
	return NewExamService(e.repo, e.db, e.log, e.val, e.pub)
}

func (e *testEnv) results() ResultService {
	return NewResultService(e.repo, e.db, e.log)
}

func (e *testEnv) imports() ImportService {
	return NewImportService(e.repo, e.db, e.log, e.val, e.pub)
}

func (e *testEnv) auth() AuthService {
	return NewAuthService(e.repo, e.db, e.log, e.val, e.pub, config.AuthConfig{
		TokenSecret:            "test-secret-0123456789",
		StudentTokenTTL:        time.Hour,
		AdminTokenTTL:          time.Hour,
		BootstrapAdminEmail:    "Head@School.test",
		BootstrapAdminPassword: "s3cret-pass",
		BootstrapAdminName:     "Head Teacher",
	}, config.CasdoorConfig{}, e.clock.Now)
}

// seedExam creates a published JSS1 exam holding n questions keyed A,
// scheduled an hour before the test clock.
func (e *testEnv) seedExam(t *testing.T, n int, mutate func(*models.Exam)) (*models.Exam, []*models.Question) {
	t.Helper()
	questions := testutil.SeedQuestions(t, e.db, "Mathematics", n)

	exam := &models.Exam{
		Title:                  "Mid-term Mathematics",
		ClassLevel:             "JSS1",
		DurationMinutes:        30,
		ScheduledAt:            testutil.TimePtr(e.clock.Now().Add(-time.Hour)),
		Published:              true,
		ShuffleOptions:         true,
		ShowResultsImmediately: true,
		AllowedAttempts:        1,
	}
	if mutate != nil {
		mutate(exam)
	}
	if err := e.db.Create(exam).Error; err != nil {
		t.Fatalf("seed exam: %v", err)
	}

	for i, q := range questions {
		eq := &models.ExamQuestion{ExamID: exam.ID, QuestionID: q.ID, Order: i + 1}
		if err := e.db.Create(eq).Error; err != nil {
			t.Fatalf("seed exam question: %v", err)
		}
	}
	return exam, questions
}

// answersFor answers the first `right` questions with A and the rest with B.
func answersFor(questions []*models.Question, right int) []models.SubmittedAnswer {
	out := make([]models.SubmittedAnswer, len(questions))
	for i, q := range questions {
		sel := "B"
		if i < right {
			sel = "A"
		}
		out[i] = models.SubmittedAnswer{QuestionID: q.ID, Selected: sel}
	}
	return out
}
