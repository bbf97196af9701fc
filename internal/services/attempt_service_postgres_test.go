//go:build postgres

package services

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/cbt-service/internal/testutil"
	"github.com/SAP-F-2025/cbt-service/internal/validator"
)

// newPostgresEnv connects to CBT_TEST_POSTGRES_DSN with a normal pool, so
// transactions overlap for real.
func newPostgresEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := os.Getenv("CBT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CBT_TEST_POSTGRES_DSN not set")
	}

	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { sqlDB.Close() })

	if err := postgres.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		db:    db,
		repo:  postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db}),
		pub:   events.NewMockEventPublisher(log),
		clock: &fakeClock{now: time.Now().UTC()},
		log:   log,
		val:   validator.New(),
		grace: 2 * time.Minute,
	}
}

func TestAttemptService_ConcurrentStartsRespectLimitPostgres(t *testing.T) {
	env := newPostgresEnv(t)
	code := fmt.Sprintf("PG-%d", time.Now().UnixNano())
	testutil.SeedStudent(t, env.db, code, "JSS1")
	concurrentStarts(t, env, code, 8)
}
