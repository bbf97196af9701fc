package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

// publishEvent stamps the caller from ctx and publishes after the write has
// committed. Failures are logged; they never undo the write.
func publishEvent(ctx context.Context, pub events.EventPublisher, logger *slog.Logger, eventType events.EventType, resource string, resourceID interface{}, data map[string]interface{}) {
	if pub == nil {
		return
	}
	event := events.NewEvent(eventType, events.ActorFromContext(ctx), resource, fmt.Sprint(resourceID), data)
	if err := pub.Publish(ctx, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event",
			"type", eventType,
			"resource", resource,
			"resource_id", resourceID,
			"error", err)
	}
}

// mapNotFound replaces a repository not-found with the service sentinel.
func mapNotFound(err error, notFound error) error {
	if repositories.IsNotFoundError(err) {
		return notFound
	}
	return err
}

// buildPaper turns ordered exam entries into a candidate paper. Question
// and option order are permuted with a generator seeded from the attempt
// id, so every fetch of the same attempt renders identically.
func buildPaper(attempt *models.Attempt, exam *models.Exam, entries []*models.ExamQuestion) *models.ExamPaper {
	questions := make([]models.PaperQuestion, 0, len(entries))
	for _, eq := range entries {
		if eq.Question == nil {
			continue
		}
		opts := make([]models.Option, len(eq.Question.Options))
		copy(opts, eq.Question.Options)

		if exam.ShuffleOptions {
			rng := seededRand(attempt.ID, uint64(eq.QuestionID))
			rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
		}
		questions = append(questions, models.PaperQuestion{
			ID:      eq.QuestionID,
			Text:    eq.Question.Text,
			Options: opts,
		})
	}

	if exam.RandomizeQuestionOrder {
		rng := seededRand(attempt.ID, 0)
		rng.Shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
	}

	return &models.ExamPaper{
		AttemptID:       attempt.ID,
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		StartedAt:       attempt.StartedAt,
		Deadline:        attempt.Deadline,
		Questions:       questions,
	}
}

func seededRand(attemptID uint, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(attemptID), stream^0x9e3779b97f4a7c15))
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
