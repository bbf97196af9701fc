package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/validator"
)

const overdueBatchSize = 100

type AttemptOptions struct {
	// SubmitGrace is added to the deadline before a submission is refused.
	SubmitGrace time.Duration
	Clock       Clock
}

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	grace     time.Duration
	now       Clock
}

func NewAttemptService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, opts AttemptOptions) AttemptService {
	now := opts.Clock
	if now == nil {
		now = SystemClock
	}
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		grace:     opts.SubmitGrace,
		now:       now,
	}
}

func (s *attemptService) ListAvailableExams(ctx context.Context, studentID string) ([]*models.StudentExamSummary, error) {
	student, err := s.repo.Student().GetByStudentID(ctx, nil, studentID)
	if err != nil {
		return nil, mapNotFound(err, ErrStudentNotFound)
	}

	now := s.now()
	exams, err := s.repo.Exam().ListVisibleTo(ctx, nil, student.ClassLevel, now)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(exams))
	for _, e := range exams {
		if listedForStudent(e, student, now) {
			ids = append(ids, e.ID)
		}
	}
	questionCounts, err := s.repo.ExamQuestion().CountByExams(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	attemptCounts, err := s.repo.Attempt().CountByStudentForExams(ctx, nil, student.ID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*models.StudentExamSummary, 0, len(ids))
	for _, e := range exams {
		if !listedForStudent(e, student, now) {
			continue
		}
		out = append(out, &models.StudentExamSummary{
			ID:              e.ID,
			Title:           e.Title,
			Description:     e.Description,
			DurationMinutes: e.DurationMinutes,
			QuestionCount:   questionCounts[e.ID],
			PassMarkPercent: e.PassMarkPercent,
			ScheduledAt:     e.ScheduledAt,
			Attempts:        attemptCounts[e.ID],
			MaxAttempts:     e.AllowedAttempts,
		})
	}
	return out, nil
}

// Start runs the eligibility checks and inserts the attempt in one
// transaction holding the student's row lock, so concurrent starts by the
// same student are counted one after another.
func (s *attemptService) Start(ctx context.Context, studentID string, examID uint, ip string) (*models.ExamPaper, error) {
	s.logger.InfoContext(ctx, "Starting exam attempt", "exam_id", examID, "student_id", studentID)

	var (
		attempt *models.Attempt
		exam    *models.Exam
		entries []*models.ExamQuestion
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		student, err := s.repo.Student().GetByStudentIDForUpdate(ctx, tx, studentID)
		if err != nil {
			return mapNotFound(err, ErrStudentNotFound)
		}

		exam, err = s.repo.Exam().GetByID(ctx, tx, examID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return err
		}
		if exam == nil || !exam.Published {
			return ErrExamNotFound
		}

		count, err := s.repo.Attempt().CountByStudentAndExam(ctx, tx, student.ID, examID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := CheckEligibility(exam, student, count, now); err != nil {
			return err
		}

		entries, err = s.repo.ExamQuestion().ListByExam(ctx, tx, examID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return ErrMalformedExam
		}

		attempt = &models.Attempt{
			ExamID:        examID,
			StudentID:     student.ID,
			AttemptNumber: int(count) + 1,
			Status:        models.AttemptInProgress,
			StartedAt:     now,
			Deadline:      now.Add(exam.Duration()),
		}
		if ip != "" {
			attempt.IPAddress = &ip
		}
		if err := s.repo.Attempt().Create(ctx, tx, attempt); err != nil {
			if repositories.IsDuplicateKeyError(err) {
				return NewConflictError("attempt %d already started", count+1)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Exam attempt started",
		"attempt_id", attempt.ID,
		"exam_id", examID,
		"attempt_number", attempt.AttemptNumber,
		"deadline", attempt.Deadline)
	publishEvent(ctx, s.publisher, s.logger, events.AttemptStarted, "attempt", attempt.ID, map[string]interface{}{
		"exam_id":        examID,
		"attempt_number": attempt.AttemptNumber,
	})

	return buildPaper(attempt, exam, entries), nil
}

func (s *attemptService) Resume(ctx context.Context, studentID string, attemptID uint) (*models.ExamPaper, error) {
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsSubmitted() {
		return nil, ErrAttemptAlreadySubmitted
	}
	if attempt.Overdue(s.now(), s.grace) {
		if _, err := s.expire(ctx, attempt.ID); err != nil {
			return nil, err
		}
		return nil, ErrDeadlineExceeded
	}

	exam, err := s.repo.Exam().GetByID(ctx, nil, attempt.ExamID)
	if err != nil {
		return nil, mapNotFound(err, ErrExamNotFound)
	}
	entries, err := s.repo.ExamQuestion().ListByExam(ctx, nil, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	return buildPaper(attempt, exam, entries), nil
}

// Submit scores and closes an attempt. The move out of IN_PROGRESS is a
// single conditional update, so of two concurrent submits exactly one
// writes answers and the other gets ErrAttemptAlreadySubmitted.
func (s *attemptService) Submit(ctx context.Context, studentID string, attemptID uint, req *models.SubmitAttemptRequest) (*models.SubmitResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsSubmitted() {
		return nil, ErrAttemptAlreadySubmitted
	}

	now := s.now()
	if attempt.Overdue(now, s.grace) {
		s.logger.WarnContext(ctx, "Late submission discarded",
			"attempt_id", attemptID,
			"deadline", attempt.Deadline,
			"received_at", now)
		if _, err := s.expire(ctx, attemptID); err != nil {
			return nil, err
		}
		return nil, ErrDeadlineExceeded
	}

	var (
		exam  *models.Exam
		score *ScoreResult
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exam, err = s.repo.Exam().GetByID(ctx, tx, attempt.ExamID)
		if err != nil {
			return mapNotFound(err, ErrExamNotFound)
		}
		entries, err := s.repo.ExamQuestion().ListByExam(ctx, tx, attempt.ExamID)
		if err != nil {
			return err
		}
		score, err = Score(entries, req.Answers, exam.NegativeMarking)
		if err != nil {
			return err
		}

		ok, err := s.repo.Attempt().Finalize(ctx, tx, attemptID, repositories.AttemptOutcome{
			SubmittedAt:    now,
			AutoSubmitted:  req.AutoSubmitted,
			Score:          score.Percentage,
			CorrectCount:   score.CorrectCount,
			TotalQuestions: score.TotalQuestions,
			MarkTotal:      score.MarkTotal,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrAttemptAlreadySubmitted
		}

		for _, a := range score.Answers {
			a.AttemptID = attemptID
		}
		return s.repo.Answer().CreateBatch(ctx, tx, score.Answers)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Exam attempt submitted",
		"attempt_id", attemptID,
		"score", score.Percentage,
		"correct", score.CorrectCount,
		"total", score.TotalQuestions,
		"auto_submitted", req.AutoSubmitted)
	publishEvent(ctx, s.publisher, s.logger, events.AttemptSubmitted, "attempt", attemptID, map[string]interface{}{
		"exam_id":        attempt.ExamID,
		"score":          score.Percentage,
		"auto_submitted": req.AutoSubmitted,
	})

	return &models.SubmitResult{
		AttemptID:      attemptID,
		Score:          score.Percentage,
		CorrectAnswers: score.CorrectCount,
		TotalQuestions: score.TotalQuestions,
		MarkTotal:      score.MarkTotal,
		Passed:         Passed(score.Percentage, exam.PassMarkPercent),
		AutoSubmitted:  req.AutoSubmitted,
		SubmittedAt:    now,
	}, nil
}

func (s *attemptService) ExpireOverdue(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.grace)
	closed := 0

	for {
		overdue, err := s.repo.Attempt().ListOverdue(ctx, nil, cutoff, overdueBatchSize)
		if err != nil {
			return closed, err
		}
		progressed := false
		for _, a := range overdue {
			ok, err := s.expire(ctx, a.ID)
			if err != nil {
				return closed, err
			}
			if ok {
				closed++
				progressed = true
			}
		}
		if len(overdue) < overdueBatchSize || !progressed {
			break
		}
	}

	if closed > 0 {
		s.logger.InfoContext(ctx, "Closed overdue attempts", "count", closed)
	}
	return closed, nil
}

func (s *attemptService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ExpireOverdue(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.ErrorContext(ctx, "Overdue sweep failed", "error", err)
			}
		}
	}
}

// expire closes an attempt as auto-submitted with no answers. It reports
// false when the attempt was already closed by someone else.
func (s *attemptService) expire(ctx context.Context, attemptID uint) (bool, error) {
	var (
		closed bool
		examID uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := s.repo.Attempt().GetByID(ctx, tx, attemptID)
		if err != nil {
			return mapNotFound(err, ErrAttemptNotFound)
		}
		examID = attempt.ExamID

		entries, err := s.repo.ExamQuestion().ListByExam(ctx, tx, attempt.ExamID)
		if err != nil {
			return err
		}
		closed, err = s.repo.Attempt().Finalize(ctx, tx, attemptID, repositories.AttemptOutcome{
			SubmittedAt:    s.now(),
			AutoSubmitted:  true,
			TotalQuestions: len(entries),
		})
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to close overdue attempt %d: %w", attemptID, err)
	}

	if closed {
		publishEvent(events.WithActor(ctx, events.SystemActor), s.publisher, s.logger, events.AttemptAutoSubmitted, "attempt", attemptID,
			map[string]interface{}{"exam_id": examID, "reason": "deadline"})
	}
	return closed, nil
}

// ownedAttempt hides attempts of other students behind not-found.
func (s *attemptService) ownedAttempt(ctx context.Context, studentID string, attemptID uint) (*models.Attempt, error) {
	student, err := s.repo.Student().GetByStudentID(ctx, nil, studentID)
	if err != nil {
		return nil, mapNotFound(err, ErrStudentNotFound)
	}
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		return nil, mapNotFound(err, ErrAttemptNotFound)
	}
	if attempt.StudentID != student.ID {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}
