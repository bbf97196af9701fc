package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

// resultService only reads.
type resultService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewResultService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ResultService {
	return &resultService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// ===== ADMIN VIEWS =====

func (s *resultService) ListResults(ctx context.Context, filters repositories.ResultFilters) ([]*models.AdminResultListItem, int64, error) {
	filters.Limit, filters.Offset = normalizePage(filters.Limit, filters.Offset)
	attempts, total, err := s.repo.Attempt().ListSubmitted(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list results: %w", err)
	}

	items := make([]*models.AdminResultListItem, 0, len(attempts))
	for _, a := range attempts {
		if a.Student == nil || a.Exam == nil {
			continue
		}
		items = append(items, &models.AdminResultListItem{
			Student: studentBrief(a.Student),
			Exam:    examBrief(a.Exam),
			Result:  attemptSummary(a, a.Exam),
		})
	}
	return items, total, nil
}

func (s *resultService) GetResult(ctx context.Context, attemptID uint) (*models.AdminResultDetail, error) {
	attempt, err := s.repo.Attempt().GetWithDetails(ctx, nil, attemptID)
	if err != nil {
		return nil, mapNotFound(err, ErrAttemptNotFound)
	}
	if !attempt.IsSubmitted() || attempt.Student == nil || attempt.Exam == nil {
		return nil, ErrAttemptNotFound
	}

	review, err := s.review(ctx, attempt)
	if err != nil {
		return nil, err
	}
	return &models.AdminResultDetail{
		Student: studentBrief(attempt.Student),
		Exam:    examBrief(attempt.Exam),
		Result:  attemptSummary(attempt, attempt.Exam),
		Review:  review,
	}, nil
}

// ===== STUDENT VIEWS =====

func (s *resultService) ListStudentResults(ctx context.Context, studentID string, examID uint) (*models.StudentExamResults, error) {
	student, err := s.repo.Student().GetByStudentID(ctx, nil, studentID)
	if err != nil {
		return nil, mapNotFound(err, ErrStudentNotFound)
	}
	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		return nil, mapNotFound(err, ErrExamNotFound)
	}

	// Exams outside the student's scope stay hidden unless they already
	// sat them, e.g. before a class change or an unpublish.
	if !visibleToStudent(exam, student) {
		count, err := s.repo.Attempt().CountByStudentAndExam(ctx, nil, student.ID, examID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrExamNotFound
		}
	}

	attempts, err := s.repo.Attempt().ListSubmittedByStudentAndExam(ctx, nil, student.ID, examID)
	if err != nil {
		return nil, err
	}

	out := &models.StudentExamResults{
		ExamID:          exam.ID,
		ExamTitle:       exam.Title,
		PassMarkPercent: exam.PassMarkPercent,
		Attempts:        make([]models.AttemptResultSummary, 0, len(attempts)),
	}
	for _, a := range attempts {
		out.Attempts = append(out.Attempts, attemptSummary(a, exam))
	}
	return out, nil
}

// GetStudentResult always includes the score; the per-question review is
// attached only when the exam shows results immediately.
func (s *resultService) GetStudentResult(ctx context.Context, studentID string, attemptID uint) (*models.StudentAttemptResult, error) {
	attempt, err := s.repo.Attempt().GetWithDetails(ctx, nil, attemptID)
	if err != nil {
		return nil, mapNotFound(err, ErrAttemptNotFound)
	}
	if attempt.Student == nil || attempt.Student.StudentCode != studentID || attempt.Exam == nil {
		return nil, ErrAttemptNotFound
	}
	if !attempt.IsSubmitted() {
		return nil, NewConflictError("attempt %d has not been submitted", attemptID)
	}

	out := &models.StudentAttemptResult{
		ExamID:          attempt.Exam.ID,
		ExamTitle:       attempt.Exam.Title,
		PassMarkPercent: attempt.Exam.PassMarkPercent,
		Summary:         attemptSummary(attempt, attempt.Exam),
		ReviewAvailable: attempt.Exam.ShowResultsImmediately,
	}
	if out.ReviewAvailable {
		out.Review, err = s.review(ctx, attempt)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ===== HELPERS =====

// review lists the exam's questions in order with the attempt's answers.
// Answers to questions since removed from the exam are appended at the end.
func (s *resultService) review(ctx context.Context, attempt *models.Attempt) ([]models.ReviewItem, error) {
	entries, err := s.repo.ExamQuestion().ListByExam(ctx, nil, attempt.ExamID)
	if err != nil {
		return nil, err
	}

	answers := make(map[uint]models.Answer, len(attempt.Answers))
	for _, a := range attempt.Answers {
		answers[a.QuestionID] = a
	}

	items := make([]models.ReviewItem, 0, len(entries))
	seen := make(map[uint]bool, len(entries))
	for _, eq := range entries {
		if eq.Question == nil {
			continue
		}
		seen[eq.QuestionID] = true
		items = append(items, reviewItem(eq.Order, eq.Question, answers))
	}

	for _, a := range attempt.Answers {
		if seen[a.QuestionID] {
			continue
		}
		q, err := s.repo.Question().GetByID(ctx, nil, a.QuestionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue
			}
			return nil, err
		}
		items = append(items, reviewItem(0, q, answers))
	}
	return items, nil
}

func reviewItem(order int, q *models.Question, answers map[uint]models.Answer) models.ReviewItem {
	item := models.ReviewItem{
		Order:         order,
		QuestionID:    q.ID,
		Text:          q.Text,
		Options:       q.Options,
		CorrectOption: q.CorrectOption,
	}
	if a, ok := answers[q.ID]; ok {
		item.Answered = true
		item.SelectedOption = a.SelectedOption
		item.IsCorrect = a.IsCorrect
		item.Mark = a.Mark
	}
	return item
}

func attemptSummary(a *models.Attempt, exam *models.Exam) models.AttemptResultSummary {
	summary := models.AttemptResultSummary{
		AttemptID:     a.ID,
		StartedAt:     a.StartedAt,
		SubmittedAt:   a.SubmittedAt,
		AutoSubmitted: a.AutoSubmitted,
		TimeTakenMin:  int(math.Round(a.TimeTaken().Minutes())),
	}
	if a.Score != nil {
		summary.Score = *a.Score
	}
	if a.CorrectCount != nil {
		summary.CorrectAnswers = *a.CorrectCount
	}
	if a.TotalQuestions != nil {
		summary.TotalQuestions = *a.TotalQuestions
	}
	if a.MarkTotal != nil {
		summary.MarkTotal = *a.MarkTotal
	}
	if exam != nil {
		summary.Passed = Passed(summary.Score, exam.PassMarkPercent)
	}
	return summary
}

func studentBrief(s *models.Student) models.StudentBrief {
	return models.StudentBrief{
		ID:         s.ID,
		StudentID:  s.StudentCode,
		Name:       s.FullName(),
		ClassLevel: s.ClassLevel,
	}
}

func examBrief(e *models.Exam) models.ExamBrief {
	return models.ExamBrief{
		ID:              e.ID,
		Title:           e.Title,
		ClassLevel:      e.ClassLevel,
		DurationMinutes: e.DurationMinutes,
		PassMarkPercent: e.PassMarkPercent,
		NegativeMarking: e.NegativeMarking,
	}
}
