package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and only logs failures.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and only logs failures.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

func QuestionKey(id uint) string { return fmt.Sprintf("id:%d", id) }

func ExamPaperKey(examID uint) string { return fmt.Sprintf("questions:%d", examID) }

// InvalidateQuestionCache drops a question and every exam paper, since any
// paper may embed it.
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, questionID uint) {
	SafeDelete(ctx, cm.Question, QuestionKey(questionID))
	SafeInvalidatePattern(ctx, cm.Exam, "questions:*")
}

func InvalidateExamPaperCache(ctx context.Context, cm *CacheManager, examID uint) {
	SafeDelete(ctx, cm.Exam, ExamPaperKey(examID))
}
