package services

import (
	"github.com/SAP-F-2025/cbt-service/internal/models"
)

const (
	markCorrect       = 1.0
	markWrongNegative = -0.25
)

// ScoreResult is the outcome of marking one submission.
type ScoreResult struct {
	Answers        []*models.Answer
	CorrectCount   int
	TotalQuestions int
	MarkTotal      float64
	Percentage     float64
}

// Score marks answers against the exam's questions. It has no side effects
// and returns the same result for the same input.
//
// Answers for questions outside the exam are ignored, blank selections are
// unanswered, and only the first answer per question counts. The returned
// answers follow exam order and carry no AttemptID.
func Score(examQuestions []*models.ExamQuestion, submitted []models.SubmittedAnswer, negativeMarking bool) (*ScoreResult, error) {
	total := len(examQuestions)
	if total == 0 {
		return nil, ErrMalformedExam
	}

	selected := make(map[uint]models.OptionLabel, len(submitted))
	for _, a := range submitted {
		if _, seen := selected[a.QuestionID]; seen {
			continue
		}
		label, ok := models.ParseOptionLabel(a.Selected)
		if !ok {
			continue
		}
		selected[a.QuestionID] = label
	}

	result := &ScoreResult{TotalQuestions: total}
	for _, eq := range examQuestions {
		if eq.Question == nil {
			return nil, ErrMalformedExam
		}
		label, answered := selected[eq.QuestionID]
		if !answered {
			continue
		}

		answer := &models.Answer{
			QuestionID:     eq.QuestionID,
			SelectedOption: label,
			IsCorrect:      label == eq.Question.CorrectOption,
		}
		switch {
		case answer.IsCorrect:
			answer.Mark = markCorrect
			result.CorrectCount++
		case negativeMarking:
			answer.Mark = markWrongNegative
		}
		result.MarkTotal += answer.Mark
		result.Answers = append(result.Answers, answer)
	}

	result.Percentage = float64(result.CorrectCount) / float64(total) * 100
	return result, nil
}

// Passed is nil when the exam has no pass mark.
func Passed(percentage float64, passMark *float64) *bool {
	if passMark == nil {
		return nil
	}
	passed := percentage >= *passMark
	return &passed
}
