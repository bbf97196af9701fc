package repositories

import (
	"time"

	"github.com/SAP-F-2025/cbt-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Subject    *string `json:"subject"`
	ClassLevel *string `json:"class_level"`
	Term       *int    `json:"term"`
	Topic      *string `json:"topic"`
	Search     string  `json:"search"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	SortBy     string  `json:"sort_by"`
	SortOrder  string  `json:"sort_order"`
}

type ExamFilters struct {
	ClassLevel    *string `json:"class_level"`
	Published     *bool   `json:"published"`
	SessionTermID *uint   `json:"session_term_id"`
	Limit         int     `json:"limit"`
	Offset        int     `json:"offset"`
	SortBy        string  `json:"sort_by"`
	SortOrder     string  `json:"sort_order"`
}

type StudentFilters struct {
	ClassLevel *string `json:"class_level"`
	Search     string  `json:"search"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
}

type ResultFilters struct {
	ExamID     *uint   `json:"exam_id"`
	StudentID  *uint   `json:"student_id"`
	ClassLevel *string `json:"class_level"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
}

type AuditLogFilters struct {
	ActorType *models.ActorType `json:"actor_type"`
	Action    *string           `json:"action"`
	Limit     int               `json:"limit"`
}

// ===== SHARED HELPER STRUCTS =====

// AttemptOutcome holds the terminal fields written when an attempt is
// submitted.
type AttemptOutcome struct {
	SubmittedAt    time.Time
	AutoSubmitted  bool
	Score          float64
	CorrectCount   int
	TotalQuestions int
	MarkTotal      float64
}
