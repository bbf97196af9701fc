package models

import "time"

type Exam struct {
	ID                     uint       `json:"id" gorm:"primaryKey"`
	Title                  string     `json:"title" gorm:"size:200;not null"`
	Description            *string    `json:"description" gorm:"type:text"`
	ClassLevel             string     `json:"class_level" gorm:"size:20;not null;index"`
	DurationMinutes        int        `json:"duration_minutes" gorm:"not null"`
	ScheduledAt            *time.Time `json:"scheduled_at" gorm:"index"`
	Published              bool       `json:"published" gorm:"not null;default:false;index"`
	RandomizeQuestionOrder bool       `json:"randomize_question_order" gorm:"not null;default:false"`
	ShuffleOptions         bool       `json:"shuffle_options" gorm:"not null"`
	NegativeMarking        bool       `json:"negative_marking" gorm:"not null;default:false"`
	ShowResultsImmediately bool       `json:"show_results_immediately" gorm:"not null"`
	PassMarkPercent        *float64   `json:"pass_mark_percent"`
	AllowedAttempts        int        `json:"allowed_attempts" gorm:"not null;default:1"`
	SessionTermID          *uint      `json:"session_term_id" gorm:"index"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`

	SessionTerm *SessionTerm `json:"session_term,omitempty" gorm:"foreignKey:SessionTermID;constraint:OnDelete:RESTRICT"`
}

// Duration is the exam's time allowance.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// IsScheduledBy reports whether the exam may be started at now. An exam
// with no schedule is not time-gated.
func (e *Exam) IsScheduledBy(now time.Time) bool {
	return e.ScheduledAt == nil || !e.ScheduledAt.After(now)
}

// ExamQuestion places a question at a fixed position inside an exam.
type ExamQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ExamID     uint `json:"exam_id" gorm:"not null;uniqueIndex:idx_exam_question_order,priority:1;uniqueIndex:idx_exam_question_unique,priority:1"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_exam_question_unique,priority:2;index"`
	Order      int  `json:"order" gorm:"column:order;not null;uniqueIndex:idx_exam_question_order,priority:2"`

	Exam     *Exam     `json:"-" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:RESTRICT"`
}
