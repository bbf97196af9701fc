package models

import "time"

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptSubmitted  AttemptStatus = "SUBMITTED"
)

type Attempt struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	ExamID        uint          `json:"exam_id" gorm:"not null;index;uniqueIndex:idx_attempt_slot,priority:1"`
	StudentID     uint          `json:"student_id" gorm:"not null;index;uniqueIndex:idx_attempt_slot,priority:2"`
	AttemptNumber int           `json:"attempt_number" gorm:"not null;uniqueIndex:idx_attempt_slot,priority:3"`
	Status        AttemptStatus `json:"status" gorm:"size:20;not null;default:IN_PROGRESS;index"`
	StartedAt     time.Time     `json:"started_at" gorm:"not null"`
	Deadline      time.Time     `json:"deadline" gorm:"not null;index"`
	SubmittedAt   *time.Time    `json:"submitted_at"`
	AutoSubmitted bool          `json:"auto_submitted" gorm:"not null;default:false"`

	// Terminal fields, set together on submit.
	Score          *float64 `json:"score"`
	CorrectCount   *int     `json:"correct_count"`
	TotalQuestions *int     `json:"total_questions"`
	MarkTotal      *float64 `json:"mark_total"`

	IPAddress *string `json:"ip_address,omitempty" gorm:"size:45"`

	Exam    *Exam    `json:"exam,omitempty" gorm:"foreignKey:ExamID;constraint:OnDelete:RESTRICT"`
	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:RESTRICT"`
	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

func (a *Attempt) IsSubmitted() bool {
	return a.Status == AttemptSubmitted
}

// Overdue reports whether now is past the deadline plus grace.
func (a *Attempt) Overdue(now time.Time, grace time.Duration) bool {
	return now.After(a.Deadline.Add(grace))
}

// TimeTaken is zero until the attempt is submitted.
func (a *Attempt) TimeTaken() time.Duration {
	if a.SubmittedAt == nil {
		return 0
	}
	return a.SubmittedAt.Sub(a.StartedAt)
}

type Answer struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	AttemptID      uint        `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question,priority:1"`
	QuestionID     uint        `json:"question_id" gorm:"not null;index;uniqueIndex:idx_answer_attempt_question,priority:2"`
	SelectedOption OptionLabel `json:"selected_option" gorm:"size:1;not null"`
	IsCorrect      bool        `json:"is_correct" gorm:"not null"`
	Mark           float64     `json:"mark" gorm:"not null"`

	Attempt  *Attempt  `json:"-" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
	Question *Question `json:"-" gorm:"foreignKey:QuestionID;constraint:OnDelete:RESTRICT"`
}
