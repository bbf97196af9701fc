package models

import "time"

type SessionTerm struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Session   string    `json:"session" gorm:"size:20;not null;uniqueIndex:idx_session_term,priority:1"`
	Term      int       `json:"term" gorm:"not null;uniqueIndex:idx_session_term,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	ExamCount int64 `json:"exam_count" gorm:"-"`
}
