package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// OptionLabel names a positional answer option.
type OptionLabel string

const (
	OptionA OptionLabel = "A"
	OptionB OptionLabel = "B"
	OptionC OptionLabel = "C"
	OptionD OptionLabel = "D"
	OptionE OptionLabel = "E"
)

const (
	MinOptions = 4
	MaxOptions = 5
)

// OptionLabels lists every label in display order.
var OptionLabels = [MaxOptions]OptionLabel{OptionA, OptionB, OptionC, OptionD, OptionE}

// ParseOptionLabel normalises s ("b", " B ") to a label.
func ParseOptionLabel(s string) (OptionLabel, bool) {
	l := OptionLabel(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range OptionLabels {
		if l == known {
			return l, true
		}
	}
	return "", false
}

type Option struct {
	Label OptionLabel `json:"label"`
	Text  string      `json:"text"`
}

// NewOptions builds an option list from up to five texts. Trailing empty
// texts are dropped so that a missing optionE yields four options.
func NewOptions(texts ...string) []Option {
	n := len(texts)
	if n > MaxOptions {
		n = MaxOptions
	}
	for n > 0 && strings.TrimSpace(texts[n-1]) == "" {
		n--
	}
	opts := make([]Option, n)
	for i := 0; i < n; i++ {
		opts[i] = Option{Label: OptionLabels[i], Text: strings.TrimSpace(texts[i])}
	}
	return opts
}

type Question struct {
	ID            uint                        `json:"id" gorm:"primaryKey"`
	Text          string                      `json:"text" gorm:"type:text;not null"`
	Subject       string                      `json:"subject" gorm:"size:100;not null;index"`
	ClassLevel    *string                     `json:"class_level" gorm:"size:20;index"`
	Term          *int                        `json:"term"`
	Topic         *string                     `json:"topic" gorm:"size:200"`
	Difficulty    *string                     `json:"difficulty" gorm:"size:20"`
	Options       datatypes.JSONSlice[Option] `json:"options" gorm:"not null"`
	CorrectOption OptionLabel                 `json:"correct_option" gorm:"size:1;not null"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// HasOption reports whether label is one of the active options.
func (q *Question) HasOption(label OptionLabel) bool {
	for _, o := range q.Options {
		if o.Label == label {
			return true
		}
	}
	return false
}

// WellFormed checks the option list is A..D or A..E in order with non-empty
// texts, and the answer key names an active option.
func (q *Question) WellFormed() bool {
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return false
	}
	for i, o := range q.Options {
		if o.Label != OptionLabels[i] || strings.TrimSpace(o.Text) == "" {
			return false
		}
	}
	return q.HasOption(q.CorrectOption)
}
