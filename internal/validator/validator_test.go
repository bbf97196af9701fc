package validator

import (
	"errors"
	"testing"

	"github.com/SAP-F-2025/cbt-service/internal/models"
)

func strPtr(s string) *string { return &s }

func validQuestion() *models.QuestionCreateRequest {
	return &models.QuestionCreateRequest{
		Text:          "2 + 2 = ?",
		Subject:       "Mathematics",
		OptionA:       "3",
		OptionB:       "4",
		OptionC:       "5",
		OptionD:       "6",
		CorrectOption: "B",
	}
}

func TestValidateQuestion(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		mutate    func(*models.QuestionCreateRequest)
		wantField string
	}{
		{name: "valid four options", mutate: func(*models.QuestionCreateRequest) {}},
		{name: "valid five options", mutate: func(r *models.QuestionCreateRequest) {
			r.OptionE = strPtr("7")
			r.CorrectOption = "e"
		}},
		{name: "missing text", mutate: func(r *models.QuestionCreateRequest) { r.Text = "" }, wantField: "text"},
		{name: "unknown label", mutate: func(r *models.QuestionCreateRequest) { r.CorrectOption = "F" }, wantField: "correct_option"},
		{name: "answer E without option E", mutate: func(r *models.QuestionCreateRequest) { r.CorrectOption = "E" }, wantField: "correct_option"},
		{name: "blank option C", mutate: func(r *models.QuestionCreateRequest) { r.OptionC = "   " }, wantField: "option_c"},
		{name: "bad term", mutate: func(r *models.QuestionCreateRequest) { term := 4; r.Term = &term }, wantField: "term"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validQuestion()
			tt.mutate(req)

			err := v.ValidateQuestion(req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateQuestion() error = %v", err)
				}
				return
			}

			var ve ValidationErrors
			if !errors.As(err, &ve) {
				t.Fatalf("ValidateQuestion() error = %v, want ValidationErrors", err)
			}
			found := false
			for _, e := range ve {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("ValidateQuestion() fields = %v, want %s", ve.Messages(), tt.wantField)
			}
		})
	}
}

func TestIsSessionLabel(t *testing.T) {
	tests := map[string]bool{
		"2024/2025": true,
		"2024/2026": false,
		"2024-2025": false,
		"24/25":     false,
		"":          false,
	}
	for in, want := range tests {
		if got := IsSessionLabel(in); got != want {
			t.Errorf("IsSessionLabel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsClassLevel(t *testing.T) {
	for _, ok := range []string{"JSS1", "SS 2", "Primary-6"} {
		if !IsClassLevel(ok) {
			t.Errorf("IsClassLevel(%q) = false", ok)
		}
	}
	for _, bad := range []string{"", " ", "-JSS", "a-very-long-class-level-name"} {
		if IsClassLevel(bad) {
			t.Errorf("IsClassLevel(%q) = true", bad)
		}
	}
}
