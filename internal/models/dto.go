package models

import "time"

// ===== REQUESTS =====

type QuestionCreateRequest struct {
	Text          string  `json:"text" validate:"required,max=5000"`
	Subject       string  `json:"subject" validate:"required,max=100"`
	ClassLevel    *string `json:"class_level" validate:"omitempty,class_level"`
	Term          *int    `json:"term" validate:"omitempty,term"`
	Topic         *string `json:"topic" validate:"omitempty,max=200"`
	Difficulty    *string `json:"difficulty" validate:"omitempty,max=20"`
	OptionA       string  `json:"option_a" validate:"required,max=1000"`
	OptionB       string  `json:"option_b" validate:"required,max=1000"`
	OptionC       string  `json:"option_c" validate:"required,max=1000"`
	OptionD       string  `json:"option_d" validate:"required,max=1000"`
	OptionE       *string `json:"option_e" validate:"omitempty,max=1000"`
	CorrectOption string  `json:"correct_option" validate:"required,option_label"`
}

// OptionTexts returns the five option texts in label order.
func (r *QuestionCreateRequest) OptionTexts() []string {
	e := ""
	if r.OptionE != nil {
		e = *r.OptionE
	}
	return []string{r.OptionA, r.OptionB, r.OptionC, r.OptionD, e}
}

type QuestionUpdateRequest = QuestionCreateRequest

type ExamCreateRequest struct {
	Title                  string     `json:"title" validate:"required,max=200"`
	Description            *string    `json:"description" validate:"omitempty,max=2000"`
	ClassLevel             string     `json:"class_level" validate:"required,class_level"`
	DurationMinutes        int        `json:"duration_minutes" validate:"required,min=1,max=600"`
	ScheduledAt            *time.Time `json:"scheduled_at"`
	Published              bool       `json:"published"`
	RandomizeQuestionOrder bool       `json:"randomize_question_order"`
	ShuffleOptions         *bool      `json:"shuffle_options"`
	NegativeMarking        bool       `json:"negative_marking"`
	ShowResultsImmediately *bool      `json:"show_results_immediately"`
	PassMarkPercent        *float64   `json:"pass_mark_percent" validate:"omitempty,min=0,max=100"`
	AllowedAttempts        *int       `json:"allowed_attempts" validate:"omitempty,min=1,max=20"`
	SessionTermID          *uint      `json:"session_term_id"`
}

type ExamUpdateRequest struct {
	Title                  *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description            *string    `json:"description" validate:"omitempty,max=2000"`
	ClassLevel             *string    `json:"class_level" validate:"omitempty,class_level"`
	DurationMinutes        *int       `json:"duration_minutes" validate:"omitempty,min=1,max=600"`
	ScheduledAt            *time.Time `json:"scheduled_at"`
	ClearSchedule          bool       `json:"clear_schedule"`
	RandomizeQuestionOrder *bool      `json:"randomize_question_order"`
	ShuffleOptions         *bool      `json:"shuffle_options"`
	NegativeMarking        *bool      `json:"negative_marking"`
	ShowResultsImmediately *bool      `json:"show_results_immediately"`
	PassMarkPercent        *float64   `json:"pass_mark_percent" validate:"omitempty,min=0,max=100"`
	ClearPassMark          bool       `json:"clear_pass_mark"`
	AllowedAttempts        *int       `json:"allowed_attempts" validate:"omitempty,min=1,max=20"`
	SessionTermID          *uint      `json:"session_term_id"`
}

type PublishRequest struct {
	Published *bool `json:"published" validate:"required"`
}

type AddExamQuestionRequest struct {
	QuestionID uint `json:"question_id" validate:"required,min=1"`
}

type StudentCreateRequest struct {
	StudentID     string     `json:"student_id" validate:"required,min=3,max=50"`
	FirstName     string     `json:"first_name" validate:"required,max=100"`
	LastName      *string    `json:"last_name" validate:"omitempty,max=100"`
	ClassLevel    string     `json:"class_level" validate:"required,class_level"`
	Section       *string    `json:"section" validate:"omitempty,max=20"`
	AdmissionNo   *string    `json:"admission_no" validate:"omitempty,max=50"`
	DateOfBirth   *time.Time `json:"dob"`
	ParentContact *string    `json:"parent_contact" validate:"omitempty,max=100"`
	Email         *string    `json:"email" validate:"omitempty,email"`
}

type StudentLoginRequest struct {
	StudentID string `json:"student_id" validate:"required,max=50"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SubmittedAnswer struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Selected   string `json:"selected" validate:"omitempty,option_label"`
}

type SubmitAttemptRequest struct {
	Answers       []SubmittedAnswer `json:"answers" validate:"dive"`
	AutoSubmitted bool              `json:"auto_submitted"`
}

type SessionTermCreateRequest struct {
	Session string `json:"session" validate:"required,session_label"`
	Term    int    `json:"term" validate:"required,term"`
}

// ===== RESPONSES =====

type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Size       int         `json:"size"`
	TotalPages int         `json:"total_pages"`
}

func NewPaginatedResponse(items interface{}, total int64, page, size int) *PaginatedResponse {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return &PaginatedResponse{Items: items, Total: total, Page: page, Size: size, TotalPages: pages}
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Profile   any       `json:"profile"`
}

type StudentProfile struct {
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	ClassLevel string `json:"class_level"`
}

type StudentExamSummary struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description"`
	DurationMinutes int        `json:"duration_minutes"`
	QuestionCount   int64      `json:"question_count"`
	PassMarkPercent *float64   `json:"pass_mark_percent"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	Attempts        int64      `json:"attempts"`
	MaxAttempts     int        `json:"max_attempts"`
}

// PaperQuestion is a question as shown to a candidate: no answer key.
type PaperQuestion struct {
	ID      uint     `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

type ExamPaper struct {
	AttemptID       uint            `json:"attempt_id"`
	ExamID          uint            `json:"exam_id"`
	Title           string          `json:"title"`
	DurationMinutes int             `json:"duration_minutes"`
	StartedAt       time.Time       `json:"started_at"`
	Deadline        time.Time       `json:"deadline"`
	Questions       []PaperQuestion `json:"questions"`
}

type SubmitResult struct {
	AttemptID      uint      `json:"attempt_id"`
	Score          float64   `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	MarkTotal      float64   `json:"mark_total"`
	Passed         *bool     `json:"passed"`
	AutoSubmitted  bool      `json:"auto_submitted"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type AttemptResultSummary struct {
	AttemptID      uint       `json:"attempt_id"`
	Score          float64    `json:"score"`
	CorrectAnswers int        `json:"correct_answers"`
	TotalQuestions int        `json:"total_questions"`
	MarkTotal      float64    `json:"mark_total"`
	Passed         *bool      `json:"passed"`
	StartedAt      time.Time  `json:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	AutoSubmitted  bool       `json:"auto_submitted"`
	TimeTakenMin   int        `json:"time_taken_minutes"`
}

type StudentExamResults struct {
	ExamID          uint                   `json:"exam_id"`
	ExamTitle       string                 `json:"exam_title"`
	PassMarkPercent *float64               `json:"pass_mark_percent"`
	Attempts        []AttemptResultSummary `json:"attempts"`
}

type ReviewItem struct {
	Order          int         `json:"order"`
	QuestionID     uint        `json:"question_id"`
	Text           string      `json:"text"`
	Options        []Option    `json:"options"`
	SelectedOption OptionLabel `json:"selected_option,omitempty"`
	CorrectOption  OptionLabel `json:"correct_option"`
	IsCorrect      bool        `json:"is_correct"`
	Answered       bool        `json:"answered"`
	Mark           float64     `json:"mark"`
}

type StudentAttemptResult struct {
	ExamID          uint                 `json:"exam_id"`
	ExamTitle       string               `json:"exam_title"`
	PassMarkPercent *float64             `json:"pass_mark_percent"`
	Summary         AttemptResultSummary `json:"summary"`
	ReviewAvailable bool                 `json:"review_available"`
	Review          []ReviewItem         `json:"review,omitempty"`
}

type ExamBrief struct {
	ID              uint     `json:"id"`
	Title           string   `json:"title"`
	ClassLevel      string   `json:"class_level"`
	DurationMinutes int      `json:"duration_minutes"`
	PassMarkPercent *float64 `json:"pass_mark_percent"`
	NegativeMarking bool     `json:"negative_marking"`
}

type StudentBrief struct {
	ID         uint   `json:"id"`
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	ClassLevel string `json:"class_level"`
}

type AdminResultListItem struct {
	Student StudentBrief         `json:"student"`
	Exam    ExamBrief            `json:"exam"`
	Result  AttemptResultSummary `json:"result"`
}

type AdminResultDetail struct {
	Student StudentBrief         `json:"student"`
	Exam    ExamBrief            `json:"exam"`
	Result  AttemptResultSummary `json:"result"`
	Review  []ReviewItem         `json:"review"`
}

type ImportRowError struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

type ImportResult struct {
	Committed   int              `json:"committed"`
	QuestionIDs []uint           `json:"question_ids"`
	Errors      []ImportRowError `json:"errors,omitempty"`
}
