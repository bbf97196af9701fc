package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/cbt-service/internal/models"
)

const (
	EventSource  = "cbt-service"
	EventVersion = "1.0"

	// AuditTopic carries every domain event recorded in the audit log.
	AuditTopic = "cbt.audit"
)

type EventType string

const (
	QuestionCreated      EventType = "question.created"
	QuestionUpdated      EventType = "question.updated"
	QuestionsImported    EventType = "question.imported"
	ExamCreated          EventType = "exam.created"
	ExamUpdated          EventType = "exam.updated"
	ExamPublished        EventType = "exam.published"
	ExamUnpublished      EventType = "exam.unpublished"
	ExamQuestionAdded    EventType = "exam.question_added"
	ExamQuestionRemoved  EventType = "exam.question_removed"
	AttemptStarted       EventType = "attempt.started"
	AttemptSubmitted     EventType = "attempt.submitted"
	AttemptAutoSubmitted EventType = "attempt.auto_submitted"
	StudentCreated       EventType = "student.created"
	StudentLoggedIn      EventType = "student.login"
	AdminLoggedIn        EventType = "admin.login"
	SessionTermCreated   EventType = "session_term.created"
	SessionTermDeleted   EventType = "session_term.deleted"
)

// Actor identifies who caused an event.
type Actor struct {
	Type models.ActorType `json:"type"`
	ID   string           `json:"id"`
	IP   string           `json:"ip,omitempty"`
}

// SystemActor is used for work done by background jobs.
var SystemActor = Actor{Type: models.ActorSystem, ID: "system"}

type Event struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	Source     string                 `json:"source"`
	Version    string                 `json:"version"`
	Timestamp  time.Time              `json:"timestamp"`
	Actor      Actor                  `json:"actor"`
	Resource   string                 `json:"resource"`
	ResourceID string                 `json:"resource_id"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

func NewEvent(eventType EventType, actor Actor, resource, resourceID string, data map[string]interface{}) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     EventSource,
		Version:    EventVersion,
		Timestamp:  time.Now().UTC(),
		Actor:      actor,
		Resource:   resource,
		ResourceID: resourceID,
		Data:       data,
	}
}

type actorKey struct{}

// WithActor attaches the caller to ctx so services can stamp events.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext falls back to SystemActor.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return SystemActor
}
