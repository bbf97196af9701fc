package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

// AuditConsumer writes one AuditLog row per event on AuditTopic. Redelivered
// events are absorbed by the unique event id.
type AuditConsumer struct {
	router *message.Router
	repo   repositories.AuditLogRepository
	logger *slog.Logger
}

func NewAuditConsumer(bus *Bus, repo repositories.AuditLogRepository, logger *slog.Logger) (*AuditConsumer, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, bus.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}

	c := &AuditConsumer{router: router, repo: repo, logger: logger}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          bus.Logger,
		}.Middleware,
	)
	router.AddNoPublisherHandler("audit_log_writer", AuditTopic, bus.Subscriber, c.handle)

	return c, nil
}

// Run blocks until ctx is cancelled or Close is called.
func (c *AuditConsumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running is closed once the handlers are subscribed.
func (c *AuditConsumer) Running() chan struct{} {
	return c.router.Running()
}

func (c *AuditConsumer) Close() error {
	return c.router.Close()
}

func (c *AuditConsumer) handle(msg *message.Message) error {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// A payload that will never decode is dropped rather than retried.
		c.logger.Error("Discarding undecodable audit event", "message_uuid", msg.UUID, "error", err)
		return nil
	}

	entry, err := ToAuditLog(&event)
	if err != nil {
		c.logger.Error("Discarding audit event", "event_id", event.ID, "error", err)
		return nil
	}
	return c.repo.Append(msg.Context(), nil, entry)
}

// ToAuditLog maps an event envelope onto its audit row.
func ToAuditLog(event *Event) (*models.AuditLog, error) {
	if event.ID == "" {
		return nil, fmt.Errorf("event has no id")
	}

	var metadata datatypes.JSON
	if len(event.Data) > 0 {
		raw, err := json.Marshal(event.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event data: %w", err)
		}
		metadata = datatypes.JSON(raw)
	}

	actorType := event.Actor.Type
	if actorType == "" {
		actorType = models.ActorSystem
	}
	var ip *string
	if event.Actor.IP != "" {
		v := event.Actor.IP
		ip = &v
	}
	createdAt := event.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &models.AuditLog{
		EventID:    event.ID,
		ActorType:  actorType,
		ActorID:    event.Actor.ID,
		Action:     string(event.Type),
		Resource:   event.Resource,
		ResourceID: event.ResourceID,
		IP:         ip,
		Metadata:   metadata,
		CreatedAt:  createdAt,
	}, nil
}
