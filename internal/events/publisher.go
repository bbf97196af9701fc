package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventPublisher publishes domain events. Implementations must be safe for
// concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// BusConfig selects the transport. An empty broker list uses an in-process
// channel.
type BusConfig struct {
	KafkaBrokers  []string
	ConsumerGroup string
}

// Bus holds the watermill publisher and subscriber pair for one transport.
type Bus struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Logger     watermill.LoggerAdapter
	transport  string
}

func NewBus(cfg BusConfig, logger *slog.Logger) (*Bus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	if len(cfg.KafkaBrokers) == 0 {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
		return &Bus{Publisher: ch, Subscriber: ch, Logger: wmLogger, transport: "gochannel"}, nil
	}

	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	sub, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.KafkaBrokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		ConsumerGroup:         cfg.ConsumerGroup,
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
	}, wmLogger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	return &Bus{Publisher: pub, Subscriber: sub, Logger: wmLogger, transport: "kafka"}, nil
}

func (b *Bus) Transport() string { return b.transport }

// Close closes both ends. For gochannel they are the same value.
func (b *Bus) Close() error {
	err := b.Publisher.Close()
	if b.transport == "kafka" {
		if subErr := b.Subscriber.Close(); subErr != nil && err == nil {
			err = subErr
		}
	}
	return err
}

// WatermillPublisher serialises events as JSON onto a watermill topic.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewWatermillPublisher(publisher message.Publisher, topic string, logger *slog.Logger) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher, topic: topic, logger: logger}
}

func (p *WatermillPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("type", string(event.Type))
	msg.Metadata.Set("resource", event.Resource)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	p.logger.DebugContext(ctx, "Event published", "event_id", event.ID, "type", event.Type)
	return nil
}

// Close is a no-op; the bus owns the underlying publisher.
func (p *WatermillPublisher) Close() error { return nil }

// MockEventPublisher records events in memory.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	if m.logger != nil {
		m.logger.DebugContext(ctx, "Mock event published", "type", event.Type)
	}
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

func (m *MockEventPublisher) GetPublishedEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// EventsOfType filters the recorded events.
func (m *MockEventPublisher) EventsOfType(t EventType) []*Event {
	var out []*Event
	for _, e := range m.GetPublishedEvents() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
