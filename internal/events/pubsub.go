package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
)

// PubSubBus wraps the in-memory Bus and also publishes every event to a
// Google Cloud Pub/Sub topic for durable, cross-service delivery.
//
// Fan-out strategy:
//   - Pub/Sub: durable, at-least-once delivery to downstream consumers
//   - In-memory: immediate push to local subscribers
type PubSubBus struct {
	*Bus // embedded, Subscribe/Unsubscribe still work

	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubBus creates a Pub/Sub-backed event bus. It creates the topic if
// it does not exist.
func NewPubSubBus(projectID, topicID string) (*PubSubBus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub.NewClient: %w", err)
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("topic.Exists: %w", err)
	}
	if !exists {
		topic, err = client.CreateTopic(ctx, topicID)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("CreateTopic: %w", err)
		}
		slog.Info("created pubsub topic", "topic_id", topicID)
	}

	// Ordering key is the decision context id, so events for one decision
	// arrive in sequence.
	topic.EnableMessageOrdering = true

	slog.Info("connected to pubsub topic", "topic", topic.String())
	return &PubSubBus{
		Bus:    NewBus(),
		client: client,
		topic:  topic,
	}, nil
}

// Emit publishes an event to Pub/Sub and fans out to in-memory subscribers.
func (pb *PubSubBus) Emit(subject, source, contextID string, data map[string]any) {
	event := NewEvent(subject, source, contextID, data)
	pb.publish(event)
	pb.Bus.Publish(event)
}

func (pb *PubSubBus) publish(event *Event) {
	payload, err := event.JSON()
	if err != nil {
		slog.Error("marshal event failed", "event_id", event.ID, "error", err)
		return
	}

	msg := &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"subject":    event.Subject,
			"source":     event.Source,
			"event_id":   event.ID,
			"context_id": event.ContextID,
			"time":       event.Time.Format(time.RFC3339Nano),
		},
		OrderingKey: event.ContextID,
	}

	result := pb.topic.Publish(context.Background(), msg)

	// Non-blocking: check result off the hot path.
	go func() {
		serverID, err := result.Get(context.Background())
		if err != nil {
			slog.Error("pubsub publish failed", "event_id", event.ID, "error", err)
			return
		}
		slog.Debug("published event", "event_id", event.ID, "msg_id", serverID, "subject", event.Subject)
	}()
}

// Close gracefully shuts down the Pub/Sub client.
func (pb *PubSubBus) Close() error {
	pb.topic.Stop()
	if err := pb.client.Close(); err != nil {
		return fmt.Errorf("pubsub client close: %w", err)
	}
	return nil
}

// TopicPath returns the fully-qualified Pub/Sub topic path.
func (pb *PubSubBus) TopicPath() string {
	return pb.topic.String()
}

// HealthCheck verifies the Pub/Sub topic is reachable.
func (pb *PubSubBus) HealthCheck(ctx context.Context) error {
	exists, err := pb.topic.Exists(ctx)
	if err != nil {
		return fmt.Errorf("topic health check: %w", err)
	}
	if !exists {
		return fmt.Errorf("topic does not exist")
	}
	return nil
}

var _ EventEmitter = (*PubSubBus)(nil)
