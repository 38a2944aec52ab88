// Package events carries domain events to other modules. Producers enqueue
// an envelope as a background task; the worker delivers it to the Redis
// pub/sub channel consumed by downstream modules.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// Channel is the Redis pub/sub channel downstream modules subscribe to.
	Channel = "accounting.events"
	// TaskTypeDispatch is the asynq task type for event delivery.
	TaskTypeDispatch = "events:dispatch"
	// QueueEvents is the asynq queue dispatch tasks are enqueued on.
	QueueEvents = "events"
	// Source identifies this module in the event envelope.
	Source = "accounting"
)

// Publisher delivers a domain event. Implementations are best-effort;
// callers must never let a publish failure abort committed work.
type Publisher interface {
	Publish(ctx context.Context, event string, payload map[string]any) error
}

// Envelope is the wire format delivered on the pub/sub channel.
type Envelope struct {
	ID         uuid.UUID      `json:"id"`
	Event      string         `json:"event"`
	Source     string         `json:"source"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewDispatchTask wraps an envelope in an asynq task.
func NewDispatchTask(env Envelope) (*asynq.Task, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDispatch, data), nil
}

// DecodeEnvelope unmarshals a dispatch task payload.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(data, &env)
	return env, err
}

// Emit publishes an event and swallows any failure after logging it.
// Publication happens after the business transaction has committed, so a
// broken bus must never surface to the caller.
func Emit(ctx context.Context, logger *slog.Logger, pub Publisher, event string, payload map[string]any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event, payload); err != nil && logger != nil {
		logger.Error("publish event", slog.String("event", event), slog.Any("error", err))
	}
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, map[string]any) error { return nil }
