package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/atlas-erp/accounting/internal/observability"
)

// Bus enqueues events for asynchronous delivery through asynq.
type Bus struct {
	client  *asynq.Client
	metrics *observability.Metrics
	now     func() time.Time
}

// NewBus constructs a Bus around an asynq client.
func NewBus(client *asynq.Client) *Bus {
	return &Bus{client: client, now: time.Now}
}

// WithMetrics enables the emitted-event counter.
func (b *Bus) WithMetrics(metrics *observability.Metrics) *Bus {
	b.metrics = metrics
	return b
}

// WithNow overrides the clock for deterministic tests.
func (b *Bus) WithNow(now func() time.Time) {
	if now != nil {
		b.now = now
	}
}

// Publish enqueues the event envelope. Delivery is at-least-once and
// happens off the request path.
func (b *Bus) Publish(ctx context.Context, event string, payload map[string]any) error {
	if event == "" {
		return fmt.Errorf("events: event name required")
	}
	env := Envelope{
		ID:         uuid.New(),
		Event:      event,
		Source:     Source,
		Payload:    payload,
		OccurredAt: b.now().UTC(),
	}
	task, err := NewDispatchTask(env)
	if err != nil {
		return fmt.Errorf("events: marshal envelope: %w", err)
	}
	if _, err := b.client.EnqueueContext(ctx, task, asynq.Queue(QueueEvents), asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("events: enqueue %s: %w", event, err)
	}
	b.metrics.CountEventEmitted(event)
	return nil
}
