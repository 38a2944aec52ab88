package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/atlas-erp/accounting/internal/events"
)

// Dispatcher delivers queued event envelopes to the Redis pub/sub channel
// downstream modules subscribe to.
type Dispatcher struct {
	redis   redis.UniversalClient
	logger  *slog.Logger
	metrics *Metrics
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(client redis.UniversalClient, logger *slog.Logger, metrics *Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{redis: client, logger: logger, metrics: metrics}
}

// Handle processes a single dispatch task. Returning an error makes asynq
// retry the delivery.
func (d *Dispatcher) Handle(ctx context.Context, task *asynq.Task) error {
	var tracker *Tracker
	if d.metrics != nil {
		tracker = d.metrics.Track(events.TaskTypeDispatch)
	}
	err := d.deliver(ctx, task)
	return tracker.End(err)
}

func (d *Dispatcher) deliver(ctx context.Context, task *asynq.Task) error {
	env, err := events.DecodeEnvelope(task.Payload())
	if err != nil {
		// A malformed envelope will never deliver; drop it instead of retrying.
		d.logger.Error("drop malformed event envelope", slog.Any("error", err))
		return nil
	}
	if err := d.redis.Publish(ctx, events.Channel, task.Payload()).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", env.Event, events.Channel, err)
	}
	d.logger.Info("event dispatched",
		slog.String("event", env.Event),
		slog.String("id", env.ID.String()),
	)
	return nil
}
