package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env := Envelope{
		ID:         uuid.New(),
		Event:      "accounting.journal_entry.posted",
		Source:     Source,
		Payload:    map[string]any{"entry_number": "JE-20240301-001"},
		OccurredAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	task, err := NewDispatchTask(env)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeDispatch, task.Type())

	got, err := DecodeEnvelope(task.Payload())
	require.NoError(t, err)
	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, env.Event, got.Event)
	assert.Equal(t, "JE-20240301-001", got.Payload["entry_number"])
	assert.True(t, env.OccurredAt.Equal(got.OccurredAt))
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := DecodeEnvelope([]byte("not json"))
	require.Error(t, err)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, map[string]any) error {
	return errors.New("bus down")
}

func TestEmitIsBestEffort(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// A nil publisher is a no-op, not a panic.
	Emit(context.Background(), logger, nil, "accounting.account.created", nil)

	// Publish failures are logged and swallowed.
	Emit(context.Background(), logger, failingPublisher{}, "accounting.account.created", nil)

	// A nil logger must not panic either.
	Emit(context.Background(), nil, failingPublisher{}, "accounting.account.created", nil)
}

func TestBusPublishEnqueuesDispatchTask(t *testing.T) {
	mr := miniredis.RunT(t)
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus := NewBus(client)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	bus.WithNow(func() time.Time { return at })

	err := bus.Publish(context.Background(), "accounting.budget.created", map[string]any{"id": uuid.NewString()})
	require.NoError(t, err)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = inspector.Close() })
	tasks, err := inspector.ListPendingTasks(QueueEvents)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskTypeDispatch, tasks[0].Type)

	env, err := DecodeEnvelope(tasks[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "accounting.budget.created", env.Event)
	assert.Equal(t, Source, env.Source)
	assert.True(t, at.Equal(env.OccurredAt))
}

func TestBusPublishRequiresEventName(t *testing.T) {
	mr := miniredis.RunT(t)
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	err := NewBus(client).Publish(context.Background(), "", nil)
	require.Error(t, err)
}
