package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/accounting/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcherPublishesToChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sub := client.Subscribe(context.Background(), events.Channel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	env := events.Envelope{
		ID:         uuid.New(),
		Event:      "accounting.journal_entry.posted",
		Source:     events.Source,
		Payload:    map[string]any{"entry_number": "JE-20240301-001"},
		OccurredAt: time.Now().UTC(),
	}
	task, err := events.NewDispatchTask(env)
	require.NoError(t, err)

	dispatcher := NewDispatcher(client, testLogger(), nil)
	require.NoError(t, dispatcher.Handle(context.Background(), task))

	select {
	case msg := <-sub.Channel():
		got, err := events.DecodeEnvelope([]byte(msg.Payload))
		require.NoError(t, err)
		assert.Equal(t, env.ID, got.ID)
		assert.Equal(t, env.Event, got.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received on the events channel")
	}
}

func TestDispatcherDropsMalformedEnvelope(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	dispatcher := NewDispatcher(client, testLogger(), nil)
	task := asynq.NewTask(events.TaskTypeDispatch, []byte("not json"))

	// Malformed envelopes are dropped, never retried.
	require.NoError(t, dispatcher.Handle(context.Background(), task))
}

func TestDispatcherReturnsErrorWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	env := events.Envelope{ID: uuid.New(), Event: "accounting.account.created", Source: events.Source}
	task, err := events.NewDispatchTask(env)
	require.NoError(t, err)

	dispatcher := NewDispatcher(client, testLogger(), nil)
	require.Error(t, dispatcher.Handle(context.Background(), task))
}
