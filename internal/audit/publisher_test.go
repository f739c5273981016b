package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherDrainsToStore(t *testing.T) {
	store := NewMemoryStore()
	publisher := NewPublisher(store, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = publisher.Run(ctx)
		close(done)
	}()

	publisher.Record(ctx, Event{UserID: "u1", Actor: "u1", Action: ActionRegister})
	publisher.Record(ctx, Event{UserID: "u1", Actor: "admin", Action: ActionAdminUpdate})
	publisher.Record(ctx, Event{UserID: "u2", Actor: "u2", Action: ActionLogin})

	require.Eventually(t, func() bool {
		events, err := store.ListByUser(context.Background(), "u1")
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	events, err := store.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, ActionRegister, events[0].Action)
	assert.Equal(t, ActionAdminUpdate, events[1].Action)
	assert.False(t, events[0].Timestamp.IsZero())

	cancel()
	<-done
}

type captureSink struct {
	events chan Event
}

func (s *captureSink) Publish(_ context.Context, event Event) error {
	s.events <- event
	return nil
}

func TestPublisherFansOutToSink(t *testing.T) {
	sink := &captureSink{events: make(chan Event, 1)}
	publisher := NewPublisher(NewMemoryStore(), sink, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = publisher.Run(ctx) }()

	publisher.Record(ctx, Event{UserID: "u1", Action: ActionMint, Detail: "CERT_1_aaaaaaaaa"})

	select {
	case event := <-sink.events:
		assert.Equal(t, ActionMint, event.Action)
		assert.Equal(t, "CERT_1_aaaaaaaaa", event.Detail)
	case <-time.After(time.Second):
		t.Fatal("sink never received the event")
	}
}
