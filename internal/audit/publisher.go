package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sink receives events after they are persisted (e.g. a Kafka topic for
// downstream consumers). Publish errors are logged and swallowed.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher decouples domain code from audit persistence through a bounded
// channel. Record never blocks the caller: when the inbox is full the event
// is dropped. The trail is best-effort.
type Publisher struct {
	store  Store
	sink   Sink
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(store Store, sink Sink, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:  store,
		sink:   sink,
		inbox:  make(chan Event, 256),
		logger: logger,
	}
}

// Record enqueues an event for background persistence.
func (p *Publisher) Record(_ context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit inbox full, dropping event", "action", event.Action)
	}
}

// Run drains the inbox until ctx is cancelled. Store and sink failures are
// logged, never propagated to the emitting request.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.inbox:
			if err := p.store.Append(ctx, event); err != nil {
				p.logger.WarnContext(ctx, "audit append failed", "action", event.Action, "error", err)
			}
			if p.sink != nil {
				if err := p.sink.Publish(ctx, event); err != nil {
					p.logger.WarnContext(ctx, "audit publish failed", "action", event.Action, "error", err)
				}
			}
		}
	}
}
