// Package publisher emits audit events to a Store, either synchronously or
// through a bounded in-process buffer drained by a background worker.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "lexdraft/pkg/domain"
	audit "lexdraft/pkg/platform/audit"
)

// ErrBufferFull is returned in async mode when the buffer cannot take another event.
var ErrBufferFull = errors.New("audit buffer full")

// Sink receives every event after it is stored, e.g. a Kafka producer.
type Sink interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store  audit.Store
	sinks  []Sink
	logger *slog.Logger

	inbox chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.inbox = make(chan audit.Event, n)
		}
	}
}

// WithSink forwards stored events to s. Sink failures are logged, not returned.
func WithSink(s Sink) Option {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, s)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher writes to store and then to every sink. store may be nil when
// a stream sink is the system of record and a consumer materializes it.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if p.inbox == nil {
		return p.write(ctx, event)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

// ListByProfile reads back from the store. It returns nothing when the
// publisher only forwards to sinks.
func (p *Publisher) ListByProfile(ctx context.Context, profileID id.ProfileID) ([]audit.Event, error) {
	if p.store == nil {
		return []audit.Event{}, nil
	}
	return p.store.ListByProfile(ctx, profileID)
}

// Close stops accepting async events and blocks until the buffer is drained.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.once.Do(func() {
		close(p.inbox)
		p.wg.Wait()
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.write(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("failed to persist audit event", "action", event.Action, "error", err)
		}
	}
}

func (p *Publisher) write(ctx context.Context, event audit.Event) error {
	if p.store != nil {
		if err := p.store.Append(ctx, event); err != nil {
			return err
		}
	}
	for _, s := range p.sinks {
		if err := s.Emit(ctx, event); err != nil && p.logger != nil {
			p.logger.WarnContext(ctx, "audit sink failed", "action", event.Action, "error", err)
		}
	}
	return nil
}
