package event

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/xraph/herald/id"
	"github.com/xraph/herald/observability"
)

// Listener receives lifecycle events. OnEvent runs synchronously on the
// goroutine that published the event.
type Listener interface {
	OnEvent(ctx context.Context, e Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, e Event)

// OnEvent calls f(ctx, e).
func (f ListenerFunc) OnEvent(ctx context.Context, e Event) { f(ctx, e) }

// Publisher accepts lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) {}

type subscription struct {
	id       id.ID
	listener Listener
}

// Bus is a copy-on-write fan-out Publisher.
//
// Publish reads an immutable snapshot of the subscriber list, so listeners
// may subscribe or unsubscribe (including from inside OnEvent) without
// affecting a delivery already in progress. A listener that panics is
// logged and skipped.
type Bus struct {
	mu      sync.Mutex
	subs    atomic.Pointer[[]subscription]
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBus creates an empty Bus. metrics may be nil.
func NewBus(logger *slog.Logger, metrics *observability.Metrics) *Bus {
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bus{logger: logger, metrics: metrics}
	b.subs.Store(&[]subscription{})

	return b
}

// Subscribe registers l and returns the ID used to unsubscribe it.
// Registering the same listener twice yields two independent subscriptions.
func (b *Bus) Subscribe(l Listener) id.ID {
	subID := id.NewSubscriptionID()

	b.mu.Lock()
	defer b.mu.Unlock()

	cur := *b.subs.Load()
	next := make([]subscription, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, subscription{id: subID, listener: l})
	b.subs.Store(&next)

	return subID
}

// Unsubscribe removes the subscription and reports whether it existed.
func (b *Bus) Unsubscribe(subID id.ID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := *b.subs.Load()
	for i, s := range cur {
		if s.id.String() != subID.String() {
			continue
		}

		next := make([]subscription, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		next = append(next, cur[i+1:]...)
		b.subs.Store(&next)

		return true
	}

	return false
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	return len(*b.subs.Load())
}

// Publish delivers e to every listener subscribed at the time of the call,
// in registration order.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.metrics.RecordEvent(string(e.Type))

	for _, s := range *b.subs.Load() {
		b.deliver(ctx, s, e)
	}
}

func (b *Bus) deliver(ctx context.Context, s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WarnContext(ctx, "event listener panicked",
				"subscription_id", s.id.String(),
				"event_type", string(e.Type),
				"kind", string(e.Kind),
				"panic", r,
			)
		}
	}()

	s.listener.OnEvent(ctx, e)
}
