package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/xraph/herald/event"
	"github.com/xraph/herald/message"
	"github.com/xraph/herald/observability"
	"github.com/xraph/herald/result"
)

// DispatcherConfig holds the optional collaborators of a Dispatcher.
type DispatcherConfig struct {
	// Publisher receives lifecycle events. Nil discards them.
	Publisher event.Publisher
	Metrics   *observability.Metrics
	Tracer    *observability.Tracer
}

// Dispatcher resolves a message's kind to its handler and performs exactly
// one send attempt. The handler registry is fixed at construction and read
// without locking.
type Dispatcher struct {
	handlers  map[message.Kind]Handler
	publisher event.Publisher
	config    DispatcherConfig
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher over handlers. Nil handlers are ignored;
// an empty registry is an error.
func NewDispatcher(handlers map[message.Kind]Handler, cfg DispatcherConfig, logger *slog.Logger) (*Dispatcher, error) {
	registry := make(map[message.Kind]Handler, len(handlers))
	for kind, h := range handlers {
		if h != nil {
			registry[kind] = h
		}
	}
	if len(registry) == 0 {
		return nil, ErrNoHandlers
	}

	if logger == nil {
		logger = slog.Default()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = event.Discard
	}

	return &Dispatcher{
		handlers:  registry,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}, nil
}

// Kinds returns the registered kinds in sorted order.
func (d *Dispatcher) Kinds() []message.Kind {
	kinds := make([]message.Kind, 0, len(d.handlers))
	for k := range d.handlers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	return kinds
}

// Available reports whether a handler is registered for kind and reports
// itself available.
func (d *Dispatcher) Available(kind message.Kind) bool {
	h, ok := d.handlers[kind]
	return ok && available(h)
}

// Dispatch performs one send attempt for msg.
//
// A nil message yields a Validation failure and publishes nothing. A missing
// or unavailable handler yields a Configuration failure and publishes
// nothing. Otherwise Sending is published, the handler is invoked, and Sent
// or Failed follows. Handler panics become System failures.
func (d *Dispatcher) Dispatch(ctx context.Context, msg message.Message) result.Result {
	if isNil(msg) {
		d.logger.WarnContext(ctx, "dispatch rejected nil message")

		res := result.Validation("Message must not be nil")
		res.Cause = ErrNilMessage

		return res
	}

	kind, recipient := msg.Kind(), msg.Recipient()

	h, ok := d.handlers[kind]
	if !ok {
		d.logger.WarnContext(ctx, "no handler configured", "kind", string(kind))

		return result.Configuration("No channel configured for type: "+string(kind), ErrNoHandler)
	}

	if !available(h) {
		d.logger.WarnContext(ctx, "handler unavailable", "kind", string(kind))

		return result.Configuration(fmt.Sprintf("Channel %s is not available", kind), ErrHandlerUnavailable)
	}

	attempt := AttemptFromContext(ctx)
	publish(ctx, d.publisher, d.logger, event.Sending(kind, recipient, attempt))

	spanCtx, span := d.config.Tracer.StartDispatchSpan(ctx, string(kind), recipient, attempt)
	start := time.Now()

	res := normalize(d.invoke(spanCtx, h, msg))

	d.config.Metrics.RecordSend(string(kind), string(res.Category), time.Since(start).Seconds())
	d.config.Tracer.EndDispatchSpan(span, res.MessageID, string(res.Category), res.Error)

	if res.Successful {
		d.logger.DebugContext(ctx, "dispatched",
			"kind", string(kind),
			"message_id", res.MessageID,
			"attempt", attempt,
		)
		publish(ctx, d.publisher, d.logger, event.Sent(kind, recipient, attempt, res))
	} else {
		d.logger.WarnContext(ctx, "dispatch failed",
			"kind", string(kind),
			"category", string(res.Category),
			"error", res.Error,
			"attempt", attempt,
		)
		publish(ctx, d.publisher, d.logger, event.Failed(kind, recipient, attempt, res))
	}

	return res
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler, msg message.Message) (res result.Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "handler panicked", "kind", string(msg.Kind()), "panic", r)
			res = result.System(fmt.Sprintf("Unexpected error: %v", r), fmt.Errorf("%w: %v", ErrHandlerPanic, r))
		}
	}()

	return h.Send(ctx, msg)
}

func available(h Handler) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	return h.Available()
}

// normalize enforces the Result invariants on handler output.
func normalize(res result.Result) result.Result {
	if res.Timestamp.IsZero() {
		res.Timestamp = time.Now()
	}

	if res.Successful {
		res.Category, res.Provider, res.Error, res.Cause = "", "", "", nil
		return res
	}

	if res.Category == "" {
		res.Category = result.CategorySystem
	}
	if res.Error == "" {
		res.Error = "handler reported failure without detail"
	}
	if res.Category != result.CategoryProvider {
		res.Provider = ""
	}
	res.MessageID = ""

	return res
}

func isNil(msg message.Message) bool {
	switch v := msg.(type) {
	case nil:
		return true
	case *message.Email:
		return v == nil
	case *message.SMS:
		return v == nil
	case *message.Push:
		return v == nil
	case *message.Chat:
		return v == nil
	default:
		return false
	}
}
