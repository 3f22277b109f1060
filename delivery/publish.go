package delivery

import (
	"context"
	"log/slog"

	"github.com/xraph/herald/event"
)

// publish hands e to p. A panicking publisher is logged and ignored so it
// can never fail a send.
func publish(ctx context.Context, p event.Publisher, logger *slog.Logger, e event.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.WarnContext(ctx, "event publisher panicked",
				"event_type", string(e.Type),
				"kind", string(e.Kind),
				"attempt", e.Attempt,
				"panic", r,
			)
		}
	}()

	p.Publish(ctx, e)
}
