package delivery

import (
	"context"

	"github.com/xraph/herald/message"
	"github.com/xraph/herald/result"
)

// Handler performs the delivery attempt for one message kind.
// Implementations must be safe for concurrent use.
type Handler interface {
	// Available reports whether the handler can accept sends right now.
	// It must not have side effects.
	Available() bool

	// Send attempts delivery of msg. Failures are reported in the result.
	Send(ctx context.Context, msg message.Message) result.Result
}

// Sender is anything that performs a single send attempt. *Dispatcher
// satisfies it; the Retrier and Engine are built on it.
type Sender interface {
	Dispatch(ctx context.Context, msg message.Message) result.Result
}

type attemptKey struct{}

// ContextWithAttempt returns a context recording the 1-indexed attempt number
// used in lifecycle events.
func ContextWithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey{}, attempt)
}

// AttemptFromContext returns the attempt number stored in ctx, or 1.
func AttemptFromContext(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey{}).(int); ok && n > 0 {
		return n
	}

	return 1
}
