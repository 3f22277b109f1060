// Package channel implements the delivery handler for one message kind: it
// validates the message, then hands it to a provider and classifies the
// outcome.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/xraph/herald/message"
	"github.com/xraph/herald/result"
)

// ValidationPrefix starts the error text of every validation failure.
const ValidationPrefix = "Validation failed: "

var (
	// ErrKindMismatch is the cause when a channel receives a message of
	// another kind.
	ErrKindMismatch = errors.New("channel: message kind does not match channel")

	// ErrProviderPanic is the cause when a provider panics during Send.
	ErrProviderPanic = errors.New("channel: provider panicked")

	// ErrNilProvider is returned by New when no provider is supplied.
	ErrNilProvider = errors.New("channel: provider must not be nil")
)

// Provider sends a message of type M to an external service and returns the
// provider-assigned message ID.
type Provider[M message.Variant] interface {
	Name() string
	Send(ctx context.Context, msg M) (string, error)
}

// Validator returns every problem found in msg. An empty result means valid.
type Validator[M message.Variant] func(msg M) []string

// Channel delivers messages of a single kind through one provider.
// It satisfies delivery.Handler.
type Channel[M message.Variant] struct {
	kind       message.Kind
	provider   Provider[M]
	validators []Validator[M]
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// New creates a channel for provider. Validators run in order and all of
// their problems are reported together.
func New[M message.Variant](provider Provider[M], validators []Validator[M], opts ...Option) (*Channel[M], error) {
	if provider == nil {
		return nil, ErrNilProvider
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	var zero M
	c := &Channel[M]{
		kind:       zero.Kind(),
		provider:   provider,
		validators: validators,
		logger:     o.logger,
	}
	if o.breaker != nil {
		c.breaker = newBreaker(c.kind, provider.Name(), *o.breaker, c.logger)
	}

	return c, nil
}

// Kind returns the message kind this channel accepts.
func (c *Channel[M]) Kind() message.Kind { return c.kind }

// ProviderName returns the name of the underlying provider.
func (c *Channel[M]) ProviderName() string { return c.provider.Name() }

// Available reports whether the channel can accept sends. It is false only
// while the circuit breaker is open.
func (c *Channel[M]) Available() bool {
	return c.breaker == nil || c.breaker.State() != gobreaker.StateOpen
}

// Validate runs every validator against msg and returns all problems.
func (c *Channel[M]) Validate(msg M) []string {
	var problems []string
	for _, v := range c.validators {
		problems = append(problems, v(msg)...)
	}

	return problems
}

// Send validates msg and delivers it through the provider.
// Provider errors become CategoryProvider failures tagged with the provider name.
func (c *Channel[M]) Send(ctx context.Context, msg message.Message) result.Result {
	m, ok := c.unwrap(msg)
	if !ok {
		return result.Configuration(
			fmt.Sprintf("Channel %s cannot send %T", c.kind, msg),
			ErrKindMismatch,
		)
	}

	c.logger.DebugContext(ctx, "validating message", "kind", string(c.kind), "message", message.Describe(m))

	if problems := c.Validate(m); len(problems) > 0 {
		c.logger.WarnContext(ctx, "message validation failed",
			"kind", string(c.kind),
			"problems", len(problems),
		)

		return result.Validation(ValidationPrefix + strings.Join(problems, "; "))
	}

	msgID, err := c.call(ctx, m)
	if err != nil {
		c.logger.WarnContext(ctx, "provider send failed",
			"kind", string(c.kind),
			"provider", c.provider.Name(),
			"error", err,
		)

		return result.Provider(c.provider.Name(), err.Error(), err)
	}

	c.logger.InfoContext(ctx, "message sent",
		"kind", string(c.kind),
		"provider", c.provider.Name(),
		"message_id", msgID,
	)

	return result.Success(msgID)
}

func (c *Channel[M]) unwrap(msg message.Message) (M, bool) {
	switch v := any(msg).(type) {
	case M:
		return v, true
	case *M:
		if v != nil {
			return *v, true
		}
	}

	var zero M
	return zero, false
}

func (c *Channel[M]) call(ctx context.Context, m M) (string, error) {
	if c.breaker == nil {
		return c.send(ctx, m)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.send(ctx, m)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%s is currently unavailable (circuit breaker): %w", c.provider.Name(), err)
		}

		return "", err
	}

	return out.(string), nil
}

func (c *Channel[M]) send(ctx context.Context, m M) (msgID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProviderPanic, r)
		}
	}()

	return c.provider.Send(ctx, m)
}
