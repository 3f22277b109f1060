package provider

import (
	"context"

	"github.com/xraph/herald/message"
)

// Func adapts a function to a provider for message type M.
type Func[M message.Variant] struct {
	name string
	fn   func(ctx context.Context, msg M) (string, error)
}

// NewFunc returns a provider called name that delegates to fn.
func NewFunc[M message.Variant](name string, fn func(ctx context.Context, msg M) (string, error)) *Func[M] {
	return &Func[M]{name: name, fn: fn}
}

// Name returns the provider name.
func (f *Func[M]) Name() string { return f.name }

// Send calls the wrapped function.
func (f *Func[M]) Send(ctx context.Context, msg M) (string, error) {
	return f.fn(ctx, msg)
}
