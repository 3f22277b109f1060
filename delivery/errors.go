package delivery

import "errors"

var (
	// ErrNilMessage is the cause of the failure returned for a nil message.
	ErrNilMessage = errors.New("delivery: message must not be nil")

	// ErrNoHandler is the cause when no handler is registered for a kind.
	ErrNoHandler = errors.New("delivery: no handler registered for kind")

	// ErrHandlerUnavailable is the cause when a handler reports itself unavailable.
	ErrHandlerUnavailable = errors.New("delivery: handler is not available")

	// ErrHandlerPanic is the cause when a handler panics during Send.
	ErrHandlerPanic = errors.New("delivery: handler panicked")

	// ErrAsyncPanic is the cause when an async task panics outside the handler.
	ErrAsyncPanic = errors.New("delivery: async execution panicked")

	// ErrEngineClosed is the cause for sends submitted after Close.
	ErrEngineClosed = errors.New("delivery: engine is closed")

	// ErrNoHandlers is returned by NewDispatcher for an empty registry.
	ErrNoHandlers = errors.New("delivery: at least one handler must be registered")

	// ErrInvalidRetryPolicy wraps every retry policy bound violation.
	ErrInvalidRetryPolicy = errors.New("delivery: invalid retry policy")
)
