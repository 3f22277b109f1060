package herald

import "errors"

// Sentinel errors returned by Herald construction.
var (
	// ErrNoChannels is returned when a Herald is created without any channel.
	ErrNoChannels = errors.New("herald: at least one channel is required")

	// ErrNilProvider is returned when a channel option is given a nil provider or handler.
	ErrNilProvider = errors.New("herald: provider must not be nil")

	// ErrInvalidConfig wraps every configuration bound violation.
	ErrInvalidConfig = errors.New("herald: invalid config")
)
