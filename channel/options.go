package channel

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/xraph/herald/message"
)

// Option configures a Channel.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	breaker *BreakerSettings
}

// WithLogger sets the channel logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCircuitBreaker guards the provider with a circuit breaker.
func WithCircuitBreaker(s BreakerSettings) Option {
	return func(o *options) { o.breaker = &s }
}

// BreakerSettings configures the circuit breaker around a provider.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker open. Zero means 5.
	ConsecutiveFailures uint32 `json:"consecutive_failures" yaml:"consecutive_failures" mapstructure:"consecutive_failures"`

	// Timeout is how long the breaker stays open before probing. Zero means 60s.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRequests is the number of probes allowed while half-open. Zero means 1.
	MaxRequests uint32 `json:"max_requests" yaml:"max_requests" mapstructure:"max_requests"`

	// Interval clears failure counts while closed. Zero never clears.
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`
}

// DefaultBreakerSettings returns the settings used when a zero value is given.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		Timeout:             60 * time.Second,
		MaxRequests:         1,
	}
}

func newBreaker(kind message.Kind, provider string, s BreakerSettings, logger *slog.Logger) *gobreaker.CircuitBreaker {
	threshold := s.ConsecutiveFailures
	if threshold == 0 {
		threshold = DefaultBreakerSettings().ConsecutiveFailures
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "herald-" + string(kind),
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"provider", provider,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}
