package herald

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/xraph/herald/delivery"
	"github.com/xraph/herald/message"
)

// Config holds the configuration for a Herald instance.
type Config struct {
	// Concurrency bounds simultaneous async dispatches.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MaxAttempts is the total number of attempts for SendWithRetry,
	// including the first.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay" mapstructure:"initial_delay"`

	// BackoffMultiplier grows the delay between consecutive attempts.
	BackoffMultiplier float64 `json:"backoff_multiplier" yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`

	// MaxDelay caps the delay between attempts.
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`

	// AsyncRetry applies the retry policy to SendAsync and SendBatch.
	// When false, background sends make a single attempt.
	AsyncRetry bool `json:"async_retry" yaml:"async_retry" mapstructure:"async_retry"`

	// ShutdownTimeout bounds Close when its context has no deadline.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// RateLimits caps async sends per second for each kind.
	RateLimits map[message.Kind]int `json:"rate_limits" yaml:"rate_limits" mapstructure:"rate_limits"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	p := delivery.DefaultRetryPolicy()

	return Config{
		Concurrency:       10,
		MaxAttempts:       p.MaxAttempts,
		InitialDelay:      p.InitialDelay,
		BackoffMultiplier: p.BackoffMultiplier,
		MaxDelay:          p.MaxDelay,
		ShutdownTimeout:   30 * time.Second,
	}
}

// RetryPolicy returns the retry policy described by c.
func (c Config) RetryPolicy() delivery.RetryPolicy {
	return delivery.RetryPolicy{
		MaxAttempts:       c.MaxAttempts,
		InitialDelay:      c.InitialDelay,
		BackoffMultiplier: c.BackoffMultiplier,
		MaxDelay:          c.MaxDelay,
	}
}

// Validate reports every bound c violates.
func (c Config) Validate() error {
	var err error

	if c.Concurrency < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidConfig, c.Concurrency))
	}
	if c.ShutdownTimeout < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: shutdown timeout must not be negative, got %s", ErrInvalidConfig, c.ShutdownTimeout))
	}
	for kind, perSecond := range c.RateLimits {
		if !kind.Valid() {
			err = multierr.Append(err, fmt.Errorf("%w: rate limit for %w %q", ErrInvalidConfig, message.ErrUnknownKind, kind))
		}
		if perSecond < 0 {
			err = multierr.Append(err, fmt.Errorf("%w: rate limit for %s must not be negative, got %d", ErrInvalidConfig, kind, perSecond))
		}
	}

	return multierr.Append(err, c.RetryPolicy().Validate())
}

// LoadConfig reads a YAML file over DefaultConfig. Durations use Go syntax
// ("500ms", "30s").
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("herald: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("herald: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
