package delivery

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
)

// RetryPolicy bounds how often and how patiently a send is retried.
type RetryPolicy struct {
	MaxAttempts       int           `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialDelay      time.Duration `json:"initial_delay" yaml:"initial_delay" mapstructure:"initial_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier" yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	MaxDelay          time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`
}

// NewRetryPolicy returns a validated policy.
func NewRetryPolicy(maxAttempts int, initialDelay time.Duration, multiplier float64, maxDelay time.Duration) (RetryPolicy, error) {
	p := RetryPolicy{
		MaxAttempts:       maxAttempts,
		InitialDelay:      initialDelay,
		BackoffMultiplier: multiplier,
		MaxDelay:          maxDelay,
	}
	if err := p.Validate(); err != nil {
		return RetryPolicy{}, err
	}

	return p, nil
}

// DefaultRetryPolicy is 3 attempts starting at 1s, doubling, capped at 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialDelay:      time.Second,
		BackoffMultiplier: 2.0,
		MaxDelay:          30 * time.Second,
	}
}

// NoRetry makes a single attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1, BackoffMultiplier: 1.0}
}

// Validate reports every violated bound.
func (p RetryPolicy) Validate() error {
	var err error
	if p.MaxAttempts < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: maxAttempts must be at least 1", ErrInvalidRetryPolicy))
	}
	if p.InitialDelay < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: initialDelay must be >= 0", ErrInvalidRetryPolicy))
	}
	if p.BackoffMultiplier < 1.0 || math.IsNaN(p.BackoffMultiplier) {
		err = multierr.Append(err, fmt.Errorf("%w: backoffMultiplier must be >= 1.0", ErrInvalidRetryPolicy))
	}
	if p.MaxDelay < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: maxDelay must be >= 0", ErrInvalidRetryPolicy))
	}

	return err
}

// DelayForAttempt returns the wait after failed attempt n:
// zero for n <= 0, else min(InitialDelay * BackoffMultiplier^(n-1), MaxDelay).
func (p RetryPolicy) DelayForAttempt(n int) time.Duration {
	if n <= 0 || p.InitialDelay <= 0 {
		return 0
	}

	d := float64(p.InitialDelay) * math.Pow(p.BackoffMultiplier, float64(n-1))
	if math.IsInf(d, 1) || d >= float64(p.MaxDelay) {
		return p.MaxDelay
	}

	return time.Duration(d)
}
