package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/herald/event"
	"github.com/xraph/herald/message"
	"github.com/xraph/herald/observability"
	"github.com/xraph/herald/result"
)

// Decision is the outcome of evaluating a send attempt.
type Decision int

const (
	// Delivered means the attempt succeeded.
	Delivered Decision = iota

	// Retry means another attempt should be scheduled.
	Retry

	// Terminal means the failure cannot be fixed by retrying
	// (validation or configuration).
	Terminal

	// Exhausted means the failure was retryable but no attempts remain.
	Exhausted
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	switch d {
	case Delivered:
		return "delivered"
	case Retry:
		return "retry"
	case Terminal:
		return "terminal"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// RetrierConfig holds the optional collaborators of a Retrier.
type RetrierConfig struct {
	// Publisher receives Retrying events. Nil discards them.
	Publisher event.Publisher
	Metrics   *observability.Metrics
}

// Retrier repeats sends under a RetryPolicy.
type Retrier struct {
	sender    Sender
	policy    RetryPolicy
	publisher event.Publisher
	config    RetrierConfig
	logger    *slog.Logger
}

// NewRetrier creates a retrier. The policy is validated.
func NewRetrier(sender Sender, policy RetryPolicy, cfg RetrierConfig, logger *slog.Logger) (*Retrier, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = event.Discard
	}

	return &Retrier{
		sender:    sender,
		policy:    policy,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}, nil
}

// Policy returns the retry policy.
func (r *Retrier) Policy() RetryPolicy { return r.policy }

// Decide determines what to do after the given attempt produced res.
//
// Decision matrix:
//   - success → Delivered
//   - validation / configuration → Terminal
//   - provider / system with attempts left → Retry
//   - provider / system on the last attempt → Exhausted
func (r *Retrier) Decide(res result.Result, attempt int) Decision {
	switch {
	case res.Successful:
		return Delivered
	case !res.Retryable():
		return Terminal
	case attempt >= r.policy.MaxAttempts:
		return Exhausted
	default:
		return Retry
	}
}

// SendWithRetry sends msg until it succeeds, fails terminally, or the policy
// runs out of attempts, and returns the last attempt's result.
//
// Retrying is published before each wait. If ctx ends during a wait the
// previous result is returned without another attempt.
func (r *Retrier) SendWithRetry(ctx context.Context, msg message.Message) result.Result {
	if isNil(msg) {
		return r.sender.Dispatch(ctx, msg)
	}

	kind, recipient := msg.Kind(), msg.Recipient()

	var last result.Result
	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			delay := r.policy.DelayForAttempt(attempt - 1)

			publish(ctx, r.publisher, r.logger, event.Retrying(kind, recipient, attempt))
			r.config.Metrics.RecordRetry(string(kind))
			r.logger.DebugContext(ctx, "retry scheduled",
				"kind", string(kind),
				"attempt", attempt,
				"delay", delay,
			)

			if err := sleepWithContext(ctx, delay); err != nil {
				r.logger.WarnContext(ctx, "retry abandoned",
					"kind", string(kind),
					"attempt", attempt,
					"error", err,
				)

				return last
			}
		}

		last = r.sender.Dispatch(ContextWithAttempt(ctx, attempt), msg)

		switch r.Decide(last, attempt) {
		case Retry:
			continue
		case Exhausted:
			r.logger.WarnContext(ctx, "retries exhausted",
				"kind", string(kind),
				"attempts", attempt,
				"error", last.Error,
			)
		}

		return last
	}
}

// sleepWithContext waits for d or until ctx is done.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
