package herald

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/xraph/herald/channel"
	"github.com/xraph/herald/delivery"
	"github.com/xraph/herald/event"
	"github.com/xraph/herald/message"
	"github.com/xraph/herald/observability"
	"github.com/xraph/herald/provider"
	"github.com/xraph/herald/validate"
)

// Option configures a Herald instance.
type Option func(*Herald) error

// handlerBuilder creates a kind's handler once every option has been applied.
type handlerBuilder func(h *Herald) (delivery.Handler, error)

// WithEmail binds the email channel to p. Without validators the built-in
// email rules apply.
func WithEmail(p channel.Provider[message.Email], validators ...channel.Validator[message.Email]) Option {
	return withProvider(p, validators, validate.Email)
}

// WithSMS binds the SMS channel to p. Without validators the built-in
// SMS rules apply.
func WithSMS(p channel.Provider[message.SMS], validators ...channel.Validator[message.SMS]) Option {
	return withProvider(p, validators, validate.SMS)
}

// WithPush binds the push channel to p. Without validators the built-in
// push rules apply. A schema set with WithPushDataSchema is always checked.
func WithPush(p channel.Provider[message.Push], validators ...channel.Validator[message.Push]) Option {
	return withProvider(p, validators, validate.Push)
}

// WithChat binds the chat channel to p. Without validators the built-in
// chat rules apply.
func WithChat(p channel.Provider[message.Chat], validators ...channel.Validator[message.Chat]) Option {
	return withProvider(p, validators, validate.Chat)
}

// WithSendGrid binds the email channel to SendGrid.
func WithSendGrid(apiKey string) Option {
	return withBuilder(message.KindEmail, func(h *Herald) (delivery.Handler, error) {
		p, err := provider.NewSendGrid(apiKey, h.logger)
		if err != nil {
			return nil, err
		}
		return newChannel[message.Email](h, p, nil, validate.Email)
	})
}

// WithMailgun binds the email channel to Mailgun.
func WithMailgun(apiKey, domain string) Option {
	return withBuilder(message.KindEmail, func(h *Herald) (delivery.Handler, error) {
		p, err := provider.NewMailgun(apiKey, domain, h.logger)
		if err != nil {
			return nil, err
		}
		return newChannel[message.Email](h, p, nil, validate.Email)
	})
}

// WithTwilio binds the SMS channel to Twilio.
func WithTwilio(accountSID, authToken string) Option {
	return withBuilder(message.KindSMS, func(h *Herald) (delivery.Handler, error) {
		p, err := provider.NewTwilio(accountSID, authToken, h.logger)
		if err != nil {
			return nil, err
		}
		return newChannel[message.SMS](h, p, nil, validate.SMS)
	})
}

// WithVonage binds the SMS channel to Vonage.
func WithVonage(apiKey, apiSecret string) Option {
	return withBuilder(message.KindSMS, func(h *Herald) (delivery.Handler, error) {
		p, err := provider.NewVonage(apiKey, apiSecret, h.logger)
		if err != nil {
			return nil, err
		}
		return newChannel[message.SMS](h, p, nil, validate.SMS)
	})
}

// WithFCM binds the push channel to Firebase Cloud Messaging.
func WithFCM(serverKey string) Option {
	return withBuilder(message.KindPush, func(h *Herald) (delivery.Handler, error) {
		p, err := provider.NewFCM(serverKey, h.logger)
		if err != nil {
			return nil, err
		}
		return newChannel[message.Push](h, p, nil, validate.Push)
	})
}

// WithAPNs binds the push channel to Apple Push Notification service.
func WithAPNs(teamID, keyID, bundleID string) Option {
	return withBuilder(message.KindPush, func(h *Herald) (delivery.Handler, error) {
		p, err := provider.NewAPNs(teamID, keyID, bundleID, h.logger)
		if err != nil {
			return nil, err
		}
		return newChannel[message.Push](h, p, nil, validate.Push)
	})
}

// WithSlackWebhook binds the chat channel to a Slack incoming webhook.
func WithSlackWebhook(webhookURL string) Option {
	return withBuilder(message.KindChat, func(h *Herald) (delivery.Handler, error) {
		p, err := provider.NewSlackWebhook(webhookURL, h.logger)
		if err != nil {
			return nil, err
		}
		return newChannel[message.Chat](h, p, nil, validate.Chat)
	})
}

// WithHandler binds kind to a custom handler, replacing any channel set for it.
func WithHandler(kind message.Kind, handler delivery.Handler) Option {
	return func(h *Herald) error {
		if handler == nil {
			return fmt.Errorf("%w: handler for %s", ErrNilProvider, kind)
		}
		return withBuilder(kind, func(*Herald) (delivery.Handler, error) {
			return handler, nil
		})(h)
	}
}

// WithRetryPolicy sets the policy used by SendWithRetry.
func WithRetryPolicy(p delivery.RetryPolicy) Option {
	return func(h *Herald) error {
		h.config.MaxAttempts = p.MaxAttempts
		h.config.InitialDelay = p.InitialDelay
		h.config.BackoffMultiplier = p.BackoffMultiplier
		h.config.MaxDelay = p.MaxDelay
		return nil
	}
}

// WithAsyncRetry makes SendAsync and SendBatch follow the retry policy.
func WithAsyncRetry(enabled bool) Option {
	return func(h *Herald) error {
		h.config.AsyncRetry = enabled
		return nil
	}
}

// WithListener subscribes l to lifecycle events.
func WithListener(l event.Listener) Option {
	return func(h *Herald) error {
		if l != nil {
			h.listeners = append(h.listeners, l)
		}
		return nil
	}
}

// WithTemplate registers a named {{key}} template.
func WithTemplate(name, text string) Option {
	return func(h *Herald) error {
		h.templates.Register(name, text)
		return nil
	}
}

// WithConcurrency sets the number of async sends dispatched at once.
func WithConcurrency(n int) Option {
	return func(h *Herald) error {
		h.config.Concurrency = n
		return nil
	}
}

// WithRateLimit caps async sends of kind to perSecond.
func WithRateLimit(kind message.Kind, perSecond int) Option {
	return func(h *Herald) error {
		if h.config.RateLimits == nil {
			h.config.RateLimits = make(map[message.Kind]int)
		}
		h.config.RateLimits[kind] = perSecond
		return nil
	}
}

// WithShutdownTimeout bounds Close when its context has no deadline.
func WithShutdownTimeout(d time.Duration) Option {
	return func(h *Herald) error {
		h.config.ShutdownTimeout = d
		return nil
	}
}

// WithCircuitBreaker guards every built-in channel's provider with a circuit
// breaker. While it is open the channel reports itself unavailable.
func WithCircuitBreaker(s channel.BreakerSettings) Option {
	return func(h *Herald) error {
		h.breaker = &s
		return nil
	}
}

// WithPushDataSchema validates every push message's Data against a JSON Schema.
// schema is either raw JSON ([]byte or string) or a decoded document.
func WithPushDataSchema(schema any) Option {
	return func(h *Herald) error {
		h.pushSchema = schema
		return nil
	}
}

// WithLogger sets the structured logger for the Herald instance.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Herald) error {
		if logger != nil {
			h.logger = logger
		}
		return nil
	}
}

// WithMetrics records sends, retries and events on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Herald) error {
		h.metrics = m
		return nil
	}
}

// WithTracer records a span per dispatch attempt and per batch.
func WithTracer(t *observability.Tracer) Option {
	return func(h *Herald) error {
		h.tracer = t
		return nil
	}
}

// WithConfig replaces the whole configuration. Options applied later still
// override individual fields.
func WithConfig(cfg Config) Option {
	return func(h *Herald) error {
		h.config = cfg
		return nil
	}
}

func withBuilder(kind message.Kind, build handlerBuilder) Option {
	return func(h *Herald) error {
		if !kind.Valid() {
			return fmt.Errorf("herald: %w: %q", message.ErrUnknownKind, kind)
		}
		h.builders[kind] = build
		return nil
	}
}

func withProvider[M message.Variant](p channel.Provider[M], validators []channel.Validator[M], rules channel.Validator[M]) Option {
	var zero M
	kind := zero.Kind()

	return func(h *Herald) error {
		if p == nil {
			return fmt.Errorf("%w: %s", ErrNilProvider, kind)
		}
		return withBuilder(kind, func(h *Herald) (delivery.Handler, error) {
			return newChannel(h, p, validators, rules)
		})(h)
	}
}

// newChannel builds a channel carrying the instance's logger, breaker and,
// for push, data schema.
func newChannel[M message.Variant](h *Herald, p channel.Provider[M], validators []channel.Validator[M], rules channel.Validator[M]) (delivery.Handler, error) {
	vs := validators
	if len(vs) == 0 {
		vs = []channel.Validator[M]{rules}
	}

	vs, err := withSchema(h, vs)
	if err != nil {
		return nil, err
	}

	opts := []channel.Option{channel.WithLogger(h.logger)}
	if h.breaker != nil {
		opts = append(opts, channel.WithCircuitBreaker(*h.breaker))
	}

	ch, err := channel.New(p, vs, opts...)
	if err != nil {
		return nil, err
	}

	return ch, nil
}

// withSchema appends the push data schema check to push validators.
func withSchema[M message.Variant](h *Herald, vs []channel.Validator[M]) ([]channel.Validator[M], error) {
	if h.pushSchema == nil {
		return vs, nil
	}
	push, ok := any(vs).([]channel.Validator[message.Push])
	if !ok {
		return vs, nil
	}

	check, err := h.schema.PushData(h.pushSchema)
	if err != nil {
		return nil, fmt.Errorf("herald: push data schema: %w", err)
	}
	push = append(slices.Clip(push), check)

	return any(push).([]channel.Validator[M]), nil
}
