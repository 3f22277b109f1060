package herald

import (
	"context"
	"log/slog"

	"github.com/xraph/herald/channel"
	"github.com/xraph/herald/delivery"
	"github.com/xraph/herald/event"
	"github.com/xraph/herald/id"
	"github.com/xraph/herald/message"
	"github.com/xraph/herald/observability"
	"github.com/xraph/herald/result"
	"github.com/xraph/herald/template"
	"github.com/xraph/herald/validate"
)

// Herald is the root notification dispatcher.
type Herald struct {
	config     Config
	builders   map[message.Kind]handlerBuilder
	listeners  []event.Listener
	breaker    *channel.BreakerSettings
	pushSchema any

	bus        *event.Bus
	dispatcher *delivery.Dispatcher
	retrier    *delivery.Retrier
	engine     *delivery.Engine
	templates  *template.Registry
	schema     *validate.SchemaValidator

	metrics *observability.Metrics
	tracer  *observability.Tracer
	logger  *slog.Logger
}

// New creates a new Herald with the given options. At least one channel or
// handler must be configured.
func New(opts ...Option) (*Herald, error) {
	h := &Herald{
		config:    DefaultConfig(),
		builders:  make(map[message.Kind]handlerBuilder),
		templates: template.NewRegistry(nil),
		schema:    validate.NewSchemaValidator(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	if len(h.builders) == 0 {
		return nil, ErrNoChannels
	}
	if err := h.config.Validate(); err != nil {
		return nil, err
	}
	if err := h.wireServices(); err != nil {
		return nil, err
	}

	h.logger.Debug("herald ready",
		"channels", len(h.builders),
		"listeners", h.bus.Len(),
		"templates", h.templates.Len(),
	)

	return h, nil
}

// wireServices builds handlers and the dispatch stack after options have been applied.
func (h *Herald) wireServices() error {
	h.bus = event.NewBus(h.logger, h.metrics)
	for _, l := range h.listeners {
		h.bus.Subscribe(l)
	}

	handlers := make(map[message.Kind]delivery.Handler, len(h.builders))
	for kind, build := range h.builders {
		handler, err := build(h)
		if err != nil {
			return err
		}
		handlers[kind] = handler
	}

	dispatcher, err := delivery.NewDispatcher(handlers, delivery.DispatcherConfig{
		Publisher: h.bus,
		Metrics:   h.metrics,
		Tracer:    h.tracer,
	}, h.logger)
	if err != nil {
		return err
	}
	h.dispatcher = dispatcher

	policy := h.config.RetryPolicy()
	h.retrier, err = delivery.NewRetrier(dispatcher, policy, delivery.RetrierConfig{
		Publisher: h.bus,
		Metrics:   h.metrics,
	}, h.logger)
	if err != nil {
		return err
	}

	engineCfg := delivery.EngineConfig{
		Concurrency: h.config.Concurrency,
		RateLimits:  h.config.RateLimits,
		Publisher:   h.bus,
		Metrics:     h.metrics,
		Tracer:      h.tracer,
	}
	if h.config.AsyncRetry {
		engineCfg.Retry = &policy
	}
	h.engine, err = delivery.NewEngine(dispatcher, engineCfg, h.logger)

	return err
}

// Send makes a single delivery attempt.
func (h *Herald) Send(ctx context.Context, msg message.Message) result.Result {
	return h.dispatcher.Dispatch(ctx, msg)
}

// SendWithRetry delivers msg under the configured retry policy and returns
// the last attempt's result.
func (h *Herald) SendWithRetry(ctx context.Context, msg message.Message) result.Result {
	return h.retrier.SendWithRetry(ctx, msg)
}

// SendAsync schedules msg for background delivery and returns immediately.
func (h *Herald) SendAsync(ctx context.Context, msg message.Message) *delivery.Future[result.Result] {
	return h.engine.SendAsync(ctx, msg)
}

// SendBatch schedules every message and resolves once all have completed.
// Results are in submission order and one failure never affects another.
func (h *Herald) SendBatch(ctx context.Context, msgs []message.Message) *delivery.Future[delivery.BatchResult] {
	return h.engine.SendBatch(ctx, msgs)
}

// IsChannelAvailable reports whether a channel is configured for kind and
// currently able to send.
func (h *Herald) IsChannelAvailable(kind message.Kind) bool {
	return h.dispatcher.Available(kind)
}

// Channels returns the configured kinds in sorted order.
func (h *Herald) Channels() []message.Kind {
	return h.dispatcher.Kinds()
}

// Subscribe registers l for lifecycle events. The returned ID is used to
// unsubscribe.
func (h *Herald) Subscribe(l event.Listener) id.ID {
	return h.bus.Subscribe(l)
}

// Unsubscribe removes a listener. It reports whether the subscription existed.
func (h *Herald) Unsubscribe(subID id.ID) bool {
	return h.bus.Unsubscribe(subID)
}

// UnsubscribeID removes a listener by the string form of its subscription
// ID, as returned by Subscribe and stored or sent elsewhere.
func (h *Herald) UnsubscribeID(raw string) (bool, error) {
	subID, err := id.ParseSubscriptionID(raw)
	if err != nil {
		return false, err
	}

	return h.bus.Unsubscribe(subID), nil
}

// RenderTemplate renders a registered template with vars.
func (h *Herald) RenderTemplate(name string, vars map[string]string) (string, error) {
	return h.templates.Render(name, vars)
}

// Templates returns the template registry.
func (h *Herald) Templates() *template.Registry {
	return h.templates
}

// RetryPolicy returns the policy used by SendWithRetry.
func (h *Herald) RetryPolicy() delivery.RetryPolicy {
	return h.retrier.Policy()
}

// Close stops accepting async sends and waits for in-flight ones. Without a
// deadline on ctx it waits at most the configured shutdown timeout.
func (h *Herald) Close(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok && h.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.ShutdownTimeout)
		defer cancel()
	}

	if err := h.engine.Close(ctx); err != nil {
		h.logger.WarnContext(ctx, "herald close timed out", "error", err)
		return err
	}

	return nil
}
