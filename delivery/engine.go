package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/xraph/herald/event"
	"github.com/xraph/herald/id"
	"github.com/xraph/herald/message"
	"github.com/xraph/herald/observability"
	"github.com/xraph/herald/ratelimit"
	"github.com/xraph/herald/result"
)

const defaultConcurrency = 10

// EngineConfig holds engine configuration.
type EngineConfig struct {
	// Concurrency bounds simultaneous dispatches. Zero means 10.
	Concurrency int

	// Retry applies to async sends. Nil means a single attempt.
	Retry *RetryPolicy

	// RateLimits caps sends per second for each kind. Missing or zero means unlimited.
	RateLimits map[message.Kind]int

	Publisher event.Publisher
	Metrics   *observability.Metrics
	Tracer    *observability.Tracer
}

// Engine runs sends in the background with bounded concurrency.
//
// Callers never block: a task acquires its worker slot on its own goroutine.
// Retry waits are scheduled with timers and hold no slot.
type Engine struct {
	sender    Sender
	retrier   *Retrier
	sem       *semaphore.Weighted
	limiter   *ratelimit.Limiter
	publisher event.Publisher
	config    EngineConfig
	logger    *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewEngine creates an engine on top of sender.
func NewEngine(sender Sender, cfg EngineConfig, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = event.Discard
	}

	policy := NoRetry()
	if cfg.Retry != nil {
		policy = *cfg.Retry
	}
	retrier, err := NewRetrier(sender, policy, RetrierConfig{Publisher: publisher, Metrics: cfg.Metrics}, logger)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Engine{
		sender:    sender,
		retrier:   retrier,
		sem:       semaphore.NewWeighted(int64(concurrency)),
		limiter:   ratelimit.New(),
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}, nil
}

// SendAsync schedules msg and returns immediately. The future always
// resolves to a result; faults become System failures.
//
// Cancelling ctx does not stop the send; its values (trace spans) are kept.
func (e *Engine) SendAsync(ctx context.Context, msg message.Message) *Future[result.Result] {
	if !e.track() {
		return resolvedFuture(result.System("Engine is closed", ErrEngineClosed))
	}

	ctx = context.WithoutCancel(ctx)
	fut := newFuture[result.Result]()

	if !isNil(msg) {
		publish(ctx, e.publisher, e.logger, event.Queued(msg.Kind(), msg.Recipient()))
	}
	e.config.Metrics.TaskStarted()

	go e.attempt(ctx, msg, 1, fut)

	return fut
}

// BatchResult holds one result per submitted message, in submission order.
type BatchResult struct {
	ID      id.ID
	Results []result.Result
}

// Succeeded counts successful results.
func (b BatchResult) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.Successful {
			n++
		}
	}

	return n
}

// Failed counts failed results.
func (b BatchResult) Failed() int {
	return len(b.Results) - b.Succeeded()
}

// SendBatch schedules every message and returns a future that resolves once
// all of them have. A failure never affects its siblings.
func (e *Engine) SendBatch(ctx context.Context, msgs []message.Message) *Future[BatchResult] {
	batchID := id.NewBatchID()
	spanCtx, span := e.config.Tracer.StartBatchSpan(ctx, batchID.String(), len(msgs))

	futures := make([]*Future[result.Result], len(msgs))
	for i, m := range msgs {
		futures[i] = e.SendAsync(spanCtx, m)
	}

	e.logger.DebugContext(ctx, "batch submitted", "batch_id", batchID.String(), "size", len(msgs))

	logCtx := context.WithoutCancel(ctx)
	out := newFuture[BatchResult]()
	go func() {
		results := make([]result.Result, len(futures))
		for i, f := range futures {
			results[i] = f.Get()
		}

		br := BatchResult{ID: batchID, Results: results}
		e.config.Tracer.EndBatchSpan(span, br.Succeeded(), br.Failed())
		e.logger.InfoContext(logCtx, "batch complete",
			"batch_id", batchID.String(),
			"total", len(results),
			"succeeded", br.Succeeded(),
			"failed", br.Failed(),
		)

		out.resolve(br)
	}()

	return out
}

// Close stops accepting new sends and waits for in-flight ones, including
// scheduled retries, until ctx ends.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// track registers a new task unless the engine is closed.
func (e *Engine) track() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}
	e.wg.Add(1)

	return true
}

// attempt runs one attempt and either resolves fut or schedules the next
// attempt on a timer.
func (e *Engine) attempt(ctx context.Context, msg message.Message, n int, fut *Future[result.Result]) {
	res := e.run(ctx, msg, n)

	if !isNil(msg) && e.retrier.Decide(res, n) == Retry {
		next := n + 1
		delay := e.retrier.Policy().DelayForAttempt(n)
		kind := msg.Kind()

		publish(ctx, e.publisher, e.logger, event.Retrying(kind, msg.Recipient(), next))
		e.config.Metrics.RecordRetry(string(kind))
		e.logger.DebugContext(ctx, "async retry scheduled",
			"kind", string(kind),
			"attempt", next,
			"delay", delay,
		)

		time.AfterFunc(delay, func() { e.attempt(ctx, msg, next, fut) })

		return
	}

	fut.resolve(res)
	e.config.Metrics.TaskFinished()
	e.wg.Done()
}

// run performs a single rate-limited dispatch inside a worker slot.
func (e *Engine) run(ctx context.Context, msg message.Message, n int) (res result.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "async execution panicked", "panic", r)
			res = result.System(fmt.Sprintf("Async execution failed: %v", r), fmt.Errorf("%w: %v", ErrAsyncPanic, r))
		}
	}()

	if !isNil(msg) {
		kind := msg.Kind()
		if perSecond := e.config.RateLimits[kind]; perSecond > 0 {
			if err := e.limiter.Wait(ctx, string(kind), perSecond); err != nil {
				return result.System("Rate limit wait failed: "+err.Error(), err)
			}
		}
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return result.System("Worker slot unavailable: "+err.Error(), err)
	}
	defer e.sem.Release(1)

	return e.sender.Dispatch(ContextWithAttempt(ctx, n), msg)
}
