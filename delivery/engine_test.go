package delivery_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/herald/delivery"
	"github.com/xraph/herald/event"
	"github.com/xraph/herald/id"
	"github.com/xraph/herald/message"
	"github.com/xraph/herald/result"
)

func newEngine(t *testing.T, h *fakeHandler, cfg delivery.EngineConfig, rec *recorder) *delivery.Engine {
	t.Helper()

	d := newDispatcher(t, map[message.Kind]delivery.Handler{message.KindChat: h}, rec)
	cfg.Publisher = rec
	e, err := delivery.NewEngine(d, cfg, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(context.Background()) })

	return e
}

func waitFuture[T any](t *testing.T, f *delivery.Future[T]) T {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	v, err := f.Wait(ctx)
	if err != nil {
		t.Fatalf("future did not resolve: %v", err)
	}

	return v
}

func TestSendAsyncDoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	h := &fakeHandler{fn: func(context.Context, int32, message.Message) result.Result {
		<-release
		return result.Success("late")
	}}
	rec := &recorder{}
	e := newEngine(t, h, delivery.EngineConfig{}, rec)

	start := time.Now()
	fut := e.SendAsync(context.Background(), chat("#ops"))
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("SendAsync blocked the caller")
	}

	select {
	case <-fut.Done():
		t.Fatal("future resolved before the handler returned")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	if res := waitFuture(t, fut); res.MessageID != "late" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if rec.types()[0] != event.TypeQueued {
		t.Fatalf("first event = %s, want queued", rec.types()[0])
	}
}

func TestSendAsyncRecoversPanics(t *testing.T) {
	e, err := delivery.NewEngine(senderFunc(func(context.Context, message.Message) result.Result {
		panic("scheduler bug")
	}), delivery.EngineConfig{}, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	res := waitFuture(t, e.SendAsync(context.Background(), chat("#ops")))
	if res.Category != result.CategorySystem || !errors.Is(res.Cause, delivery.ErrAsyncPanic) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.HasPrefix(res.Error, "Async execution failed: ") {
		t.Fatalf("error = %q", res.Error)
	}
}

func TestSendAsyncIgnoresCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	h := &fakeHandler{fn: func(ctx context.Context, _ int32, _ message.Message) result.Result {
		<-release
		if ctx.Err() != nil {
			return result.System("cancelled", ctx.Err())
		}
		return result.Success("done")
	}}
	e := newEngine(t, h, delivery.EngineConfig{}, &recorder{})

	ctx, cancel := context.WithCancel(context.Background())
	fut := e.SendAsync(ctx, chat("#ops"))
	cancel()

	if _, err := fut.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait on a cancelled context should return its error, got %v", err)
	}

	close(release)
	if res := waitFuture(t, fut); !res.Successful {
		t.Fatalf("abandoned send should still complete: %+v", res)
	}
}

func TestSendBatchPreservesOrderAndIsFailSoft(t *testing.T) {
	h := &fakeHandler{fn: func(_ context.Context, _ int32, msg message.Message) result.Result {
		if msg.Recipient() == "#bad" {
			return result.Provider("Fake", "rejected", nil)
		}
		return result.Success("ok-" + msg.Recipient())
	}}
	e := newEngine(t, h, delivery.EngineConfig{Concurrency: 3}, &recorder{})

	msgs := []message.Message{chat("#a"), chat("#b"), chat("#bad"), chat("#c"), chat("#d")}
	br := waitFuture(t, e.SendBatch(context.Background(), msgs))

	if len(br.Results) != len(msgs) {
		t.Fatalf("results = %d, want %d", len(br.Results), len(msgs))
	}
	for i, res := range br.Results {
		if i == 2 {
			if res.Successful {
				t.Fatal("index 2 should have failed")
			}
			continue
		}
		if want := "ok-" + msgs[i].Recipient(); res.MessageID != want {
			t.Fatalf("result %d = %q, want %q", i, res.MessageID, want)
		}
	}
	if br.Succeeded() != 4 || br.Failed() != 1 {
		t.Fatalf("succeeded=%d failed=%d", br.Succeeded(), br.Failed())
	}
	if br.ID.Prefix() != id.PrefixBatch {
		t.Fatalf("batch id prefix = %q", br.ID.Prefix())
	}
}

func TestSendBatchEmpty(t *testing.T) {
	e := newEngine(t, &fakeHandler{}, delivery.EngineConfig{}, &recorder{})

	br := waitFuture(t, e.SendBatch(context.Background(), nil))
	if len(br.Results) != 0 {
		t.Fatalf("results = %d, want 0", len(br.Results))
	}
}

func TestSendBatchNilEntry(t *testing.T) {
	e := newEngine(t, &fakeHandler{}, delivery.EngineConfig{}, &recorder{})

	br := waitFuture(t, e.SendBatch(context.Background(), []message.Message{chat("#a"), nil}))
	if !br.Results[0].Successful || br.Results[1].Category != result.CategoryValidation {
		t.Fatalf("unexpected results: %+v", br.Results)
	}
}

func TestEngineBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	h := &fakeHandler{fn: func(context.Context, int32, message.Message) result.Result {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return result.Success("x")
	}}
	e := newEngine(t, h, delivery.EngineConfig{Concurrency: 2}, &recorder{})

	msgs := make([]message.Message, 10)
	for i := range msgs {
		msgs[i] = chat("#ops")
	}
	waitFuture(t, e.SendBatch(context.Background(), msgs))

	if peak.Load() > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestEngineAsyncRetry(t *testing.T) {
	rec := &recorder{}
	h := &fakeHandler{fn: failTimes(2)}
	policy := fastPolicy(3)
	e := newEngine(t, h, delivery.EngineConfig{Retry: &policy}, rec)

	res := waitFuture(t, e.SendAsync(context.Background(), chat("#ops")))
	if !res.Successful || h.calls.Load() != 3 {
		t.Fatalf("result %+v after %d calls", res, h.calls.Load())
	}
	if rec.count(event.TypeRetrying) != 2 {
		t.Fatalf("retrying events = %d, want 2", rec.count(event.TypeRetrying))
	}
}

func TestEngineRetryWaitReleasesWorker(t *testing.T) {
	h := &fakeHandler{fn: func(_ context.Context, _ int32, msg message.Message) result.Result {
		if msg.Recipient() == "#flaky" {
			return result.Provider("Fake", "try later", nil)
		}
		return result.Success("fast")
	}}
	policy := delivery.RetryPolicy{MaxAttempts: 2, InitialDelay: 300 * time.Millisecond, BackoffMultiplier: 1, MaxDelay: time.Second}
	e := newEngine(t, h, delivery.EngineConfig{Concurrency: 1, Retry: &policy}, &recorder{})

	flaky := e.SendAsync(context.Background(), chat("#flaky"))
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	fast := waitFuture(t, e.SendAsync(context.Background(), chat("#fast")))
	if !fast.Successful || time.Since(start) > 200*time.Millisecond {
		t.Fatal("a pending retry must not occupy the only worker slot")
	}

	select {
	case <-flaky.Done():
		t.Fatal("flaky send should still be waiting for its retry")
	default:
	}
	waitFuture(t, flaky)
}

func TestEngineRateLimit(t *testing.T) {
	e := newEngine(t, &fakeHandler{}, delivery.EngineConfig{
		RateLimits: map[message.Kind]int{message.KindChat: 2},
	}, &recorder{})

	start := time.Now()
	waitFuture(t, e.SendBatch(context.Background(), []message.Message{chat("#a"), chat("#b"), chat("#c")}))
	if elapsed := time.Since(start); elapsed < 300*time.Millisecond {
		t.Fatalf("third send should wait for a token, batch took %v", elapsed)
	}
}

func TestEngineClose(t *testing.T) {
	release := make(chan struct{})
	h := &fakeHandler{fn: func(context.Context, int32, message.Message) result.Result {
		<-release
		return result.Success("x")
	}}
	e := newEngine(t, h, delivery.EngineConfig{}, &recorder{})

	inFlight := e.SendAsync(context.Background(), chat("#ops"))

	short, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := e.Close(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close should time out while work is in flight, got %v", err)
	}

	late := waitFuture(t, e.SendAsync(context.Background(), chat("#ops")))
	if late.Category != result.CategorySystem || !errors.Is(late.Cause, delivery.ErrEngineClosed) {
		t.Fatalf("send after close: %+v", late)
	}

	close(release)
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if res := waitFuture(t, inFlight); !res.Successful {
		t.Fatalf("in-flight send should complete: %+v", res)
	}
}
