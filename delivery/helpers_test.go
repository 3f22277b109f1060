package delivery_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/xraph/herald/event"
	"github.com/xraph/herald/message"
	"github.com/xraph/herald/result"
)

// fakeHandler counts calls and delegates to fn when set.
type fakeHandler struct {
	unavailable atomic.Bool
	calls       atomic.Int32
	fn          func(ctx context.Context, call int32, msg message.Message) result.Result
}

func (h *fakeHandler) Available() bool { return !h.unavailable.Load() }

func (h *fakeHandler) Send(ctx context.Context, msg message.Message) result.Result {
	n := h.calls.Add(1)
	if h.fn != nil {
		return h.fn(ctx, n, msg)
	}

	return result.Success(fmt.Sprintf("id-%d", n))
}

// failTimes returns a handler fn that fails with a provider error for the
// first n calls and succeeds afterwards.
func failTimes(n int32) func(context.Context, int32, message.Message) result.Result {
	return func(_ context.Context, call int32, _ message.Message) result.Result {
		if call <= n {
			return result.Provider("Fake", fmt.Sprintf("failure %d", call), nil)
		}

		return result.Success(fmt.Sprintf("id-%d", call))
	}
}

// recorder is a Publisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Publish(_ context.Context, e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]event.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}

	return out
}

func (r *recorder) attempts() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, len(r.events))
	for i, e := range r.events {
		out[i] = e.Attempt
	}

	return out
}

func (r *recorder) count(t event.Type) int {
	n := 0
	for _, got := range r.types() {
		if got == t {
			n++
		}
	}

	return n
}

// senderFunc adapts a function to delivery.Sender.
type senderFunc func(ctx context.Context, msg message.Message) result.Result

func (f senderFunc) Dispatch(ctx context.Context, msg message.Message) result.Result {
	return f(ctx, msg)
}

func chat(channel string) message.Chat {
	return message.NewChat(channel, "hello")
}
