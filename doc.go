// Package herald dispatches notifications across email, SMS, push and chat
// channels.
//
// Herald is a library, not a service. Each message kind is bound to one
// channel, which validates the message and hands it to a provider. On top
// of that single dispatch path Herald layers retry with exponential backoff,
// bounded asynchronous and batch sending, and a lifecycle event bus that
// reports every queued, sending, sent, failed and retrying transition.
//
// Failures are values: every send returns a result.Result whose Category
// says whether the failure was caused by the message (validation), the
// setup (configuration), the backend (provider) or Herald itself (system).
// Only provider and system failures are retried.
//
// Quick start:
//
//	h, err := herald.New(
//	    herald.WithSendGrid(os.Getenv("SENDGRID_API_KEY")),
//	    herald.WithTwilio(sid, token),
//	    herald.WithRetryPolicy(delivery.DefaultRetryPolicy()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close(context.Background())
//
//	res := h.SendWithRetry(ctx, message.NewEmail(
//	    "ops@example.com", "ada@example.com", "Welcome", "Hello Ada",
//	))
//	if !res.Successful {
//	    log.Printf("send failed: %s", res)
//	}
package herald
