// Package event defines notification lifecycle events and the Bus that fans
// them out to subscribed listeners.
package event

import (
	"fmt"
	"time"

	"github.com/xraph/herald/id"
	"github.com/xraph/herald/message"
	"github.com/xraph/herald/result"
)

// Type is the lifecycle stage an event reports.
type Type string

// Lifecycle event types.
const (
	TypeQueued   Type = "queued"
	TypeSending  Type = "sending"
	TypeSent     Type = "sent"
	TypeFailed   Type = "failed"
	TypeRetrying Type = "retrying"
)

// Event is an immutable lifecycle notification.
type Event struct {
	// ID is the unique TypeID for this event.
	ID id.ID `json:"id"`

	Type      Type         `json:"type"`
	Kind      message.Kind `json:"kind"`
	Recipient string       `json:"recipient"`

	// Attempt is 1-indexed. Queued events report 0 since no attempt has
	// been made yet.
	Attempt int `json:"attempt"`

	// Result is set on Sent and Failed events only.
	Result *result.Result `json:"result,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

func newEvent(t Type, kind message.Kind, recipient string, attempt int, res *result.Result) Event {
	return Event{
		ID:        id.NewEventID(),
		Type:      t,
		Kind:      kind,
		Recipient: recipient,
		Attempt:   attempt,
		Result:    res,
		Timestamp: time.Now(),
	}
}

// Queued reports that a message was accepted for asynchronous sending.
func Queued(kind message.Kind, recipient string) Event {
	return newEvent(TypeQueued, kind, recipient, 0, nil)
}

// Sending reports that attempt is about to be handed to a channel.
func Sending(kind message.Kind, recipient string, attempt int) Event {
	return newEvent(TypeSending, kind, recipient, attempt, nil)
}

// Sent reports a successful attempt.
func Sent(kind message.Kind, recipient string, attempt int, res result.Result) Event {
	return newEvent(TypeSent, kind, recipient, attempt, &res)
}

// Failed reports a failed attempt.
func Failed(kind message.Kind, recipient string, attempt int, res result.Result) Event {
	return newEvent(TypeFailed, kind, recipient, attempt, &res)
}

// Retrying reports that attempt is scheduled after an earlier failure.
func Retrying(kind message.Kind, recipient string, attempt int) Event {
	return newEvent(TypeRetrying, kind, recipient, attempt, nil)
}

// Describe returns a one-line human-readable summary of e.
func (e Event) Describe() string {
	switch e.Type {
	case TypeQueued:
		return fmt.Sprintf("%s notification to %s queued", e.Kind, e.Recipient)
	case TypeSending:
		return fmt.Sprintf("sending %s notification to %s (attempt %d)", e.Kind, e.Recipient, e.Attempt)
	case TypeSent:
		msgID := ""
		if e.Result != nil {
			msgID = e.Result.MessageID
		}
		return fmt.Sprintf("%s notification to %s sent [%s]", e.Kind, e.Recipient, msgID)
	case TypeFailed:
		reason := ""
		if e.Result != nil {
			reason = e.Result.Error
		}
		return fmt.Sprintf("%s notification to %s failed (attempt %d): %s", e.Kind, e.Recipient, e.Attempt, reason)
	case TypeRetrying:
		return fmt.Sprintf("retrying %s notification to %s (attempt %d)", e.Kind, e.Recipient, e.Attempt)
	default:
		return fmt.Sprintf("%s event for %s notification to %s", e.Type, e.Kind, e.Recipient)
	}
}
