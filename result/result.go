// Package result defines the outcome value returned by every send path.
package result

import (
	"fmt"
	"time"
)

// Category classifies why a send failed.
type Category string

// Failure categories. Successful results carry the empty category.
const (
	CategoryValidation    Category = "validation"
	CategoryConfiguration Category = "configuration"
	CategoryProvider      Category = "provider"
	CategorySystem        Category = "system"
)

// Retryable reports whether a failure of this category may succeed on a
// later attempt.
func (c Category) Retryable() bool {
	return c == CategoryProvider || c == CategorySystem
}

// String implements fmt.Stringer.
func (c Category) String() string { return string(c) }

// Result is the immutable outcome of one send attempt.
//
// A successful result has a MessageID and no error fields. A failed result
// always has a Category and an Error message, and carries Provider only when
// Category is CategoryProvider.
type Result struct {
	Successful bool      `json:"successful"`
	MessageID  string    `json:"message_id,omitempty"`
	Category   Category  `json:"category,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	Error      string    `json:"error,omitempty"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
}

// Success returns a successful result for the provider-assigned message ID.
func Success(messageID string) Result {
	return Result{Successful: true, MessageID: messageID, Timestamp: time.Now()}
}

// Validation returns a failure describing an invalid message.
func Validation(msg string) Result {
	return failure(CategoryValidation, "", msg, nil)
}

// Configuration returns a failure caused by missing or unavailable setup.
func Configuration(msg string, cause error) Result {
	return failure(CategoryConfiguration, "", msg, cause)
}

// Provider returns a failure reported by the named external provider.
func Provider(name, msg string, cause error) Result {
	return failure(CategoryProvider, name, msg, cause)
}

// System returns a failure caused by an unexpected internal fault.
func System(msg string, cause error) Result {
	return failure(CategorySystem, "", msg, cause)
}

func failure(c Category, provider, msg string, cause error) Result {
	return Result{
		Category:  c,
		Provider:  provider,
		Error:     msg,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// Retryable reports whether r is a failure worth attempting again.
func (r Result) Retryable() bool {
	return !r.Successful && r.Category.Retryable()
}

// Source names where a failure originated, e.g. "provider:SendGrid" or
// "validation". It is empty for successful results.
func (r Result) Source() string {
	switch {
	case r.Successful:
		return ""
	case r.Category == CategoryProvider && r.Provider != "":
		return "provider:" + r.Provider
	default:
		return string(r.Category)
	}
}

// Err converts a failed result into an error. It returns nil on success.
func (r Result) Err() error {
	if r.Successful {
		return nil
	}

	return &Error{Category: r.Category, Provider: r.Provider, Message: r.Error, Cause: r.Cause}
}

// String implements fmt.Stringer.
func (r Result) String() string {
	if r.Successful {
		return "sent " + r.MessageID
	}

	return fmt.Sprintf("failed [%s]: %s", r.Source(), r.Error)
}

// Error is the error form of a failed Result.
type Error struct {
	Category Category
	Provider string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s failure (%s): %s", e.Category, e.Provider, e.Message)
	}

	return fmt.Sprintf("%s failure: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }
