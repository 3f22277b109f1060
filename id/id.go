// Package id defines TypeID-based identifiers for Herald's runtime objects.
//
// Lifecycle events, listener subscriptions and batches each carry an ID whose
// prefix names the object type. IDs are K-sortable (UUIDv7-based), globally
// unique, and URL-safe in the format "prefix_suffix".
package id

import (
	"errors"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the object type encoded in a TypeID.
type Prefix string

// Prefix constants for Herald object types.
const (
	PrefixEvent        Prefix = "evt"
	PrefixSubscription Prefix = "sub"
	PrefixBatch        Prefix = "batch"
)

// ID wraps a TypeID providing a prefix-qualified, globally unique,
// sortable identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// ErrInvalid is returned for malformed IDs and for IDs of the wrong type.
var ErrInvalid = errors.New("id: invalid id")

// Parse decodes the string form of an ID. A non-empty want also requires
// the ID to carry that prefix.
func Parse(s string, want Prefix) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("%w: empty string", ErrInvalid)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("%w: %q: %v", ErrInvalid, s, err)
	}

	parsed := ID{inner: tid, valid: true}
	if want != "" && parsed.Prefix() != want {
		return Nil, fmt.Errorf("%w: %q is a %s id, not %s", ErrInvalid, s, parsed.Prefix(), want)
	}

	return parsed, nil
}

// NewEventID generates a new lifecycle event ID.
func NewEventID() ID { return New(PrefixEvent) }

// NewSubscriptionID generates a new listener subscription ID.
func NewSubscriptionID() ID { return New(PrefixSubscription) }

// NewBatchID generates a new batch ID.
func NewBatchID() ID { return New(PrefixBatch) }

// ParseSubscriptionID decodes a listener subscription ID.
func ParseSubscriptionID(s string) (ID, error) { return Parse(s, PrefixSubscription) }

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data), "")
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}
