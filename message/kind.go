package message

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned by ParseKind for an unrecognised kind name.
var ErrUnknownKind = errors.New("message: unknown kind")

// Kind discriminates which channel handler processes a message.
type Kind string

// Built-in message kinds.
const (
	KindEmail Kind = "email"
	KindSMS   Kind = "sms"
	KindPush  Kind = "push"
	KindChat  Kind = "chat"
)

// Kinds returns every built-in kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindEmail, KindSMS, KindPush, KindChat}
}

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the built-in kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindEmail, KindSMS, KindPush, KindChat:
		return true
	default:
		return false
	}
}

// ParseKind converts a kind name such as "email" into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}

	return k, nil
}
