package message

import "fmt"

// Describe returns a short human-readable summary of m suitable for logs.
// Device tokens are masked.
func Describe(m Message) string {
	switch v := m.(type) {
	case nil:
		return "<nil message>"
	case Email:
		return fmt.Sprintf("email to %s [subject: %s]", v.To, Truncate(v.Subject, 60))
	case SMS:
		return fmt.Sprintf("sms to %s [%d chars]", v.PhoneNumber, len([]rune(v.Text)))
	case Push:
		return fmt.Sprintf("push to device %s [title: %s]", MaskToken(v.DeviceToken), Truncate(v.Title, 60))
	case Chat:
		return fmt.Sprintf("chat message to %s", v.Channel)
	default:
		return fmt.Sprintf("%s message to %s", m.Kind(), m.Recipient())
	}
}

// MaskToken hides all but the first and last four characters of a secret.
// Values of eight characters or fewer are fully masked.
func MaskToken(token string) string {
	r := []rune(token)
	if len(r) <= 8 {
		return "[***]"
	}

	return string(r[:4]) + "..." + string(r[len(r)-4:])
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}

	return string(r[:n]) + "..."
}
