// Package validate holds the built-in rule sets for each message kind.
//
// Each rule set returns every problem it finds, in a fixed order, so callers
// can report all of them at once. An empty slice means the message is valid.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xraph/herald/message"
)

// Rule-set limits.
const (
	MaxSMSLength         = 1600
	MinDeviceTokenLength = 10
)

// Problem descriptions. Format problems are followed by the offending value.
const (
	RecipientRequired      = "Recipient (to) is required"
	RecipientInvalidFormat = "Recipient (to) has invalid email format: "
	SenderRequired         = "Sender (from) is required"
	SenderInvalidFormat    = "Sender (from) has invalid email format: "
	SubjectRequired        = "Subject is required"
	BodyRequired           = "Body is required"
	CCInvalidFormat        = "CC address has invalid email format: "
	BCCInvalidFormat       = "BCC address has invalid email format: "
	PhoneRequired          = "Phone number is required"
	PhoneInvalidFormat     = "Phone number must be in E.164 format (e.g., +1234567890): "
	TextRequired           = "Message is required"
	TextTooLong            = "Message exceeds maximum length of %d characters (actual: %d)"
	DeviceTokenRequired    = "Device token is required"
	DeviceTokenTooShort    = "Device token must be at least %d characters"
	TitleRequired          = "Title is required"
	ChannelRequired        = "Channel is required"
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	e164Pattern  = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
)

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// IsEmailAddress reports whether s looks like a deliverable email address.
func IsEmailAddress(s string) bool { return emailPattern.MatchString(s) }

// IsE164 reports whether s is an E.164 phone number such as +14155550100.
func IsE164(s string) bool { return e164Pattern.MatchString(s) }

// Email checks recipient, sender, subject, body and every CC and BCC address.
func Email(m message.Email) []string {
	var problems []string

	switch {
	case blank(m.To):
		problems = append(problems, RecipientRequired)
	case !IsEmailAddress(m.To):
		problems = append(problems, RecipientInvalidFormat+m.To)
	}

	switch {
	case blank(m.From):
		problems = append(problems, SenderRequired)
	case !IsEmailAddress(m.From):
		problems = append(problems, SenderInvalidFormat+m.From)
	}

	if blank(m.Subject) {
		problems = append(problems, SubjectRequired)
	}
	if blank(m.Body) {
		problems = append(problems, BodyRequired)
	}

	for _, cc := range m.CC {
		if !IsEmailAddress(cc) {
			problems = append(problems, CCInvalidFormat+cc)
		}
	}
	for _, bcc := range m.BCC {
		if !IsEmailAddress(bcc) {
			problems = append(problems, BCCInvalidFormat+bcc)
		}
	}

	return problems
}

// SMS checks the phone number format, sender and message length.
func SMS(m message.SMS) []string {
	var problems []string

	switch {
	case blank(m.PhoneNumber):
		problems = append(problems, PhoneRequired)
	case !IsE164(m.PhoneNumber):
		problems = append(problems, PhoneInvalidFormat+m.PhoneNumber)
	}

	if blank(m.From) {
		problems = append(problems, SenderRequired)
	}

	switch n := utf8.RuneCountInString(m.Text); {
	case blank(m.Text):
		problems = append(problems, TextRequired)
	case n > MaxSMSLength:
		problems = append(problems, fmt.Sprintf(TextTooLong, MaxSMSLength, n))
	}

	return problems
}

// Push checks the device token, title and body.
func Push(m message.Push) []string {
	var problems []string

	switch {
	case blank(m.DeviceToken):
		problems = append(problems, DeviceTokenRequired)
	case utf8.RuneCountInString(m.DeviceToken) < MinDeviceTokenLength:
		problems = append(problems, fmt.Sprintf(DeviceTokenTooShort, MinDeviceTokenLength))
	}

	if blank(m.Title) {
		problems = append(problems, TitleRequired)
	}
	if blank(m.Body) {
		problems = append(problems, BodyRequired)
	}

	return problems
}

// Chat checks the channel and text.
func Chat(m message.Chat) []string {
	var problems []string

	if blank(m.Channel) {
		problems = append(problems, ChannelRequired)
	}
	if blank(m.Text) {
		problems = append(problems, TextRequired)
	}

	return problems
}
