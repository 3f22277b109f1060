package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/herald/message"
	"github.com/xraph/herald/validate"
)

func TestEmail_Valid(t *testing.T) {
	m := message.NewEmail("noreply@acme.io", "jane@example.com", "Welcome", "Hello Jane").
		WithCC("ops@acme.io").
		WithBCC("audit@acme.io")

	assert.Empty(t, validate.Email(m))
}

func TestEmail_AllProblemsInOrder(t *testing.T) {
	m := message.Email{To: "not-an-email", From: " ", CC: []string{"ok@acme.io", "bad"}, BCC: []string{"also bad"}}

	assert.Equal(t, []string{
		validate.RecipientInvalidFormat + "not-an-email",
		validate.SenderRequired,
		validate.SubjectRequired,
		validate.BodyRequired,
		validate.CCInvalidFormat + "bad",
		validate.BCCInvalidFormat + "also bad",
	}, validate.Email(m))
}

func TestEmail_MissingRecipient(t *testing.T) {
	problems := validate.Email(message.NewEmail("a@acme.io", "", "s", "b"))
	assert.Equal(t, []string{validate.RecipientRequired}, problems)
}

func TestSMS(t *testing.T) {
	tests := []struct {
		name string
		msg  message.SMS
		want []string
	}{
		{"valid", message.NewSMS("Acme", "+14155550100", "Your code is 1234"), nil},
		{"missing phone", message.NewSMS("Acme", "", "hi"), []string{validate.PhoneRequired}},
		{"local format", message.NewSMS("Acme", "4155550100", "hi"), []string{validate.PhoneInvalidFormat + "4155550100"}},
		{"leading zero", message.NewSMS("Acme", "+0155550100", "hi"), []string{validate.PhoneInvalidFormat + "+0155550100"}},
		{"missing sender and text", message.NewSMS("", "+14155550100", ""), []string{validate.SenderRequired, validate.TextRequired}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validate.SMS(tt.msg))
		})
	}
}

func TestSMS_TooLong(t *testing.T) {
	text := strings.Repeat("a", validate.MaxSMSLength+1)
	problems := validate.SMS(message.NewSMS("Acme", "+14155550100", text))

	require.Len(t, problems, 1)
	assert.Equal(t, "Message exceeds maximum length of 1600 characters (actual: 1601)", problems[0])

	assert.Empty(t, validate.SMS(message.NewSMS("Acme", "+14155550100", text[:validate.MaxSMSLength])))
}

func TestPush(t *testing.T) {
	assert.Empty(t, validate.Push(message.NewPush("0123456789abcdef", "Order shipped", "On its way")))

	assert.Equal(t, []string{"Device token must be at least 10 characters"},
		validate.Push(message.NewPush("short", "t", "b")))

	assert.Equal(t, []string{validate.DeviceTokenRequired, validate.TitleRequired, validate.BodyRequired},
		validate.Push(message.Push{}))
}

func TestChat(t *testing.T) {
	assert.Empty(t, validate.Chat(message.NewChat("#deploys", "v1.2.0 is live")))
	assert.Equal(t, []string{validate.ChannelRequired, validate.TextRequired}, validate.Chat(message.Chat{}))
}
