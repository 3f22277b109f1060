// Package message defines the closed family of notification payloads Herald
// can deliver: Email, SMS, Push and Chat.
//
// Messages are plain values. Every With* method returns a modified copy and
// constructors clone the slices and maps they are given, so a message handed
// to a dispatcher cannot be changed underneath it.
package message

import (
	"maps"
	"slices"
)

// Message is implemented by Email, SMS, Push and Chat only.
type Message interface {
	// Kind returns the discriminator used to select a channel.
	Kind() Kind
	// Recipient returns the primary destination used in lifecycle events.
	Recipient() string

	sealed()
}

// Variant is a type constraint satisfied by exactly the concrete message types.
type Variant interface {
	Email | SMS | Push | Chat
	Message
}

// Email is an email notification.
type Email struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	HTML    bool     `json:"html,omitempty"`
	CC      []string `json:"cc,omitempty"`
	BCC     []string `json:"bcc,omitempty"`
}

// NewEmail returns a plain-text email.
func NewEmail(from, to, subject, body string) Email {
	return Email{From: from, To: to, Subject: subject, Body: body}
}

// NewHTMLEmail returns an email whose body is HTML.
func NewHTMLEmail(from, to, subject, body string) Email {
	return Email{From: from, To: to, Subject: subject, Body: body, HTML: true}
}

// WithCC returns a copy of e with addrs appended to the CC list.
func (e Email) WithCC(addrs ...string) Email {
	e.CC = append(slices.Clone(e.CC), addrs...)
	return e
}

// WithBCC returns a copy of e with addrs appended to the BCC list.
func (e Email) WithBCC(addrs ...string) Email {
	e.BCC = append(slices.Clone(e.BCC), addrs...)
	return e
}

func (Email) Kind() Kind          { return KindEmail }
func (e Email) Recipient() string { return e.To }
func (Email) sealed()             {}

// SMS is a text message addressed to an E.164 phone number.
type SMS struct {
	From        string `json:"from"`
	PhoneNumber string `json:"phone_number"`
	Text        string `json:"text"`
}

// NewSMS returns an SMS message.
func NewSMS(from, phoneNumber, text string) SMS {
	return SMS{From: from, PhoneNumber: phoneNumber, Text: text}
}

func (SMS) Kind() Kind          { return KindSMS }
func (s SMS) Recipient() string { return s.PhoneNumber }
func (SMS) sealed()             {}

// Push is a mobile push notification addressed to a device token.
type Push struct {
	DeviceToken string            `json:"device_token"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	Badge       *int              `json:"badge,omitempty"`
	Sound       string            `json:"sound,omitempty"`
}

// NewPush returns a push notification.
func NewPush(deviceToken, title, body string) Push {
	return Push{DeviceToken: deviceToken, Title: title, Body: body}
}

// WithData returns a copy of p whose data payload is merged with data.
func (p Push) WithData(data map[string]string) Push {
	merged := maps.Clone(p.Data)
	if merged == nil {
		merged = make(map[string]string, len(data))
	}
	maps.Copy(merged, data)
	p.Data = merged

	return p
}

// WithBadge returns a copy of p with the badge count set.
func (p Push) WithBadge(n int) Push {
	p.Badge = &n
	return p
}

// WithSound returns a copy of p with the named sound.
func (p Push) WithSound(sound string) Push {
	p.Sound = sound
	return p
}

func (Push) Kind() Kind          { return KindPush }
func (p Push) Recipient() string { return p.DeviceToken }
func (Push) sealed()             {}

// Chat is a message posted to a team chat channel such as Slack.
type Chat struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

// NewChat returns a chat message.
func NewChat(channel, text string) Chat {
	return Chat{Channel: channel, Text: text}
}

// WithUsername returns a copy of c posted under username.
func (c Chat) WithUsername(username string) Chat {
	c.Username = username
	return c
}

// WithIconEmoji returns a copy of c using the given emoji as avatar.
func (c Chat) WithIconEmoji(emoji string) Chat {
	c.IconEmoji = emoji
	return c
}

func (Chat) Kind() Kind          { return KindChat }
func (c Chat) Recipient() string { return c.Channel }
func (Chat) sealed()             {}
