package provider_test

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/xraph/herald/channel"
	"github.com/xraph/herald/message"
	"github.com/xraph/herald/provider"
)

var (
	_ channel.Provider[message.Email] = (*provider.SendGrid)(nil)
	_ channel.Provider[message.Email] = (*provider.Mailgun)(nil)
	_ channel.Provider[message.SMS]   = (*provider.Twilio)(nil)
	_ channel.Provider[message.SMS]   = (*provider.Vonage)(nil)
	_ channel.Provider[message.Push]  = (*provider.FCM)(nil)
	_ channel.Provider[message.Push]  = (*provider.APNs)(nil)
	_ channel.Provider[message.Chat]  = (*provider.SlackWebhook)(nil)
	_ channel.Provider[message.Chat]  = (*provider.Func[message.Chat])(nil)
)

func TestConstructorsRejectBlankCredentials(t *testing.T) {
	checks := []func() error{
		func() error { _, err := provider.NewSendGrid(" ", nil); return err },
		func() error { _, err := provider.NewMailgun("key", "", nil); return err },
		func() error { _, err := provider.NewTwilio("", "token", nil); return err },
		func() error { _, err := provider.NewVonage("key", "", nil); return err },
		func() error { _, err := provider.NewFCM("", nil); return err },
		func() error { _, err := provider.NewAPNs("team", "key", "", nil); return err },
		func() error { _, err := provider.NewSlackWebhook("", nil); return err },
	}

	for i, check := range checks {
		if err := check(); !errors.Is(err, provider.ErrMissingCredential) {
			t.Errorf("check %d: expected ErrMissingCredential, got %v", i, err)
		}
	}
}

func TestSendGrid(t *testing.T) {
	p, err := provider.NewSendGrid("SG.very-secret-api-key", nil)
	require.NoError(t, err)

	m := message.NewHTMLEmail("noreply@acme.io", "jane@example.com", "Welcome", "<p>Hi</p>").WithCC("ops@acme.io")
	req, err := p.Request(m)
	require.NoError(t, err)

	body := string(req.Body)
	assert.Equal(t, "/v3/mail/send", req.Path)
	assert.Equal(t, "jane@example.com", gjson.Get(body, "personalizations.0.to.0.email").String())
	assert.Equal(t, "ops@acme.io", gjson.Get(body, "personalizations.0.cc.0.email").String())
	assert.False(t, gjson.Get(body, "personalizations.0.bcc").Exists())
	assert.Equal(t, "text/html", gjson.Get(body, "content.0.type").String())
	assert.NotContains(t, req.Headers["Authorization"], "very-secret")

	msgID, err := p.Send(context.Background(), m)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msgID, "sg-"))
}

func TestMailgun(t *testing.T) {
	p, err := provider.NewMailgun("key-123456789", "mg.acme.io", nil)
	require.NoError(t, err)

	req, err := p.Request(message.NewEmail("noreply@acme.io", "jane@example.com", "Hi", "plain").WithBCC("a@x.io", "b@x.io"))
	require.NoError(t, err)

	form, err := url.ParseQuery(string(req.Body))
	require.NoError(t, err)
	assert.Equal(t, "/v3/mg.acme.io/messages", req.Path)
	assert.Equal(t, "plain", form.Get("text"))
	assert.Empty(t, form.Get("html"))
	assert.Equal(t, "a@x.io,b@x.io", form.Get("bcc"))

	msgID, err := p.Send(context.Background(), message.NewEmail("a@x.io", "b@x.io", "s", "b"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msgID, "mg-"))
}

func TestTwilio(t *testing.T) {
	p, err := provider.NewTwilio("AC0123456789abcdef", "auth-token-value", nil)
	require.NoError(t, err)

	req, err := p.Request(message.NewSMS("+14155550000", "+14155550100", "code 1234"))
	require.NoError(t, err)
	assert.NotContains(t, req.Path, "AC0123456789abcdef")

	form, err := url.ParseQuery(string(req.Body))
	require.NoError(t, err)
	assert.Equal(t, "+14155550100", form.Get("To"))

	sid, err := p.Send(context.Background(), message.NewSMS("+14155550000", "+14155550100", "hi"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^SM[0-9a-f]{32}$`), sid)
}

func TestVonage(t *testing.T) {
	p, err := provider.NewVonage("vonage-key-123", "vonage-secret", nil)
	require.NoError(t, err)

	req, err := p.Request(message.NewSMS("Acme", "+14155550100", "hi"))
	require.NoError(t, err)
	assert.Equal(t, "[***]", gjson.GetBytes(req.Body, "api_secret").String())
	assert.Equal(t, "+14155550100", gjson.GetBytes(req.Body, "to").String())

	msgID, err := p.Send(context.Background(), message.NewSMS("Acme", "+14155550100", "hi"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msgID, "vonage-"))
}

func TestFCM(t *testing.T) {
	p, err := provider.NewFCM("fcm-server-key", nil)
	require.NoError(t, err)

	m := message.NewPush("0123456789abcdef", "Shipped", "On its way").WithData(map[string]string{"order_id": "ord_7"})
	req, err := p.Request(m)
	require.NoError(t, err)
	assert.Equal(t, "ord_7", gjson.GetBytes(req.Body, "message.data.order_id").String())
	assert.Equal(t, "Shipped", gjson.GetBytes(req.Body, "message.notification.title").String())

	msgID, err := p.Send(context.Background(), m)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msgID, "projects/-/messages/"))
}

func TestAPNs(t *testing.T) {
	p, err := provider.NewAPNs("TEAM123", "KEY456", "io.acme.app", nil)
	require.NoError(t, err)

	m := message.NewPush("0123456789abcdef", "Shipped", "On its way").WithBadge(2).WithSound("default").
		WithData(map[string]string{"order_id": "ord_7"})
	req, err := p.Request(m)
	require.NoError(t, err)

	assert.Equal(t, "/3/device/0123...cdef", req.Path)
	assert.Equal(t, "io.acme.app", req.Headers["apns-topic"])
	assert.Equal(t, int64(2), gjson.GetBytes(req.Body, "aps.badge").Int())
	assert.Equal(t, "ord_7", gjson.GetBytes(req.Body, "order_id").String())

	msgID, err := p.Send(context.Background(), m)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msgID, "apns-"))
}

func TestSlackWebhook(t *testing.T) {
	p, err := provider.NewSlackWebhook("https://hooks.slack.com/services/T000/B000/XXXX", nil)
	require.NoError(t, err)

	req, err := p.Request(message.NewChat("#deploys", "v1.2.0 is live").WithUsername("herald"))
	require.NoError(t, err)
	assert.NotContains(t, req.Path, "hooks.slack.com")
	assert.Equal(t, "herald", gjson.GetBytes(req.Body, "username").String())
	assert.False(t, gjson.GetBytes(req.Body, "icon_emoji").Exists())

	msgID, err := p.Send(context.Background(), message.NewChat("#deploys", "hi"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msgID, "slack-"))
}

func TestSendHonoursCancelledContext(t *testing.T) {
	p, err := provider.NewFCM("fcm-server-key", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Send(ctx, message.NewPush("0123456789abcdef", "t", "b"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFunc(t *testing.T) {
	p := provider.NewFunc("Echo", func(_ context.Context, m message.Chat) (string, error) {
		return "echo-" + m.Channel, nil
	})

	assert.Equal(t, "Echo", p.Name())
	msgID, err := p.Send(context.Background(), message.NewChat("#x", "y"))
	require.NoError(t, err)
	assert.Equal(t, "echo-#x", msgID)
}
