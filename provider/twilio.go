package provider

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/xraph/herald/message"
)

// Twilio sends SMS through the Twilio Messages API.
type Twilio struct {
	accountSID string
	authToken  string
	logger     *slog.Logger
}

// NewTwilio creates a Twilio client.
func NewTwilio(accountSID, authToken string, logger *slog.Logger) (*Twilio, error) {
	if err := required(accountSID, "Twilio Account SID"); err != nil {
		return nil, err
	}
	if err := required(authToken, "Twilio Auth Token"); err != nil {
		return nil, err
	}

	return &Twilio{accountSID: accountSID, authToken: authToken, logger: loggerOrDefault(logger)}, nil
}

// Name returns "Twilio".
func (*Twilio) Name() string { return "Twilio" }

// Request builds the form-encoded Messages.json request for m.
func (p *Twilio) Request(m message.SMS) (Request, error) {
	form := url.Values{}
	form.Set("From", m.From)
	form.Set("To", m.PhoneNumber)
	form.Set("Body", m.Text)

	return Request{
		Method:  "POST",
		Path:    "/2010-04-01/Accounts/" + message.MaskToken(p.accountSID) + "/Messages.json",
		Headers: map[string]string{"Authorization": "Basic [***]"},
		Body:    []byte(form.Encode()),
	}, nil
}

// Send delivers m and returns a 34 character "SM" message SID.
func (p *Twilio) Send(ctx context.Context, m message.SMS) (string, error) {
	req, err := p.Request(m)
	if err != nil {
		return "", err
	}

	sid := "SM" + strings.ReplaceAll(uuid.NewString(), "-", "")

	return simulate(ctx, p.logger, p.Name(), req, sid)
}
