package provider

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xraph/herald/message"
)

// SendGrid sends email through the SendGrid v3 mail API.
type SendGrid struct {
	apiKey string
	logger *slog.Logger
}

// NewSendGrid creates a SendGrid client. The API key is never logged.
func NewSendGrid(apiKey string, logger *slog.Logger) (*SendGrid, error) {
	if err := required(apiKey, "SendGrid API key"); err != nil {
		return nil, err
	}

	return &SendGrid{apiKey: apiKey, logger: loggerOrDefault(logger)}, nil
}

// Name returns "SendGrid".
func (*SendGrid) Name() string { return "SendGrid" }

type sgAddress struct {
	Email string `json:"email"`
}

type sgPersonalization struct {
	To  []sgAddress `json:"to"`
	CC  []sgAddress `json:"cc,omitempty"`
	BCC []sgAddress `json:"bcc,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgMail struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func sgAddresses(addrs []string) []sgAddress {
	out := make([]sgAddress, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, sgAddress{Email: a})
	}

	return out
}

// Request builds the mail/send request for m.
func (p *SendGrid) Request(m message.Email) (Request, error) {
	contentType := "text/plain"
	if m.HTML {
		contentType = "text/html"
	}

	body, err := json.Marshal(sgMail{
		Personalizations: []sgPersonalization{{
			To:  []sgAddress{{Email: m.To}},
			CC:  sgAddresses(m.CC),
			BCC: sgAddresses(m.BCC),
		}},
		From:    sgAddress{Email: m.From},
		Subject: m.Subject,
		Content: []sgContent{{Type: contentType, Value: m.Body}},
	})
	if err != nil {
		return Request{}, err
	}

	return Request{
		Method:  "POST",
		Path:    "/v3/mail/send",
		Headers: map[string]string{"Authorization": "Bearer " + message.MaskToken(p.apiKey)},
		Body:    body,
	}, nil
}

// Send delivers m and returns an "sg-" prefixed message ID.
func (p *SendGrid) Send(ctx context.Context, m message.Email) (string, error) {
	req, err := p.Request(m)
	if err != nil {
		return "", err
	}

	return simulate(ctx, p.logger, p.Name(), req, "sg-"+uuid.NewString())
}
