package provider

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/xraph/herald/message"
)

// Mailgun sends email through the Mailgun messages API for one domain.
type Mailgun struct {
	apiKey string
	domain string
	logger *slog.Logger
}

// NewMailgun creates a Mailgun client for domain.
func NewMailgun(apiKey, domain string, logger *slog.Logger) (*Mailgun, error) {
	if err := required(apiKey, "Mailgun API key"); err != nil {
		return nil, err
	}
	if err := required(domain, "Mailgun domain"); err != nil {
		return nil, err
	}

	return &Mailgun{apiKey: apiKey, domain: domain, logger: loggerOrDefault(logger)}, nil
}

// Name returns "Mailgun".
func (*Mailgun) Name() string { return "Mailgun" }

// Domain returns the sending domain.
func (p *Mailgun) Domain() string { return p.domain }

// Request builds the form-encoded messages request for m.
func (p *Mailgun) Request(m message.Email) (Request, error) {
	form := url.Values{}
	form.Set("from", m.From)
	form.Set("to", m.To)
	form.Set("subject", m.Subject)
	if m.HTML {
		form.Set("html", m.Body)
	} else {
		form.Set("text", m.Body)
	}
	if len(m.CC) > 0 {
		form.Set("cc", strings.Join(m.CC, ","))
	}
	if len(m.BCC) > 0 {
		form.Set("bcc", strings.Join(m.BCC, ","))
	}

	return Request{
		Method: "POST",
		Path:   "/v3/" + p.domain + "/messages",
		Headers: map[string]string{
			"Authorization": "Basic api:" + message.MaskToken(p.apiKey),
			"Content-Type":  "application/x-www-form-urlencoded",
		},
		Body: []byte(form.Encode()),
	}, nil
}

// Send delivers m and returns an "mg-" prefixed message ID.
func (p *Mailgun) Send(ctx context.Context, m message.Email) (string, error) {
	req, err := p.Request(m)
	if err != nil {
		return "", err
	}

	return simulate(ctx, p.logger, p.Name(), req, "mg-"+uuid.NewString())
}
