package provider

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xraph/herald/message"
)

// Vonage sends SMS through the Vonage SMS API.
type Vonage struct {
	apiKey    string
	apiSecret string
	logger    *slog.Logger
}

// NewVonage creates a Vonage client.
func NewVonage(apiKey, apiSecret string, logger *slog.Logger) (*Vonage, error) {
	if err := required(apiKey, "Vonage API key"); err != nil {
		return nil, err
	}
	if err := required(apiSecret, "Vonage API secret"); err != nil {
		return nil, err
	}

	return &Vonage{apiKey: apiKey, apiSecret: apiSecret, logger: loggerOrDefault(logger)}, nil
}

// Name returns "Vonage".
func (*Vonage) Name() string { return "Vonage" }

type vonageSMS struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
}

// Request builds the sms/json request for m. Credentials in the body are masked.
func (p *Vonage) Request(m message.SMS) (Request, error) {
	body, err := json.Marshal(vonageSMS{
		APIKey:    message.MaskToken(p.apiKey),
		APISecret: "[***]",
		From:      m.From,
		To:        m.PhoneNumber,
		Text:      m.Text,
	})
	if err != nil {
		return Request{}, err
	}

	return Request{
		Method:  "POST",
		Path:    "/sms/json",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}, nil
}

// Send delivers m and returns a "vonage-" prefixed message ID.
func (p *Vonage) Send(ctx context.Context, m message.SMS) (string, error) {
	req, err := p.Request(m)
	if err != nil {
		return "", err
	}

	return simulate(ctx, p.logger, p.Name(), req, "vonage-"+uuid.NewString())
}
