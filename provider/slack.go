package provider

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xraph/herald/message"
)

// SlackWebhook posts chat messages to a Slack incoming webhook.
type SlackWebhook struct {
	webhookURL string
	logger     *slog.Logger
}

// NewSlackWebhook creates a Slack webhook client. The URL is treated as a
// secret and never logged.
func NewSlackWebhook(webhookURL string, logger *slog.Logger) (*SlackWebhook, error) {
	if err := required(webhookURL, "Slack webhook URL"); err != nil {
		return nil, err
	}

	return &SlackWebhook{webhookURL: webhookURL, logger: loggerOrDefault(logger)}, nil
}

// Name returns "Slack".
func (*SlackWebhook) Name() string { return "Slack" }

type slackPayload struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

// Request builds the webhook POST for m.
func (p *SlackWebhook) Request(m message.Chat) (Request, error) {
	body, err := json.Marshal(slackPayload{
		Channel:   m.Channel,
		Text:      m.Text,
		Username:  m.Username,
		IconEmoji: m.IconEmoji,
	})
	if err != nil {
		return Request{}, err
	}

	return Request{
		Method:  "POST",
		Path:    "[***]",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}, nil
}

// Send delivers m and returns a "slack-" prefixed ID.
func (p *SlackWebhook) Send(ctx context.Context, m message.Chat) (string, error) {
	req, err := p.Request(m)
	if err != nil {
		return "", err
	}

	return simulate(ctx, p.logger, p.Name(), req, "slack-"+uuid.NewString())
}
