package provider

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xraph/herald/message"
)

// FCM sends push notifications through Firebase Cloud Messaging.
type FCM struct {
	serverKey string
	logger    *slog.Logger
}

// NewFCM creates an FCM client.
func NewFCM(serverKey string, logger *slog.Logger) (*FCM, error) {
	if err := required(serverKey, "FCM server key"); err != nil {
		return nil, err
	}

	return &FCM{serverKey: serverKey, logger: loggerOrDefault(logger)}, nil
}

// Name returns "FCM".
func (*FCM) Name() string { return "FCM" }

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmEnvelope struct {
	Message fcmMessage `json:"message"`
}

// Request builds the messages:send request for m.
func (p *FCM) Request(m message.Push) (Request, error) {
	body, err := json.Marshal(fcmEnvelope{Message: fcmMessage{
		Token:        m.DeviceToken,
		Notification: fcmNotification{Title: m.Title, Body: m.Body},
		Data:         m.Data,
	}})
	if err != nil {
		return Request{}, err
	}

	return Request{
		Method:  "POST",
		Path:    "/v1/projects/-/messages:send",
		Headers: map[string]string{"Authorization": "Bearer " + message.MaskToken(p.serverKey)},
		Body:    body,
	}, nil
}

// Send delivers m and returns the FCM message resource name.
func (p *FCM) Send(ctx context.Context, m message.Push) (string, error) {
	req, err := p.Request(m)
	if err != nil {
		return "", err
	}

	return simulate(ctx, p.logger, p.Name(), req, "projects/-/messages/"+uuid.NewString())
}
