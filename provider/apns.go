package provider

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xraph/herald/message"
)

// APNs sends push notifications through the Apple Push Notification service.
type APNs struct {
	teamID   string
	keyID    string
	bundleID string
	logger   *slog.Logger
}

// NewAPNs creates an APNs client for the app identified by bundleID.
func NewAPNs(teamID, keyID, bundleID string, logger *slog.Logger) (*APNs, error) {
	if err := required(teamID, "APNs Team ID"); err != nil {
		return nil, err
	}
	if err := required(keyID, "APNs Key ID"); err != nil {
		return nil, err
	}
	if err := required(bundleID, "APNs Bundle ID"); err != nil {
		return nil, err
	}

	return &APNs{teamID: teamID, keyID: keyID, bundleID: bundleID, logger: loggerOrDefault(logger)}, nil
}

// Name returns "APNs".
func (*APNs) Name() string { return "APNs" }

type apsAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type aps struct {
	Alert apsAlert `json:"alert"`
	Badge *int     `json:"badge,omitempty"`
	Sound string   `json:"sound,omitempty"`
}

// Request builds the /3/device request for m. Custom data is merged into
// the top level of the payload next to "aps".
func (p *APNs) Request(m message.Push) (Request, error) {
	payload := make(map[string]any, len(m.Data)+1)
	for k, v := range m.Data {
		payload[k] = v
	}
	payload["aps"] = aps{
		Alert: apsAlert{Title: m.Title, Body: m.Body},
		Badge: m.Badge,
		Sound: m.Sound,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Method: "POST",
		Path:   "/3/device/" + message.MaskToken(m.DeviceToken),
		Headers: map[string]string{
			"apns-topic":    p.bundleID,
			"authorization": "bearer [***]",
		},
		Body: body,
	}, nil
}

// Send delivers m and returns an "apns-" prefixed ID.
func (p *APNs) Send(ctx context.Context, m message.Push) (string, error) {
	req, err := p.Request(m)
	if err != nil {
		return "", err
	}

	return simulate(ctx, p.logger, p.Name(), req, "apns-"+uuid.NewString())
}
