// Package provider contains simulated clients for the external services
// Herald delivers through. Each client builds the request the real API
// expects, logs it with secrets masked, and returns an ID in the format the
// service would assign. No network traffic is generated.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xraph/herald/message"
)

// ErrMissingCredential is returned by constructors when a credential is blank.
var ErrMissingCredential = errors.New("provider: missing credential")

// maxLoggedBody bounds request bodies written to logs.
const maxLoggedBody = 100

// Request is the HTTP request a provider issues for one message.
// Secret header values are masked.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    []byte
}

func required(value, what string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s must not be blank", ErrMissingCredential, what)
	}

	return nil
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}

	return l
}

// simulate logs req as if it were sent and returns msgID.
func simulate(ctx context.Context, logger *slog.Logger, name string, req Request, msgID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: request not sent: %w", name, err)
	}

	logger.InfoContext(ctx, "simulated provider request",
		"provider", name,
		"method", req.Method,
		"path", req.Path,
		"body", message.Truncate(string(req.Body), maxLoggedBody),
	)
	logger.DebugContext(ctx, "simulated provider response",
		"provider", name,
		"message_id", msgID,
	)

	return msgID, nil
}
