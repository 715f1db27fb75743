package utils

import (
	"context"
	"log/slog"
)

// Sender delivers a one-time code to an email address or phone number.
type Sender interface {
	Send(ctx context.Context, channel, to, code string) error
}

// LogSender stands in for the SMS and email gateways: it only logs the code.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, channel, to, code string) error {
	s.Logger.DebugContext(ctx, "verification code issued", "action", "send "+channel, "to", to, "code", code)
	return nil
}
