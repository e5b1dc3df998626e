package notify

//go:generate mockgen -source=sink.go -destination=mocks/mocks.go -package=mocks Sink

import (
	"context"
	"log/slog"
)

// Sink delivers a single message over one channel. Implementations must be
// safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// SlogSink logs messages instead of delivering them. Development default.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Send(_ context.Context, msg Message) error {
	s.logger.Info("notification",
		"channel", string(msg.Channel),
		"recipient", msg.Recipient,
		"template", msg.Template,
		"subject", msg.Subject,
	)
	return nil
}
