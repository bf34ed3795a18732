// Package notify delivers verification codes to users over email or SMS.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Message is one outbound notification. HTML is used by email senders only.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender is a delivery provider for a single channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// DeliveryError reports that a provider did not accept a message.
type DeliveryError struct {
	Provider string
	Status   int
	Err      error
}

func (e *DeliveryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s delivery failed with status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s delivery failed: %v", e.Provider, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// LogSender writes the message to the log instead of delivering it. It is the
// fallback when no provider credentials are configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.With(zap.String("sender", "log"))}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("Notification not delivered, no provider configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}

func (s *LogSender) Name() string { return "log" }
