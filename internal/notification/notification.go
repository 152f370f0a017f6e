package notification

import (
	"context"
	"log/slog"
)

const (
	// KindCustomerCreated is sent to the mobile number of a newly opened account.
	KindCustomerCreated = "customer.created"
	// KindPINChanged is sent after a successful PIN rotation.
	KindPINChanged = "customer.pin_changed"
)

// Message describes a notification payload. Body must never carry a PIN.
type Message struct {
	Kind        string
	CustomerID  int64
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger in place of an SMS gateway.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger. The destination is masked.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "notification",
		slog.String("kind", message.Kind),
		slog.Int64("customer_id", message.CustomerID),
		slog.String("destination", Mask(message.Destination)),
		slog.String("body", message.Body),
	)
	return nil
}

// Mask keeps only the last three characters of a phone number.
func Mask(destination string) string {
	const visible = 3
	if len(destination) <= visible {
		return destination
	}
	masked := make([]byte, len(destination))
	for i := range masked {
		if i < len(destination)-visible {
			masked[i] = '*'
		} else {
			masked[i] = destination[i]
		}
	}
	return string(masked)
}
