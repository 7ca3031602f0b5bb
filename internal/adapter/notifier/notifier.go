// Package notifier implements the outbound notification collaborator.
// Delivery is fire-and-forget: failures are logged and never surface to the
// settlement operation that triggered the notification.
package notifier

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log instead of delivering them.
// It stands in for a real email/SMS sender in development and tests.
type LogNotifier struct {
	Logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier instance
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

// Notify logs the notification
func (n *LogNotifier) Notify(ctx context.Context, destination, payload string) {
	n.Logger.Info("notification",
		zap.String("destination", destination),
		zap.String("payload", payload),
	)
}
