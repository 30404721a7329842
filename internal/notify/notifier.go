package notify

import (
	"context"

	"github.com/movaride/driver-lifecycle/pkg/logger"
	"go.uber.org/zap"
)

// Priority of a notification
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Sender delivers notifications to drivers and riders. Delivery is
// best-effort: callers must never fail an operation on a send error.
type Sender interface {
	Send(ctx context.Context, recipient, title, body string, priority Priority) error
}

// LogSender logs notifications instead of delivering them. Used in
// development and as a fallback when no delivery channel is configured.
type LogSender struct{}

// NewLogSender creates a log-only sender
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the notification
func (s *LogSender) Send(ctx context.Context, recipient, title, body string, priority Priority) error {
	logger.WithContext(ctx).Info("notification",
		zap.String("recipient", recipient),
		zap.String("title", title),
		zap.String("body", body),
		zap.String("priority", string(priority)),
	)
	return nil
}
