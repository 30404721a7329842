package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/movaride/driver-lifecycle/pkg/logger"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects for driver lifecycle events
const (
	SubjectAdminAlert       = "driver.reports.alert"
	SubjectDriverSuspended  = "driver.standing.suspended"
	SubjectDriverReinstated = "driver.standing.reinstated"
)

// Event is the wire shape published to NATS
type Event struct {
	Subject    string                 `json:"subject"`
	DriverID   string                 `json:"driver_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// Publisher publishes lifecycle events. Publication is best-effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NATSPublisher publishes events to a NATS connection
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher creates a publisher backed by an existing connection
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Publish marshals and publishes the event
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(event.Subject, data)
}

// NoopPublisher drops events, logging them at debug level. Used when NATS
// is not configured.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that only logs
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// Publish logs the event and discards it
func (p *NoopPublisher) Publish(ctx context.Context, event Event) error {
	logger.WithContext(ctx).Debug("event dropped, NATS disabled",
		zap.String("subject", event.Subject),
		zap.String("driver_id", event.DriverID),
	)
	return nil
}
