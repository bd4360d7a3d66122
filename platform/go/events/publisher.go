// Package events is the outbound notification boundary. Delivery
// semantics are a collaborator concern; publishers here are thin and
// fire-and-forget.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Publisher emits domain events. Implementations must not block request
// handling on delivery.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

// NATSPublisher publishes JSON-encoded events to a NATS subject.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher wraps an established NATS connection.
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	if conn == nil {
		panic("events: nats connection is required")
	}
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) Publish(_ context.Context, subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// NoopPublisher discards events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}
