package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Session event subjects. The session id is the token after "session.".
const (
	SubjectPlacesSuffix = "places"
	SubjectRouteSuffix  = "route"
	SubjectBroadcast    = "geo.updates.broadcast"
)

// SessionSubject builds the subject for one session event kind.
func SessionSubject(sessionID, suffix string) string {
	return fmt.Sprintf("geo.session.%s.%s", sessionID, suffix)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Session events are short-lived; an hour of retention covers any
	// reconnecting relay.
	cfg := nats.StreamConfig{
		Name:      "GEO_SESSIONS",
		Subjects:  []string{"geo.session.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishPlacesUpdated announces a session's replaced place set.
func (p *Publisher) PublishPlacesUpdated(ctx context.Context, sessionID string, payload []byte) error {
	_, err := p.js.Publish(SessionSubject(sessionID, SubjectPlacesSuffix), payload)
	return err
}

// PublishRouteUpdated announces a session's replaced active route.
func (p *Publisher) PublishRouteUpdated(ctx context.Context, sessionID string, payload []byte) error {
	_, err := p.js.Publish(SessionSubject(sessionID, SubjectRouteSuffix), payload)
	return err
}

// PublishBroadcast sends a fire-and-forget message to all listeners.
func (p *Publisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return p.conn.Publish(SubjectBroadcast, data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
