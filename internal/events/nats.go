package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewNATSPublisher(url string, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("portfolio-api"))
	if err != nil {
		return nil, err
	}

	logger.Info("NATS publisher initialized", "url", url, "subject", subject)

	return &NATSPublisher{
		conn:    nc,
		subject: subject,
		logger:  logger,
	}, nil
}

// Publish sends the event on <subject>.<type>, e.g. portfolio.content.blog.created.
func (p *NATSPublisher) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := p.subject + "." + string(event.Type)
	if err := p.conn.Publish(subject, payload); err != nil {
		return err
	}

	p.logger.Debug("event sent to NATS", "subject", subject, "id", event.ID)
	return nil
}

// HealthCheck verifies NATS connection is healthy
func (p *NATSPublisher) HealthCheck() error {
	if p.conn == nil {
		return nats.ErrConnectionClosed
	}
	if !p.conn.IsConnected() {
		return nats.ErrDisconnected
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
