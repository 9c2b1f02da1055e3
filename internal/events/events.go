// Package events publishes content change notifications after successful
// blog and project mutations.
package events

import (
	"context"
	"log/slog"
	"time"

	"portfolio-api/internal/metrics"
)

type Type string

const (
	BlogCreated    Type = "blog.created"
	BlogUpdated    Type = "blog.updated"
	BlogPublished  Type = "blog.published"
	BlogDeleted    Type = "blog.deleted"
	ProjectCreated Type = "project.created"
	ProjectUpdated Type = "project.updated"
	ProjectDeleted Type = "project.deleted"
)

type Event struct {
	Type Type      `json:"type"`
	ID   string    `json:"id"`
	Slug string    `json:"slug,omitempty"`
	At   time.Time `json:"at"`
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Notifier publishes on a best effort basis: failures are logged and counted
// but never returned, so a broker outage cannot fail a content mutation.
type Notifier struct {
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewNotifier(publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Notifier {
	if publisher == nil {
		publisher = Noop{}
	}
	return &Notifier{
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

func (n *Notifier) Notify(ctx context.Context, eventType Type, id, slug string) {
	if n == nil {
		return
	}
	event := Event{Type: eventType, ID: id, Slug: slug, At: n.now().UTC()}
	err := n.publisher.Publish(ctx, event)
	n.metrics.RecordEventPublished(ctx, string(eventType), err)
	if err != nil {
		n.logger.WarnContext(ctx, "failed to publish content event", "type", eventType, "id", id, "error", err)
	}
}

func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	return n.publisher.Close()
}
