package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Database *DatabaseMetrics
	Health   *HealthMetrics

	blogsCreated       metric.Int64Counter
	blogViews          metric.Int64Counter
	blogsListViewed    metric.Int64Counter
	projectsCreated    metric.Int64Counter
	projectsListViewed metric.Int64Counter
	languageDetections metric.Int64Counter
	loginAttempts      metric.Int64Counter
	eventsPublished    metric.Int64Counter
	httpDuration       metric.Float64Histogram
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.Database, err = NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	m.Health, err = NewHealthMetrics(meter)
	if err != nil {
		return nil, err
	}

	m.blogsCreated, err = meter.Int64Counter(
		"portfolio.blogs.created",
		metric.WithDescription("Total number of blog posts created"),
		metric.WithUnit("{blog}"),
	)
	if err != nil {
		return nil, err
	}

	m.blogViews, err = meter.Int64Counter(
		"portfolio.blogs.viewed",
		metric.WithDescription("Total number of public blog post views"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.blogsListViewed, err = meter.Int64Counter(
		"portfolio.blogs.list_viewed",
		metric.WithDescription("Total number of times the public blog list was viewed"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.projectsCreated, err = meter.Int64Counter(
		"portfolio.projects.created",
		metric.WithDescription("Total number of projects created"),
		metric.WithUnit("{project}"),
	)
	if err != nil {
		return nil, err
	}

	m.projectsListViewed, err = meter.Int64Counter(
		"portfolio.projects.list_viewed",
		metric.WithDescription("Total number of times the public project list was viewed"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.languageDetections, err = meter.Int64Counter(
		"portfolio.language.detections",
		metric.WithDescription("Language suggestions served, by language"),
		metric.WithUnit("{detection}"),
	)
	if err != nil {
		return nil, err
	}

	m.loginAttempts, err = meter.Int64Counter(
		"portfolio.auth.login_attempts",
		metric.WithDescription("Admin login attempts, by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	m.eventsPublished, err = meter.Int64Counter(
		"portfolio.events.published",
		metric.WithDescription("Content events published, by type"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.httpDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration by route and status"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.1,
			0.25, 0.5, 1.0, 2.5, 5.0,
		),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m != nil && m.httpDuration != nil {
		m.httpDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		))
	}
}

func (m *Metrics) RecordBlogCreated(ctx context.Context) {
	if m != nil && m.blogsCreated != nil {
		m.blogsCreated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordBlogViewed(ctx context.Context) {
	if m != nil && m.blogViews != nil {
		m.blogViews.Add(ctx, 1)
	}
}

func (m *Metrics) RecordBlogsListViewed(ctx context.Context) {
	if m != nil && m.blogsListViewed != nil {
		m.blogsListViewed.Add(ctx, 1)
	}
}

func (m *Metrics) RecordProjectCreated(ctx context.Context) {
	if m != nil && m.projectsCreated != nil {
		m.projectsCreated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordProjectsListViewed(ctx context.Context) {
	if m != nil && m.projectsListViewed != nil {
		m.projectsListViewed.Add(ctx, 1)
	}
}

func (m *Metrics) RecordLanguageDetected(ctx context.Context, language string, failedOpen bool) {
	if m != nil && m.languageDetections != nil {
		m.languageDetections.Add(ctx, 1, metric.WithAttributes(
			attribute.String("language", language),
			attribute.Bool("fail_open", failedOpen),
		))
	}
}

func (m *Metrics) RecordLoginAttempt(ctx context.Context, outcome string) {
	if m != nil && m.loginAttempts != nil {
		m.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func (m *Metrics) RecordEventPublished(ctx context.Context, eventType string, err error) {
	if m != nil && m.eventsPublished != nil {
		m.eventsPublished.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", eventType),
			attribute.Bool("error", err != nil),
		))
	}
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{Database: &DatabaseMetrics{}, Health: &HealthMetrics{}}
}
