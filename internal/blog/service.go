package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolio-api/internal/events"
	"portfolio-api/internal/httputil"
	"portfolio-api/internal/metrics"

	"github.com/go-playground/validator/v10"
)

var (
	ErrBlogNotFound  = errors.New("blog not found")
	ErrDuplicateSlug = errors.New("a blog with this slug already exists")
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Service interface {
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	ListAll(ctx context.Context) ([]Blog, error)
	// View returns the published blog with slug and counts the view.
	View(ctx context.Context, slug string) (*Blog, error)
	Create(ctx context.Context, in Input) (*Blog, error)
	Update(ctx context.Context, id string, in Input) (*Blog, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo     Repository
	notifier *events.Notifier
	metrics  *metrics.Metrics
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*service)

// WithClock overrides the time source used for createdAt, updatedAt and publishedAt.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, notifier *events.Notifier, m *metrics.Metrics, opts ...Option) Service {
	s := &service{
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		validate: httputil.NewValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Limit < 1 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	blogs, total, err := s.repo.ListPublished(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}

	s.metrics.RecordBlogsListViewed(ctx)

	return &ListResult{
		Blogs: blogs,
		Pagination: Pagination{
			Total: total,
			Page:  filter.Page,
			Pages: (total + filter.Limit - 1) / filter.Limit,
		},
	}, nil
}

func (s *service) ListAll(ctx context.Context) ([]Blog, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) View(ctx context.Context, slug string) (*Blog, error) {
	blog, err := s.repo.IncrementViews(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordBlogViewed(ctx)
	return blog, nil
}

func (s *service) Create(ctx context.Context, in Input) (*Blog, error) {
	in = in.Normalize()
	if err := httputil.ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}

	blog, err := Prepare(in, nil, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, blog); err != nil {
		return nil, err
	}

	s.metrics.RecordBlogCreated(ctx)
	s.notifier.Notify(ctx, events.BlogCreated, blog.ID, blog.Slug)
	if blog.PublishedAt != nil {
		s.notifier.Notify(ctx, events.BlogPublished, blog.ID, blog.Slug)
	}

	return blog, nil
}

func (s *service) Update(ctx context.Context, id string, in Input) (*Blog, error) {
	in = in.Normalize()
	if err := httputil.ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	blog, err := Prepare(in, existing, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Replace(ctx, blog); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, events.BlogUpdated, blog.ID, blog.Slug)
	if existing.PublishedAt == nil && blog.PublishedAt != nil {
		s.notifier.Notify(ctx, events.BlogPublished, blog.ID, blog.Slug)
	}

	return blog, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notifier.Notify(ctx, events.BlogDeleted, id, "")
	return nil
}
