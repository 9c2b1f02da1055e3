package project

import (
	"context"
	"errors"
	"time"

	"portfolio-api/internal/events"
	"portfolio-api/internal/httputil"
	"portfolio-api/internal/metrics"

	"github.com/go-playground/validator/v10"
)

var ErrProjectNotFound = errors.New("project not found")

type Service interface {
	List(ctx context.Context, filter ListFilter) ([]Project, error)
	ListAll(ctx context.Context) ([]Project, error)
	// GetPublished returns ErrProjectNotFound for unpublished projects.
	GetPublished(ctx context.Context, id string) (*Project, error)
	Create(ctx context.Context, in Input) (*Project, error)
	Update(ctx context.Context, id string, in Input) (*Project, error)
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

func (s *service) List(ctx context.Context, filter ListFilter) ([]Project, error) {
	projects, err := s.repo.ListPublished(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordProjectsListViewed(ctx)
	return projects, nil
}

func (s *service) ListAll(ctx context.Context) ([]Project, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) GetPublished(ctx context.Context, id string) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.Published {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

func (s *service) Create(ctx context.Context, in Input) (*Project, error) {
	in = in.Normalize()
	if err := httputil.ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}

	project := Prepare(in, nil, s.now())
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.metrics.RecordProjectCreated(ctx)
	s.notifier.Notify(ctx, events.ProjectCreated, project.ID, "")

	return project, nil
}

func (s *service) Update(ctx context.Context, id string, in Input) (*Project, error) {
	in = in.Normalize()
	if err := httputil.ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project := Prepare(in, existing, s.now())
	if err := s.repo.Replace(ctx, project); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, events.ProjectUpdated, project.ID, "")

	return project, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notifier.Notify(ctx, events.ProjectDeleted, id, "")
	return nil
}
