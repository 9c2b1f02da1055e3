package project

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"portfolio-api/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const table = "projects"

type Repository interface {
	Create(ctx context.Context, project *Project) error
	ListPublished(ctx context.Context, filter ListFilter) ([]Project, error)
	ListAll(ctx context.Context) ([]Project, error)
	GetByID(ctx context.Context, id string) (*Project, error)
	Replace(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, project *Project) error {
	start := time.Now()
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	_, err := r.db.NewInsert().Model(project).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", table, time.Since(start), err)

	return err
}

func (r *repository) ListPublished(ctx context.Context, filter ListFilter) ([]Project, error) {
	start := time.Now()
	projects := make([]Project, 0)

	q := r.db.NewSelect().Model(&projects).Where("published = TRUE")
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Featured {
		q = q.Where("featured = TRUE")
	}
	err := q.OrderExpr("sort_order ASC, created_at DESC").Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	return projects, err
}

func (r *repository) ListAll(ctx context.Context) ([]Project, error) {
	start := time.Now()
	projects := make([]Project, 0)
	err := r.db.NewSelect().
		Model(&projects).
		OrderExpr("sort_order ASC, created_at DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	return projects, err
}

func (r *repository) GetByID(ctx context.Context, id string) (*Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrProjectNotFound
	}

	start := time.Now()
	project := new(Project)
	err := r.db.NewSelect().Model(project).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (r *repository) Replace(ctx context.Context, project *Project) error {
	if _, err := uuid.Parse(project.ID); err != nil {
		return ErrProjectNotFound
	}

	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(project).
		ExcludeColumn("created_at").
		WherePK().
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", table, time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrProjectNotFound
	}

	start := time.Now()
	result, err := r.db.NewDelete().Model((*Project)(nil)).Where("id = ?", id).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", table, time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}
