package blog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"portfolio-api/internal/db"
	"portfolio-api/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const table = "blogs"

type Repository interface {
	Create(ctx context.Context, blog *Blog) error
	ListPublished(ctx context.Context, filter ListFilter) ([]Blog, int, error)
	ListAll(ctx context.Context) ([]Blog, error)
	GetByID(ctx context.Context, id string) (*Blog, error)
	// IncrementViews adds one view to the published blog with slug and
	// returns it, content included.
	IncrementViews(ctx context.Context, slug string) (*Blog, error)
	Replace(ctx context.Context, blog *Blog) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

// NewRepository returns the PostgreSQL backed repository.
func NewRepository(database *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      database,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, blog *Blog) error {
	start := time.Now()
	if blog.ID == "" {
		blog.ID = uuid.NewString()
	}
	_, err := r.db.NewInsert().Model(blog).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", table, time.Since(start), err)

	if err != nil {
		if db.IsDuplicateKey(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	return nil
}

func (r *repository) ListPublished(ctx context.Context, filter ListFilter) ([]Blog, int, error) {
	start := time.Now()
	blogs := make([]Blog, 0)

	q := r.db.NewSelect().
		Model(&blogs).
		ExcludeColumn("content").
		Where("published = TRUE")
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Featured {
		q = q.Where("featured = TRUE")
	}

	total, err := q.
		OrderExpr("published_at DESC NULLS LAST").
		OrderExpr("created_at DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		ScanAndCount(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	if err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Blog, error) {
	start := time.Now()
	blogs := make([]Blog, 0)
	err := r.db.NewSelect().
		Model(&blogs).
		ExcludeColumn("content").
		OrderExpr("created_at DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	return blogs, err
}

func (r *repository) GetByID(ctx context.Context, id string) (*Blog, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrBlogNotFound
	}

	start := time.Now()
	blog := new(Blog)
	err := r.db.NewSelect().Model(blog).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	return blog, nil
}

func (r *repository) IncrementViews(ctx context.Context, slug string) (*Blog, error) {
	start := time.Now()
	blog := new(Blog)
	res, err := r.db.NewUpdate().
		Model(blog).
		Set("views = views + 1").
		Where("slug = ?", slug).
		Where("published = TRUE").
		Returning("*").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", table, time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, ErrBlogNotFound
	}
	return blog, nil
}

func (r *repository) Replace(ctx context.Context, blog *Blog) error {
	if _, err := uuid.Parse(blog.ID); err != nil {
		return ErrBlogNotFound
	}

	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(blog).
		ExcludeColumn("views", "created_at").
		WherePK().
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", table, time.Since(start), err)

	if err != nil {
		if db.IsDuplicateKey(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBlogNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrBlogNotFound
	}

	start := time.Now()
	result, err := r.db.NewDelete().Model((*Blog)(nil)).Where("id = ?", id).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", table, time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBlogNotFound
	}
	return nil
}

func (r *repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
