package admin

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

var (
	ErrAdminNotFound = errors.New("admin not found")
	ErrAdminExists   = errors.New("admin already exists")
)

const table = "admins"

type Repository interface {
	Create(ctx context.Context, admin *Admin) error
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	GetByID(ctx context.Context, id string) (*Admin, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
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

func (r *repository) Create(ctx context.Context, admin *Admin) error {
	start := time.Now()
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	_, err := r.db.NewInsert().Model(admin).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", table, time.Since(start), err)

	if db.IsDuplicateKey(err) {
		return ErrAdminExists
	}
	return err
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	start := time.Now()
	admin := new(Admin)
	err := r.db.NewSelect().Model(admin).Where("email = ?", email).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Admin, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAdminNotFound
	}

	start := time.Now()
	admin := new(Admin)
	err := r.db.NewSelect().Model(admin).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}

func (r *repository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	start := time.Now()
	_, err := r.db.NewUpdate().
		Model((*Admin)(nil)).
		Set("last_login_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", table, time.Since(start), err)

	return err
}
