package app

import (
	"context"
	"fmt"
	"log/slog"

	"portfolio-api/internal/admin"
	"portfolio-api/internal/blog"
	"portfolio-api/internal/config"
	"portfolio-api/internal/db"
	"portfolio-api/internal/metrics"
	"portfolio-api/internal/project"

	"go.mongodb.org/mongo-driver/mongo"
)

// Stores bundles the repositories of the selected database driver.
type Stores struct {
	Blogs    blog.Repository
	Projects project.Repository
	Admins   admin.Repository

	close func(ctx context.Context) error
}

// OpenStores connects to the configured database and prepares its schema:
// indexes on MongoDB, tables on PostgreSQL.
func OpenStores(ctx context.Context, cfg config.DatabaseConfig, m *metrics.Metrics, logger *slog.Logger) (*Stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		database, err := db.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(ctx, database, (*blog.Blog)(nil), (*project.Project)(nil), (*admin.Admin)(nil)); err != nil {
			database.Close()
			return nil, err
		}
		logger.Info("using postgres store", "host", cfg.Postgres.Host, "database", cfg.Postgres.DBName)
		return &Stores{
			Blogs:    blog.NewRepository(database, m),
			Projects: project.NewRepository(database, m),
			Admins:   admin.NewRepository(database, m),
			close:    func(context.Context) error { return database.Close() },
		}, nil

	case config.DriverMongo, "":
		client, database, err := db.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		indexes := []func(context.Context, *mongo.Database) error{
			blog.EnsureMongoIndexes,
			project.EnsureMongoIndexes,
			admin.EnsureMongoIndexes,
		}
		for _, ensure := range indexes {
			if err := ensure(ctx, database); err != nil {
				client.Disconnect(context.Background())
				return nil, fmt.Errorf("failed to create indexes: %w", err)
			}
		}
		logger.Info("using mongo store", "database", cfg.Mongo.Database)
		return &Stores{
			Blogs:    blog.NewMongoRepository(database, m),
			Projects: project.NewMongoRepository(database, m),
			Admins:   admin.NewMongoRepository(database, m),
			close:    client.Disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func (s *Stores) Ping(ctx context.Context) error {
	return s.Blogs.Ping(ctx)
}

func (s *Stores) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}
