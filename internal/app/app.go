package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"portfolio-api/internal/admin"
	"portfolio-api/internal/auth"
	"portfolio-api/internal/blog"
	"portfolio-api/internal/config"
	"portfolio-api/internal/events"
	"portfolio-api/internal/health"
	"portfolio-api/internal/language"
	"portfolio-api/internal/media"
	"portfolio-api/internal/metrics"
	"portfolio-api/internal/middleware"
	"portfolio-api/internal/project"
	"portfolio-api/internal/telemetry"

	"github.com/go-chi/chi/v5"
)

type App struct {
	config    *config.Config
	router    chi.Router
	server    *http.Server
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
	stores    *Stores
	notifier  *events.Notifier
	geoip     language.CountryResolver
}

// New connects every dependency and builds the router. Optional
// integrations (GeoIP, object storage, event broker) that fail to start are
// logged and left out; the database is required.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing application", "env", cfg.Env, "driver", cfg.Database.Driver)

	tel, err := telemetry.Init(ctx, ServiceName, Version, cfg.Telemetry.OTLPEndpoint, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app := &App{
		config:    cfg,
		router:    chi.NewRouter(),
		logger:    logger,
		telemetry: tel,
	}

	app.stores, err = OpenStores(ctx, cfg.Database, tel.Metrics, logger)
	if err != nil {
		tel.Shutdown(context.Background(), logger)
		return nil, err
	}

	if cfg.Admin.SeedOnStart {
		if _, err := admin.Seed(ctx, app.stores.Admins, SeedInputFromConfig(cfg.Admin), logger); err != nil {
			logger.Warn("admin seed skipped", "error", err)
		}
	}

	publisher, check := newPublisher(cfg.Events, logger)
	app.notifier = events.NewNotifier(publisher, logger, tel.Metrics)

	app.geoip = openGeoIP(cfg.GeoIP, logger)

	var store media.ObjectStore
	if media.Configured(cfg.Storage) {
		minioStore, err := media.NewMinioStore(ctx, cfg.Storage)
		if err != nil {
			logger.Warn("object storage unavailable, uploads disabled", "error", err)
		} else {
			logger.Info("object storage initialized", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
			store = minioStore
		}
	}

	healthHandler := health.NewHandler(logger, tel.Metrics)
	healthHandler.AddCheck("database", app.stores.Ping)
	if check != nil {
		healthHandler.AddCheck("events", check)
	}

	app.routes(healthHandler, store, tel.Metrics)

	read, write, idle := cfg.Server.Timeouts()
	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      app.router,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
	}

	logger.Info("application initialized successfully")
	return app, nil
}

func (a *App) routes(healthHandler *health.Handler, store media.ObjectStore, m *metrics.Metrics) {
	cfg := a.config

	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recover(a.logger))
	a.router.Use(middleware.RequestLogger(a.logger, m))
	a.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	healthHandler.RegisterRoutes(a.router)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	var limiterOpts []auth.RateLimiterOption
	if cfg.Auth.TrustForwardedFor {
		limiterOpts = append(limiterOpts, auth.WithForwardedFor())
	}
	limiter := auth.NewRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst, limiterOpts...)
	authService := auth.NewService(a.stores.Admins, tokens, a.logger, m)
	authHandler := auth.NewHandler(authService, tokens, limiter, a.logger)
	requireAuth := authHandler.RequireAuth()

	blogHandler := blog.NewHandler(blog.NewService(a.stores.Blogs, a.notifier, m), a.logger)
	projectHandler := project.NewHandler(project.NewService(a.stores.Projects, a.notifier, m), a.logger)
	languageHandler := language.NewHandler(a.geoip, a.logger, m)

	a.router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r)
		blogHandler.RegisterRoutes(r, requireAuth)
		projectHandler.RegisterRoutes(r, requireAuth)
		languageHandler.RegisterRoutes(r)

		if store != nil {
			media.NewHandler(store, a.logger).RegisterRoutes(r, requireAuth)
		}
	})
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run blocks serving HTTP. After Shutdown it returns http.ErrServerClosed.
func (a *App) Run() error {
	a.logger.Info("server starting", "port", a.config.Server.Port, "version", Version)
	return a.server.ListenAndServe()
}

// Shutdown stops the server and releases every dependency. All steps run
// even when an earlier one fails.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := a.notifier.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event publisher: %w", err))
	}
	if a.geoip != nil {
		if err := a.geoip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("geoip: %w", err))
		}
	}
	if err := a.stores.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if err := a.telemetry.Shutdown(ctx, a.logger); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SeedInputFromConfig maps the admin section of the configuration.
func SeedInputFromConfig(cfg config.AdminConfig) admin.SeedInput {
	return admin.SeedInput{
		Email:    cfg.Email,
		Password: cfg.Password,
		Name:     cfg.Name,
	}
}

func newPublisher(cfg config.EventsConfig, logger *slog.Logger) (events.Publisher, health.CheckFunc) {
	switch cfg.Driver {
	case config.EventsNATS:
		publisher, err := events.NewNATSPublisher(cfg.NATSURL, cfg.Subject, logger)
		if err != nil {
			logger.Warn("failed to initialize NATS publisher, events disabled", "error", err)
			return events.Noop{}, nil
		}
		return publisher, func(context.Context) error { return publisher.HealthCheck() }
	case config.EventsKafka:
		publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.Topic, logger)
		if err != nil {
			logger.Warn("failed to initialize Kafka publisher, events disabled", "error", err)
			return events.Noop{}, nil
		}
		return publisher, nil
	default:
		return events.Noop{}, nil
	}
}

func openGeoIP(cfg config.GeoIPConfig, logger *slog.Logger) language.CountryResolver {
	resolver, err := language.OpenGeoIP(cfg.DatabasePath, cfg.CacheSize)
	if errors.Is(err, language.ErrNoDatabase) {
		logger.Info("no geoip database configured, language detection defaults to English")
		return nil
	}
	if err != nil {
		logger.Warn("failed to open geoip database, language detection defaults to English", "error", err)
		return nil
	}
	logger.Info("geoip database loaded", "path", cfg.DatabasePath)
	return resolver
}
