package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/resto-rate/api/internal/config"
	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/middleware"
	"github.com/resto-rate/api/internal/service"
	"github.com/resto-rate/api/internal/storage"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	Storage           storage.Storage
	SessionService    *service.SessionService
	AuthService       *service.AuthService
	UserService       *service.UserService
	EmailService      *service.EmailService
	CategoryService   *service.CategoryService
	RestaurantService *service.RestaurantService
	ReviewService     *service.ReviewService
	AuthLimiter       *middleware.RateLimiter
	TrustedProxies    middleware.TrustedProxies
	Metrics           *middleware.Metrics
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection, db.Pool{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Storage (nil when no bucket is configured)
	photoStorage, err := storage.New(ctx, cfg)
	if err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return Build(cfg, database, photoStorage), nil
}

// Build wires services around an open database. Tests use it with an in-memory one.
func Build(cfg *config.Config, database *sqlx.DB, photoStorage storage.Storage) *App {
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment() || cfg.ResendAPIKey == "",
	)
	hasher := service.NewPasswordHasher()
	sessionService := service.NewSessionService(database, cfg.SessionLifetime)
	googleClient := service.NewGoogleClient(service.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURI:  cfg.GoogleRedirectURI,
	})
	authService := service.NewAuthService(database, hasher, sessionService, googleClient, emailService)
	userService := service.NewUserService(database, hasher, emailService)
	categoryService := service.NewCategoryService(database)
	reviewService := service.NewReviewService(database, photoStorage)
	restaurantService := service.NewRestaurantService(database, reviewService)

	a := &App{
		Cfg:               cfg,
		DB:                database,
		Storage:           photoStorage,
		SessionService:    sessionService,
		AuthService:       authService,
		UserService:       userService,
		EmailService:      emailService,
		CategoryService:   categoryService,
		RestaurantService: restaurantService,
		ReviewService:     reviewService,
		AuthLimiter:       middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow),
		TrustedProxies:    middleware.NewTrustedProxies(cfg.TrustedProxies),
	}

	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewDBStatsCollector(database.DB, cfg.DBDriver),
		)
		a.Metrics = middleware.NewMetrics(reg)
	}

	if photoStorage == nil {
		slog.Info("photo storage disabled, set S3_BUCKET to enable uploads")
	}

	return a
}

func (a *App) Close() error {
	var errs []error
	if a.AuthLimiter != nil {
		a.AuthLimiter.Close()
	}
	if a.DB != nil {
		errs = append(errs, db.Close(a.DB))
	}
	return errors.Join(errs...)
}
