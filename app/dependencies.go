package app

import (
	"context"
	"fmt"

	"github.com/upb/login-telemetry/config"
	"github.com/upb/login-telemetry/internal/geo"
	"github.com/upb/login-telemetry/middleware"
	"github.com/upb/login-telemetry/services/ingest"
	"github.com/upb/login-telemetry/services/notify"
	"github.com/upb/login-telemetry/store"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection: everything is constructed once at
// startup from the immutable config and passed down explicitly.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Store       store.Store
	Locator     *geo.Locator
	Notifier    *notify.Service
	Ingest      *ingest.Service
	RateLimiter *middleware.RateLimiter
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	deps.initGeoIP(cfg)
	deps.initPipeline(cfg)

	logger.Info("all dependencies initialized",
		zap.String("store", cfg.Store.LogString()))
	return deps, nil
}

func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		st, err := store.NewPostgresStore(ctx, store.PostgresConfig{
			DSN:             cfg.Store.DatabaseURL,
			MaxOpenConns:    cfg.Store.MaxOpenConns,
			MaxIdleConns:    cfg.Store.MaxIdleConns,
			ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
		}, d.Logger)
		if err != nil {
			return err
		}
		d.Store = st
	default:
		st, err := store.NewJSONLStore(cfg.Store.Path, d.Logger)
		if err != nil {
			return err
		}
		d.Store = st
	}
	return nil
}

// initGeoIP loads the optional MaxMind database. A missing or unreadable
// database degrades to undecorated notifications rather than failing
// startup.
func (d *Dependencies) initGeoIP(cfg *config.Config) {
	if cfg.GeoIP.DBPath == "" {
		return
	}
	locator, err := geo.Open(cfg.GeoIP.DBPath)
	if err != nil {
		d.Logger.Warn("geoip database unavailable, notifications will be undecorated",
			zap.String("path", cfg.GeoIP.DBPath),
			zap.Error(err))
		return
	}
	d.Locator = locator
}

func (d *Dependencies) initPipeline(cfg *config.Config) {
	var locator notify.Locator
	if d.Locator != nil {
		locator = d.Locator
	}
	d.Notifier = notify.NewService(notify.Config{
		DiscordWebhookURL: cfg.Notify.DiscordWebhookURL,
		TelegramBotToken:  cfg.Notify.TelegramBotToken,
		TelegramChatID:    cfg.Notify.TelegramChatID,
		Timeout:           cfg.Notify.Timeout,
	}, locator, d.Logger)
	d.Ingest = ingest.NewService(d.Store, d.Notifier, d.Logger)
	d.RateLimiter = middleware.NewRateLimiter(cfg.Throttle.RequestsPerMinute, d.Logger)
}

// Close releases held resources in reverse dependency order.
func (d *Dependencies) Close() error {
	var firstErr error
	if d.Locator != nil {
		if err := d.Locator.Close(); err != nil {
			firstErr = err
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
