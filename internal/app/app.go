// Package app provides the top-level application lifecycle. It wires the
// oracle gateway, settlement engine, stores, event bus, and notification
// channels together and runs the HTTP/WebSocket server until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/config"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/server"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/server/handler"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/server/ws"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/service"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the event
// hub, the HTTP server, and the periodic archiver, and blocks until the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	// Build services.
	catalogSvc := service.NewCatalogService(deps.Engine, deps.Journal, deps.Bus, a.logger)
	settlementSvc := service.NewSettlementService(
		deps.Engine, deps.PurchaseStore, deps.Journal, deps.Bus, deps.Notifier, a.logger,
	)

	var archiveSvc *service.ArchiveService
	if deps.Archiver != nil {
		archiveSvc = service.NewArchiveService(deps.Archiver, deps.BlobReader, deps.Journal, a.logger)
		retention := time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour
		g.Go(func() error {
			return archiveSvc.RunPeriodic(ctx, a.cfg.Archive.Interval.Duration, retention)
		})
	}

	// WebSocket hub bridging the event bus to clients.
	hub := ws.NewHub(deps.Bus, service.EventChannel, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	// HTTP server.
	handlers := server.Handlers{
		Health:     handler.NewHealthHandler(a.logger),
		Catalog:    handler.NewCatalogHandler(catalogSvc, a.logger),
		Settlement: handler.NewSettlementHandler(settlementSvc, a.logger),
	}
	if archiveSvc != nil {
		handlers.Archive = handler.NewArchiveHandler(archiveSvc, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:               a.cfg.Server.Port,
		CORSOrigins:        a.cfg.Server.CORSOrigins,
		APIKey:             a.cfg.Server.APIKey,
		AdminAPIKey:        a.cfg.Server.AdminAPIKey,
		RateLimitPerMinute: a.cfg.Server.RateLimitPerMinute,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
