// Package server exposes the catalog, settlement, and archive operations
// over HTTP plus a WebSocket event feed.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/server/handler"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/server/middleware"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// APIKey guards the whole API when set; empty disables the outer check.
	APIKey string
	// AdminAPIKey guards catalog mutations, treasury payouts, and archive
	// triggers.
	AdminAPIKey string
	// RateLimitPerMinute is the per-client request budget. Zero disables
	// rate limiting.
	RateLimitPerMinute int
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Archive may be nil when archiving is disabled.
type Handlers struct {
	Health     *handler.HealthHandler
	Catalog    *handler.CatalogHandler
	Settlement *handler.SettlementHandler
	Archive    *handler.ArchiveHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered. Read endpoints
// sit behind the optional service-wide API key; mutations additionally
// require the admin key. limiter may be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	admin := middleware.Auth(cfg.AdminAPIKey)

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Catalog reads.
	mux.HandleFunc("GET /api/items", handlers.Catalog.ListItems)
	mux.HandleFunc("GET /api/items/{id}", handlers.Catalog.GetItem)
	mux.HandleFunc("GET /api/items/{id}/quote", handlers.Catalog.Quote)

	// Catalog mutations (admin).
	mux.Handle("POST /api/items", admin(http.HandlerFunc(handlers.Catalog.AddItem)))
	mux.Handle("PUT /api/items/{id}/price", admin(http.HandlerFunc(handlers.Catalog.UpdatePrice)))
	mux.Handle("DELETE /api/items/{id}", admin(http.HandlerFunc(handlers.Catalog.DeleteItem)))

	// Purchases.
	mux.HandleFunc("POST /api/purchases", handlers.Settlement.Purchase)
	mux.HandleFunc("GET /api/purchases", handlers.Settlement.ListPurchases)
	mux.HandleFunc("GET /api/purchases/{id}", handlers.Settlement.GetPurchase)

	// Treasury (admin).
	mux.Handle("GET /api/treasury/balance", admin(http.HandlerFunc(handlers.Settlement.Balance)))
	mux.Handle("POST /api/treasury/withdraw", admin(http.HandlerFunc(handlers.Settlement.Withdraw)))
	mux.Handle("POST /api/treasury/transfer", admin(http.HandlerFunc(handlers.Settlement.Transfer)))

	// Event journal and archives.
	if handlers.Archive != nil {
		mux.HandleFunc("GET /api/events", handlers.Archive.ListEvents)
		mux.HandleFunc("GET /api/archives", handlers.Archive.ListArchives)
		mux.HandleFunc("GET /api/archives/{path...}", handlers.Archive.DownloadArchive)
		mux.Handle("POST /api/archives", admin(http.HandlerFunc(handlers.Archive.TriggerArchive)))
	}

	// WebSocket event feed.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimitPerMinute > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimitPerMinute, time.Minute)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
