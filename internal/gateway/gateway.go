// ABOUTME: Gateway orchestrator wiring store, sessions, hub, and the HTTP server.
// ABOUTME: Owns startup, route registration, and graceful shutdown.

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/kirimwa/kirim-gateway/internal/auth"
	"github.com/kirimwa/kirim-gateway/internal/config"
	"github.com/kirimwa/kirim-gateway/internal/hub"
	"github.com/kirimwa/kirim-gateway/internal/message"
	"github.com/kirimwa/kirim-gateway/internal/platform"
	"github.com/kirimwa/kirim-gateway/internal/session"
	"github.com/kirimwa/kirim-gateway/internal/store"
)

// Gateway orchestrates the kirim-gateway server components: the session
// registry, the event hub, the messaging services, and the HTTP server
// that fronts them.
type Gateway struct {
	config     *config.Config
	store      store.Store
	hub        *hub.Hub
	registry   *session.Registry
	service    *message.Service
	pipeline   *message.Pipeline
	httpServer *http.Server
	logger     *slog.Logger
}

// New wires a Gateway from config. The uploads directory is created if
// missing and every persisted session is replayed before Run starts
// serving.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ensuring uploads dir: %w", err)
	}

	factory, err := platformFactory(cfg)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	h := hub.New(s, logger)
	registry := session.NewRegistry(s, h, factory, logger)
	service := message.NewService(cfg.Messaging.CountryCode, nil, logger)
	pipeline := message.NewPipeline(service, logger)

	g := &Gateway{
		config:   cfg,
		store:    s,
		hub:      h,
		registry: registry,
		service:  service,
		pipeline: pipeline,
		logger:   logger,
	}

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           g.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// platformFactory selects the messaging driver from config.
func platformFactory(cfg *config.Config) (platform.Factory, error) {
	switch cfg.Platform.Driver {
	case "sandbox":
		return platform.SandboxFactory, nil
	default:
		return nil, fmt.Errorf("unknown platform driver %q", cfg.Platform.Driver)
	}
}

// routes builds the HTTP mux. When a JWT secret is configured the API
// endpoints require a bearer token; health, static assets, and the
// websocket upgrade stay open.
func (g *Gateway) routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /send-message", g.handleSendMessage)
	api.HandleFunc("POST /send-media", g.handleSendMedia)
	api.HandleFunc("POST /upload", g.handleUpload)
	api.HandleFunc("POST /broadcast", g.handleBroadcast)

	var apiHandler http.Handler = api
	if g.config.Auth.JWTSecret != "" {
		verifier := auth.NewJWTVerifier([]byte(g.config.Auth.JWTSecret))
		apiHandler = auth.Middleware(verifier)(api)
		g.logger.Info("bearer-token auth enabled on API endpoints")
	} else {
		g.logger.Warn("auth disabled - no jwt_secret configured")
	}

	mux := http.NewServeMux()
	mux.Handle("/send-message", apiHandler)
	mux.Handle("/send-media", apiHandler)
	mux.Handle("/upload", apiHandler)
	mux.Handle("/broadcast", apiHandler)
	mux.Handle("GET /assets/uploads/", http.StripPrefix("/assets/uploads/", http.FileServer(http.Dir(g.config.Uploads.Dir))))
	mux.HandleFunc("GET /ws", g.handleWS)
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /health/ready", g.handleReady)
	return mux
}

// Run replays persisted sessions, starts the HTTP server, and blocks
// until the context is canceled or the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	if err := g.registry.Restore(ctx); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", g.config.Server.HTTPAddr, err)
	}

	errCh := g.startServer(ln)
	serverErr := g.waitForShutdownSignal(ctx, errCh)

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// startServer starts the HTTP server in a goroutine, returning an error channel.
func (g *Gateway) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or a server error.
func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		return err
	}
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the HTTP server, the session workers, the hub, and the
// store, in that order.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var firstErr error
	if g.httpServer != nil {
		if err := g.httpServer.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("HTTP server shutdown: %w", err)
		}
	}

	g.registry.Close()
	g.hub.Close()

	if err := g.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}

	g.logger.Info("gateway shutdown complete")
	return firstErr
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once at least one session worker is live.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	n := g.registry.Count()
	if n == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no sessions live"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d sessions)", n)
}
