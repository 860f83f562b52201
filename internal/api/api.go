// Package api provides the HTTP server and bootstrap wiring for the chatbot.
//
// It exposes the web-chat endpoint, the Evolution webhook, an interaction
// stats endpoint, and a health probe, and assembles the store, prompt
// resolver, lookup adapters, and conversation engine behind them.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/campointeligente/chatbot/internal/flow"
	"github.com/campointeligente/chatbot/internal/messaging"
	"github.com/campointeligente/chatbot/internal/openweather"
	"github.com/campointeligente/chatbot/internal/prompt"
	"github.com/campointeligente/chatbot/internal/store"
)

// Default configuration constants
const (
	// DefaultAddr is the default API listen address.
	DefaultAddr = ":8080"
	// DefaultShutdownTimeout bounds graceful shutdown on termination signals.
	DefaultShutdownTimeout = 10 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the API server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	engine *flow.Engine
	sender messaging.Sender
	st     store.Store
	addr   string
}

// NewServer creates a Server, applying any provided options.
func NewServer(engine *flow.Engine, sender messaging.Sender, st store.Store, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{engine: engine, sender: sender, st: st, addr: cfg.Addr}
}

// Router builds the chi router with all endpoints registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/webchat/message", s.webchatHandler)
	r.Post("/webhook/evolution", s.webhookHandler)
	r.Get("/interactions/stats", s.statsHandler)
	r.Get("/health", s.healthHandler)
	return r
}

// Run assembles all modules from the given options and serves HTTP until a
// termination signal arrives.
func Run(storeOpts []store.Option, owOpts []openweather.Option, msgOpts []messaging.Option, apiOpts []Option) error {
	st, err := buildStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Error("Failed to close store", "error", cerr)
		}
	}()

	resolver := prompt.NewResolver(st)
	weather := openweather.NewClient(owOpts...)
	sender := messaging.NewEvolutionSender(msgOpts...)

	engine, err := flow.NewEngine(st, resolver, weather, sender)
	if err != nil {
		return fmt.Errorf("failed to initialize conversation engine: %w", err)
	}

	server := NewServer(engine, sender, st, apiOpts...)
	httpServer := &http.Server{Addr: server.addr, Handler: server.Router()}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", server.addr)
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("API server stopped")
	return nil
}

// buildStore selects a backend based on the configured DSN: PostgreSQL for
// postgres-style connection strings, SQLite for file paths, in-memory when no
// DSN is configured at all.
func buildStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Warn("No database DSN configured, using in-memory store; state is lost on restart")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(storeOpts...)
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", cfg.DSN)
	return store.NewSQLiteStore(storeOpts...)
}
