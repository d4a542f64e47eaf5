package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/phuslu/log"
	"github.com/spf13/pflag"

	"backlogmcp/server/internal/auth"
	"backlogmcp/server/internal/config"
	"backlogmcp/server/internal/mcp"
	"backlogmcp/server/internal/middleware"
	"backlogmcp/server/internal/modules"
	"backlogmcp/server/internal/modules/backlog"
	"backlogmcp/server/internal/observability"
	"backlogmcp/server/pkg/backlogapi"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "backlog-mcp: %v\n", err)
		os.Exit(2)
	}

	logger := observability.NewLogger(cfg.LogLevel, os.Stderr)
	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *log.Logger) error {
	loki := observability.NewLokiClient(cfg.Loki, logger)
	defer loki.Close()

	client := backlogapi.NewClient(cfg.BaseURL, cfg.APIKey,
		backlogapi.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	)

	registry := modules.NewRegistry(logger, modules.WithLoki(loki))
	if err := registry.Register(backlog.New(client)); err != nil {
		return errors.Wrap(err, "register backlog module")
	}
	logger.Info().Strs("modules", registry.Modules()).Int("tools", len(registry.Tools())).
		Str("base_url", cfg.BaseURL).Str("transport", cfg.Transport).Str("version", version).Msg("starting")

	handler := mcp.NewHandler(registry, version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Transport == config.TransportStdio {
		return middleware.ServeStdio(ctx, handler, os.Stdin, os.Stdout, logger)
	}
	return serveHTTP(ctx, cfg, handler, logger, loki)
}

func serveHTTP(ctx context.Context, cfg config.Config, handler *mcp.Handler, logger *log.Logger, loki *observability.LokiClient) error {
	var h http.Handler = middleware.Transport(handler, logger)
	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit)
		go limiter.Run(ctx.Done())
		h = limiter.Middleware(h)
	}
	if cfg.AuthSecret != "" {
		h = middleware.Authorize(auth.NewVerifier(cfg.AuthSecret, cfg.AuthIssuer), logger, loki)(h)
		if cfg.RateLimit > 0 {
			// Bad tokens never reach the per-subject limiter above.
			perIP := middleware.NewRateLimiter(cfg.RateLimit)
			go perIP.Run(ctx.Done())
			h = perIP.ByRemoteIP(h)
		}
	} else {
		logger.Warn().Msg("MCP_AUTH_SECRET not set, HTTP transport is unauthenticated")
	}
	h = middleware.Recovery(logger, loki)(h)
	h = middleware.RequestID(h)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","version":%q}`, version)
	})
	mux.Handle("/mcp", h)

	srv := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		// SSE streams end when the signal context is cancelled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddress).Msg("starting MCP HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return errors.Wrap(err, "listen")
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down gracefully")
	// Give in-flight requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	logger.Info().Msg("server stopped")
	return nil
}
