// Package main starts an HTTP server that provides endpoints for health checks,
// ONNX model parsing and interactive inspection sessions. It uses the internal
// handlers package to process incoming requests and return JSON responses.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onnxscope/core/cmd/api/middleware"
	"github.com/onnxscope/core/internal/config"
	"github.com/onnxscope/core/internal/handlers"
)

const shutdownTimeout = 10 * time.Second

func newServer(cfg config.Config) *http.Server {
	mux := http.NewServeMux()
	handlers.NewAPI(cfg).Register(mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.Cors(cfg.AllowedOrigins)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func run(ctx context.Context, cfg config.Config) error {
	srv := newServer(cfg)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("🚀 Server starting on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Printf("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func main() {
	cfg, err := config.Load(os.Getenv("ONNXSCOPE_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}
