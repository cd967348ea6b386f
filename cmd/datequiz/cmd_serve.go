package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/datequiz/internal/api"
	"github.com/ashureev/datequiz/internal/config"
	"github.com/ashureev/datequiz/internal/display"
	"github.com/ashureev/datequiz/internal/health"
	"github.com/ashureev/datequiz/internal/logging"
	"github.com/ashureev/datequiz/internal/skill"
	"github.com/ashureev/datequiz/internal/store"
	"github.com/ashureev/datequiz/internal/transcript"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP turn API, display socket and gRPC health server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, logCloser, err := logging.Setup(cfg.Log, os.Stdout)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	recorder, err := transcript.NewLogger(cfg.Transcript, logger)
	if err != nil {
		return fmt.Errorf("initialize transcripts: %w", err)
	}
	defer recorder.Close()

	hub := display.NewHub()
	dispatcher, err := newDispatcher(cfg, repo, logger, skill.WithPublisher(hub), skill.WithRecorder(recorder))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.RouterConfig{
			Dispatcher:     dispatcher,
			Repo:           repo,
			Hub:            hub,
			AllowedOrigins: cfg.AllowedOrigins,
			IsDev:          cfg.IsDevelopment(),
			HealthTimeout:  cfg.HealthTimeout,
			RequestLog:     cfg.IsDevelopment(),
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // display sockets are long-lived
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	store.StartTTLWorker(gctx, repo, cfg.SessionTTL, cfg.SweepInterval, hub.CloseSession)

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if cfg.GRPCHealthPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCHealthPort)
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("listen for grpc health: %w", err)
		}
		hs := health.NewServer(logger)
		hs.SetServing(true)
		g.Go(func() error { return hs.Serve(lis) })
		g.Go(func() error {
			<-gctx.Done()
			hs.Stop()
			return nil
		})
	} else {
		slog.Info("gRPC health server disabled (GRPC_HEALTH_PORT empty)")
	}

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped successfully")
	return nil
}
