// cmd/service/main.go
package main

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

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github-activity-mirror/internal/api"
	"github-activity-mirror/internal/config"
	"github-activity-mirror/internal/database"
	"github-activity-mirror/internal/github"
	"github-activity-mirror/internal/store/memory"
	"github-activity-mirror/internal/store/postgres"
	"github-activity-mirror/internal/store/sqlite"
	"github-activity-mirror/internal/syncer"
	"github-activity-mirror/migrations"
)

// mirrorStore is what the service needs from a storage driver: the sync engine's writes and the API's reads.
type mirrorStore interface {
	syncer.Store
	api.Reader
}

func main() {
	if err := run(); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully", "store", cfg.StoreDriver, "jobs", cfg.SyncJobs)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []github.Option{github.WithPageSize(cfg.PageSize)}
	if cfg.GithubGraphQLURL != "" {
		opts = append(opts, github.WithGraphQLURL(cfg.GithubGraphQLURL))
	}
	ghClient := github.NewClient(cfg.GithubToken, logger, opts...)

	appSyncer, err := syncer.NewSyncer(store, ghClient, logger, cfg.SyncJobs, cfg.SyncInterval)
	if err != nil {
		return fmt.Errorf("failed to create syncer: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var srv *http.Server
	if cfg.HTTPAddr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewRouter(store, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("API server listening", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("api server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		err := appSyncer.Start(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		// A one-shot run keeps serving the API until a signal arrives.
		if srv != nil && cfg.SyncInterval <= 0 {
			logger.Info("Sync finished, serving API until shutdown")
			<-gctx.Done()
			return nil
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

// openStore connects the configured storage driver and returns a function that releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (mirrorStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		dbpool, err := pgxpool.New(ctx, cfg.DBURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := dbpool.Ping(ctx); err != nil {
			dbpool.Close()
			return nil, nil, fmt.Errorf("failed to reach database: %w", err)
		}
		logger.Info("Database connection established")

		if err := migrations.Up(cfg.DBURL); err != nil {
			dbpool.Close()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		logger.Info("Database migrations applied successfully")
		return postgres.New(database.New(dbpool)), dbpool.Close, nil

	case config.DriverSQLite:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("SQLite store opened", "path", cfg.SQLitePath)
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Error("Failed to close sqlite store", "error", err)
			}
		}, nil

	default:
		logger.Warn("Using in-memory store; nothing will be persisted")
		return memory.New(), func() {}, nil
	}
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
