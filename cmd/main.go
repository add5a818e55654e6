package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/drought/internal/adapters/http/api"
	"github.com/okian/drought/internal/adapters/http/swagger"
	"github.com/okian/drought/internal/adapters/tabular"
	app "github.com/okian/drought/internal/app"
	"github.com/okian/drought/internal/config"
	"github.com/okian/drought/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("drought: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	format, err := logger.ParseFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(format)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.Get()

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	if cfg.ParamsFile != "" {
		fitted, err := tabular.ReadParamsFile(cfg.ParamsFile)
		if err != nil {
			return fmt.Errorf("read params: %w", err)
		}
		if err := svc.LoadParams(ctx, fitted); err != nil {
			return fmt.Errorf("load params: %w", err)
		}
		log.Info(ctx, "parameters loaded", logger.String("file", cfg.ParamsFile), logger.Int("count", len(fitted)))
	}

	res, err := svc.RunDir(ctx, cfg.InputDir, cfg.OutputDir)
	if err != nil {
		return err
	}
	log.Info(ctx, "results written",
		logger.String("run", res.RunID),
		logger.String("dir", cfg.OutputDir),
	)

	if !cfg.Serve {
		return nil
	}
	return serve(ctx, cfg, svc, log)
}

func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	thresholds, err := cfg.Thresholds()
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithShardCount(cfg.ShardCount),
		app.WithTimescales(cfg.Timescales...),
		app.WithThresholds(thresholds),
		app.WithSeasonPolicy(cfg.SeasonPolicy()),
		app.WithDirection(cfg.EventDirection()),
		app.WithDurationUnit(cfg.Unit()),
		app.WithPrecision(cfg.Precision),
		app.WithObservationMonths(cfg.ObservationMonths),
	), nil
}

func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, api.WithRateLimit(cfg.RateLimit, cfg.RateBurst)).Register(ctx, mux)
	return mux
}

// serve exposes the query API until ctx ends, re-running the batch on the
// configured schedule.
func serve(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) error {
	if cfg.Schedule != "" {
		if err := svc.Schedule(ctx, cfg.Schedule, cfg.InputDir, cfg.OutputDir); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}
