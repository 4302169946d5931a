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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/example/exterminus/internal/application"
	"github.com/example/exterminus/internal/authz"
	"github.com/example/exterminus/internal/config"
	"github.com/example/exterminus/internal/export"
	"github.com/example/exterminus/internal/holiday"
	httptransport "github.com/example/exterminus/internal/http"
	"github.com/example/exterminus/internal/logging"
	"github.com/example/exterminus/internal/metrics"
	"github.com/example/exterminus/internal/persistence/sqlite"
	"github.com/example/exterminus/internal/persistence/sqlite/migration"
	"github.com/example/exterminus/internal/scheduler"
	"github.com/example/exterminus/internal/zipcode"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer app.Close()

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	return app.serve(ctx, listener)
}

// app owns the long lived resources behind the HTTP server.
type app struct {
	logger  *slog.Logger
	storage *sqlite.Storage
	redis   *redis.Client
	handler http.Handler
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	dbConfig := migration.DefaultSQLiteConfig(cfg.SQLitePath)
	if cfg.SQLiteBusyTimeout > 0 {
		dbConfig.BusyTimeout = cfg.SQLiteBusyTimeout
	}
	storage, err := sqlite.Open(dbConfig, logger)
	if err != nil {
		return nil, err
	}
	a := &app{logger: logger, storage: storage}

	if err := storage.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}

	handler, err := a.wire(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.handler = handler
	return a, nil
}

func (a *app) wire(ctx context.Context, cfg config.Config) (http.Handler, error) {
	logger := a.logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	zipCounter, err := metrics.NewCacheCounter(reg, "zipcode")
	if err != nil {
		return nil, err
	}
	holidayCounter, err := metrics.NewCacheCounter(reg, "holiday")
	if err != nil {
		return nil, err
	}

	zipOpts := []zipcode.Option{zipcode.WithMetrics(zipCounter), zipcode.WithLogger(logger)}
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			// Lookups fall back to the directory while redis is away.
			logger.WarnContext(ctx, "redis unreachable at startup", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		zipOpts = append(zipOpts, zipcode.WithSharedCache(zipcode.NewRedisCache(a.redis, cfg.RedisTTL)))
	}
	zips, err := zipcode.NewClient(zipcode.Config{
		BaseURL:    cfg.ZipAPIURL,
		Timeout:    cfg.ZipTimeout,
		RetryCount: zipcode.DefaultConfig().RetryCount,
		CacheSize:  cfg.ZipCacheSize,
	}, zipOpts...)
	if err != nil {
		return nil, err
	}

	holidays, err := holiday.NewProvider(cfg.HolidayJurisdiction, holidayCounter)
	if err != nil {
		return nil, err
	}
	policy, err := authz.New()
	if err != nil {
		return nil, err
	}
	auth, err := httptransport.NewTokenAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return nil, err
	}

	s := a.storage
	composer := scheduler.NewComposer(s.Technicians, zips, logger)
	jobService := application.NewJobService(s.Jobs, composer, logger)
	lockService := application.NewLockService(s.Locks, logger)
	calendarService := application.NewCalendarService(s.Jobs, s.TimeOff, s.Locks, holidays, logger)
	timeOffService := application.NewTimeOffService(s.TimeOff, s.Technicians, s.Users, logger)
	technicianService := application.NewTechnicianService(s.Technicians, s.Users, logger)

	jobHandler, err := httptransport.NewJobHandler(jobService, logger)
	if err != nil {
		return nil, err
	}
	timeOffHandler, err := httptransport.NewTimeOffHandler(timeOffService, logger)
	if err != nil {
		return nil, err
	}
	technicianHandler, err := httptransport.NewTechnicianHandler(technicianService, logger)
	if err != nil {
		return nil, err
	}
	httpMetrics, err := httptransport.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:        auth,
		Policy:      policy,
		Jobs:        jobHandler,
		Calendar:    httptransport.NewCalendarHandler(calendarService, export.MonthWorkbook, logger),
		Locks:       httptransport.NewLockHandler(lockService, logger),
		TimeOff:     timeOffHandler,
		Technicians: technicianHandler,
		Health:      s,
		Metrics:     httpMetrics,
		Gatherer:    reg,
		Logger:      logger,
	}), nil
}

// serve runs the HTTP server on listener until ctx is done, then drains it.
func (a *app) serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("exterminus API listening", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		a.logger.Info("exterminus API stopped")
		return nil
	})
	return g.Wait()
}

// Close releases storage and the redis client.
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("failed to close redis", "error", err)
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Error("failed to close storage", "error", err)
		}
	}
}
