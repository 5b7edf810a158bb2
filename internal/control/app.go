package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/newsdesk/internal/core/config"
	"github.com/vietddude/newsdesk/internal/health"
	"github.com/vietddude/newsdesk/internal/infra/cache"
	"github.com/vietddude/newsdesk/internal/infra/database"
)

// App wires the database layer and the health surface into one process.
type App struct {
	cfg          config.AppConfig
	db           *database.Manager
	cache        *cache.Client
	healthMon    *health.Monitor
	healthServer *health.Server
	grpcServer   *health.GRPCServer
	log          *slog.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
	errs   chan error
}

// NewApp creates an App around the process database manager. No database connection
// is made until Start.
func NewApp(ctx context.Context, cfg config.AppConfig, db *database.Manager) (*App, error) {
	if db == nil {
		return nil, fmt.Errorf("database manager cannot be nil")
	}

	healthMon := health.NewMonitor(cfg.Server.HealthCacheTTL, cfg.Server.HealthCheckTimeout)
	healthMon.Register(health.DatabaseService, db, true)

	var redisClient *cache.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, cache reported unhealthy", "error", err)
			healthMon.Register("cache", health.CheckerFunc(func(context.Context) bool { return false }), false)
		} else {
			healthMon.Register("cache", redisClient, false)
		}
	}

	app := &App{
		cfg:          cfg,
		db:           db,
		cache:        redisClient,
		healthMon:    healthMon,
		healthServer: health.NewServer(healthMon, cfg.Server.Port),
		log:          slog.Default(),
		errs:         make(chan error, 2),
	}
	if cfg.Server.GRPCPort > 0 {
		app.grpcServer = health.NewGRPCServer(healthMon, cfg.Server.HealthSyncInterval)
	}
	return app, nil
}

// Start binds the server ports, connects to the database, applies migrations and
// starts the servers. Failures of the running servers are reported on Errors.
func (a *App) Start(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", a.healthServer.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen for health server: %w", err)
	}

	var grpcLis net.Listener
	if a.grpcServer != nil {
		grpcLis, err = net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.GRPCPort))
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("failed to listen for grpc: %w", err)
		}
	}

	closeListeners := func() {
		_ = httpLis.Close()
		if grpcLis != nil {
			_ = grpcLis.Close()
		}
	}

	if err := a.db.Connect(ctx); err != nil {
		closeListeners()
		return err
	}

	if a.cfg.Database.MigrationsDir != "" {
		if err := a.db.Migrate(ctx, ""); err != nil {
			closeListeners()
			return err
		}
		a.log.Info("Migrations applied", "dir", a.cfg.Database.MigrationsDir)
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	g, runCtx := errgroup.WithContext(runCtx)
	a.group = g

	a.db.StartMetricsCollector(runCtx, 15*time.Second)

	g.Go(func() error {
		a.log.Info("Health server listening", "addr", httpLis.Addr().String())
		if err := a.healthServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return a.fail(fmt.Errorf("health server failed: %w", err))
		}
		return nil
	})

	if a.grpcServer != nil {
		g.Go(func() error {
			a.grpcServer.Run(runCtx)
			return nil
		})
		g.Go(func() error {
			a.log.Info("gRPC health server listening", "addr", grpcLis.Addr().String())
			if err := a.grpcServer.Serve(grpcLis); err != nil {
				return a.fail(fmt.Errorf("grpc server failed: %w", err))
			}
			return nil
		})
	}

	return nil
}

// Errors receives the first failures of the servers started by Start.
func (a *App) Errors() <-chan error {
	return a.errs
}

func (a *App) fail(err error) error {
	select {
	case a.errs <- err:
	default:
	}
	return err
}

// Stop shuts down the servers, then the cache and database connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping newsdesk...")

	if a.cancel != nil {
		a.cancel()
	}

	var errs []error
	if err := a.healthServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop health server: %w", err))
	}
	if a.grpcServer != nil {
		a.grpcServer.Stop(ctx)
	}
	if a.group != nil {
		if err := a.group.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}

	if err := a.db.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
