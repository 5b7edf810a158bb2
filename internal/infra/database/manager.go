package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vietddude/newsdesk/internal/core/metrics"
)

// State is the lifecycle state of the primary handle.
type State int32

const (
	StateUnconnected State = iota
	StateConnected
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Opener opens a new ORM client for cfg. It must not share sessions between calls.
type Opener func(ctx context.Context, cfg Config) (*gorm.DB, error)

// Option configures a Manager.
type Option func(*Manager)

// WithOpener replaces the PostgreSQL opener.
func WithOpener(open Opener) Option {
	return func(m *Manager) { m.open = open }
}

// WithLogger sets the logger used by the manager.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// Manager owns the primary database handle for the process.
type Manager struct {
	cfg  Config
	open Opener
	log  *slog.Logger

	// lifecycle serializes Connect, Disconnect and ResetConnection; mu guards the fields
	// below and is never held while a handle is opened or closed.
	lifecycle sync.Mutex
	mu        sync.RWMutex
	state     State
	primary   *Handle
}

// NewManager creates a manager. No connection is made until Connect or Primary.
func NewManager(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:  cfg.withDefaults(),
		open: openPostgres,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "database")
	return m
}

func openPostgres(_ context.Context, cfg Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		PrepareStmt:          cfg.PrepareStatements,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.cfg }

// State returns the current state of the primary handle.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Connect opens the primary handle. Calling it while connected is a no-op.
func (m *Manager) Connect(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	return m.connectLocked(ctx)
}

func (m *Manager) connectLocked(ctx context.Context) error {
	m.mu.RLock()
	connected := m.primary != nil
	m.mu.RUnlock()
	if connected {
		return nil
	}

	h, err := m.openHandle(ctx, m.cfg.MaxConns, m.cfg.MinConns)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.primary = h
	m.state = StateConnected
	m.mu.Unlock()

	m.log.Info("Database connected", "handle", h.ID(), "max_conns", m.cfg.MaxConns)
	return nil
}

// Disconnect closes the primary handle. Calling it while unconnected is a no-op.
// While the handle is closing State reports StateDisconnecting and the primary is no
// longer handed out.
func (m *Manager) Disconnect() error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	return m.disconnectLocked()
}

func (m *Manager) disconnectLocked() error {
	m.mu.Lock()
	h := m.primary
	if h == nil {
		m.mu.Unlock()
		return nil
	}
	m.primary = nil
	m.state = StateDisconnecting
	m.mu.Unlock()

	err := h.Close()

	m.mu.Lock()
	m.state = StateUnconnected
	m.mu.Unlock()

	if err != nil {
		return &DisconnectionError{Err: err}
	}
	m.log.Info("Database disconnected", "handle", h.ID())
	return nil
}

// HealthCheck runs SELECT 1 on the primary handle. It never returns an error.
func (m *Manager) HealthCheck(ctx context.Context) bool {
	m.mu.RLock()
	h := m.primary
	m.mu.RUnlock()

	if h == nil {
		metrics.DBUp.Set(0)
		return false
	}

	if err := h.DB().WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		m.log.Warn("Database health check failed", "handle", h.ID(), "error", err)
		metrics.DBUp.Set(0)
		return false
	}

	metrics.DBUp.Set(1)
	return true
}

// ResetConnection disconnects and connects again. If the reconnect fails the
// manager stays unconnected.
func (m *Manager) ResetConnection(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if err := m.disconnectLocked(); err != nil {
		return err
	}
	return m.connectLocked(ctx)
}

// Primary returns the shared handle, connecting on first use.
func (m *Manager) Primary(ctx context.Context) (*Handle, error) {
	m.mu.RLock()
	h := m.primary
	m.mu.RUnlock()
	if h != nil {
		return h, nil
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if err := m.connectLocked(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.primary, nil
}

// NewFreshHandle opens an independent single-session handle. The primary handle is
// not affected and the caller owns closing the result.
func (m *Manager) NewFreshHandle(ctx context.Context) (*Handle, error) {
	h, err := m.openHandle(ctx, 1, 1)
	if err != nil {
		return nil, err
	}
	metrics.DBFreshHandles.Inc()
	m.log.Debug("Opened fresh database handle", "handle", h.ID())
	return h, nil
}

func (m *Manager) openHandle(ctx context.Context, maxOpen, maxIdle int) (*Handle, error) {
	if m.cfg.URL == "" {
		return nil, &ConnectionError{Err: ErrMissingURL}
	}

	db, err := m.open(ctx, m.cfg)
	if err != nil {
		return nil, &ConnectionError{Err: fmt.Errorf("failed to open database: %w", err)}
	}

	h, err := NewHandle(db)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	sqlDB := h.SQL()
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(m.cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(m.cfg.ConnMaxIdleTime)

	if err := h.Ping(ctx); err != nil {
		_ = h.Close()
		return nil, &ConnectionError{Err: fmt.Errorf("failed to ping database: %w", err)}
	}

	return h, nil
}

// Run executes fn through ExecuteWithRetry using the configured retry policy.
func (m *Manager) Run(ctx context.Context, fn func(ctx context.Context, db *gorm.DB) error) error {
	cfg := m.cfg.Retry
	if cfg.Logger == nil {
		cfg.Logger = m.log
	}
	_, err := ExecuteWithRetry(ctx, m, func(ctx context.Context, db *gorm.DB) (struct{}, error) {
		return struct{}{}, fn(ctx, db)
	}, cfg)
	return err
}

// Shutdown disconnects the primary handle, giving up when ctx ends. The host process
// calls it from its own signal handling.
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- m.Disconnect()
	}()

	select {
	case err := <-done:
		if err != nil {
			m.log.Error("Database shutdown failed", "error", err)
			return err
		}
		m.log.Info("Database shutdown complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("database shutdown: %w", ctx.Err())
	}
}

// StartMetricsCollector starts a background goroutine to collect pool metrics.
func (m *Manager) StartMetricsCollector(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.collectPoolMetrics()
			}
		}
	}()
}

func (m *Manager) collectPoolMetrics() {
	m.mu.RLock()
	h := m.primary
	m.mu.RUnlock()
	if h == nil {
		return
	}

	stats := h.SQL().Stats()
	// MaxOpenConnections is 0 when unlimited
	if stats.MaxOpenConnections > 0 {
		usage := float64(stats.OpenConnections) / float64(stats.MaxOpenConnections) * 100
		metrics.DBConnectionPoolUsage.Set(usage)
	}
}
