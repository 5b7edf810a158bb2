package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Handle owns one opened ORM client and its connection pool.
type Handle struct {
	id    string
	db    *gorm.DB
	sqlDB *sql.DB

	mu     sync.Mutex
	closed bool
}

// NewHandle wraps an opened gorm client.
func NewHandle(db *gorm.DB) (*Handle, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return &Handle{
		id:    uuid.NewString(),
		db:    db,
		sqlDB: sqlDB,
	}, nil
}

// ID identifies the handle in logs.
func (h *Handle) ID() string { return h.id }

// DB returns the ORM client.
func (h *Handle) DB() *gorm.DB { return h.db }

// SQL returns the underlying connection pool.
func (h *Handle) SQL() *sql.DB { return h.sqlDB }

// IsOpen reports whether Close has not been called yet.
func (h *Handle) IsOpen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed
}

// Ping verifies the session is alive.
func (h *Handle) Ping(ctx context.Context) error {
	if !h.IsOpen() {
		return ErrNotConnected
	}
	return h.sqlDB.PingContext(ctx)
}

// Close closes the pool. Safe to call multiple times.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	return h.sqlDB.Close()
}
