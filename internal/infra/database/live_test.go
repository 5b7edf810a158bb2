package database

import (
	"context"
	"os"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestManager_Live(t *testing.T) {
	url := os.Getenv("NEWSDESK_LIVE_DB")
	if url == "" {
		t.Skip("Skipping live database test. Set NEWSDESK_LIVE_DB to a postgres url to run.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// One session so the second PREPARE collides with the first
	m := NewManager(Config{
		URL:      url,
		MaxConns: 1,
		MinConns: 1,
		Retry:    RetryConfig{MaxAttempts: 3, Backoff: 10 * time.Millisecond},
	})
	defer m.Disconnect()

	if err := m.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !m.HealthCheck(ctx) {
		t.Fatal("expected healthy database")
	}

	prepare := func(ctx context.Context, db *gorm.DB) error {
		return db.WithContext(ctx).Exec("PREPARE newsdesk_select_one AS SELECT 1").Error
	}

	if err := m.Run(ctx, prepare); err != nil {
		t.Fatalf("first PREPARE failed: %v", err)
	}

	primary, _ := m.Primary(ctx)
	if err := prepare(ctx, primary.DB()); !IsTransientConflict(err) {
		t.Fatalf("expected duplicate prepared statement on primary, got %v", err)
	}

	if err := m.Run(ctx, prepare); err != nil {
		t.Fatalf("expected retry on fresh handle to succeed, got %v", err)
	}

	if err := m.ResetConnection(ctx); err != nil {
		t.Fatalf("ResetConnection failed: %v", err)
	}
	if err := m.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if m.HealthCheck(ctx) {
		t.Error("expected unhealthy after disconnect")
	}
}
