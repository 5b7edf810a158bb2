package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pressly/goose/v3"
)

// Migrate applies the goose SQL migrations in dir on the primary handle. An empty dir
// falls back to the configured migrations directory.
func (m *Manager) Migrate(ctx context.Context, dir string) error {
	if dir == "" {
		dir = m.cfg.MigrationsDir
	}
	if dir == "" {
		return fmt.Errorf("migrations directory is not configured")
	}

	h, err := m.Primary(ctx)
	if err != nil {
		return err
	}

	goose.SetLogger(gooseLogger{log: m.log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, h.SQL(), dir); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}
