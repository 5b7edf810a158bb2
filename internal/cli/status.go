package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the database connection status",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type serverInfo struct {
	Database string `db:"database"`
	Version  string `db:"version"`
	Sessions int    `db:"sessions"`
}

const serverInfoQuery = `
SELECT current_database() AS database,
       version() AS version,
       (SELECT count(*) FROM pg_stat_activity WHERE datname = current_database()) AS sessions`

func runStatus(cmd *cobra.Command, args []string) {
	cfg := setup()
	db := openDatabase(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer func() {
		_ = db.Shutdown(context.Background())
	}()

	var info serverInfo
	err := db.Run(ctx, func(ctx context.Context, gdb *gorm.DB) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlx.NewDb(sqlDB, "pgx").GetContext(ctx, &info, serverInfoQuery)
	})
	if err != nil {
		slog.Error("Failed to query database status", "error", err)
		os.Exit(1)
	}

	primary, err := db.Primary(ctx)
	if err != nil {
		slog.Error("Failed to get database handle", "error", err)
		os.Exit(1)
	}
	stats := primary.SQL().Stats()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "FIELD\tVALUE")
	_, _ = fmt.Fprintf(w, "database\t%s\n", info.Database)
	_, _ = fmt.Fprintf(w, "version\t%s\n", info.Version)
	_, _ = fmt.Fprintf(w, "sessions\t%d\n", info.Sessions)
	_, _ = fmt.Fprintf(w, "healthy\t%t\n", db.HealthCheck(ctx))
	_, _ = fmt.Fprintf(w, "state\t%s\n", db.State())
	_, _ = fmt.Fprintf(w, "pool open/in use/idle\t%d/%d/%d\n", stats.OpenConnections, stats.InUse, stats.Idle)
	_ = w.Flush()
}
