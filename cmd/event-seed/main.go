package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-events/internal/events/db"
	"ms-events/internal/logger"
	"ms-events/internal/models"
)

var sampleDescriptions = []string{
	"Team standup",
	"Submit quarterly report",
	"Dentist appointment",
	"Book flights for the conference",
	"Call the plumber",
}

var (
	dsn   string
	reset bool
)

var rootCmd = &cobra.Command{
	Use:   "event-seed",
	Short: "Create the events table and insert sample events",
	Long: `event-seed connects to Postgres, creates the events table if it is
missing and inserts a handful of sample events for local development.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dsn == "" {
			dsn = os.Getenv("DATABASE_URL")
		}
		if dsn == "" {
			return fmt.Errorf("no DSN: set DATABASE_URL or pass --dsn")
		}
		log := logger.NewWithWriters(os.Stdout, nil, "INFO")

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
		sqldb := sql.OpenDB(connector)
		defer sqldb.Close()

		if err := sqldb.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		bunDB := bun.NewDB(sqldb, pgdialect.New())
		n, err := seed(ctx, db.New(bunDB), reset, sampleDescriptions, log)
		if err != nil {
			return err
		}
		log.Info("SEED", fmt.Sprintf("✅ Done, inserted %d events", n))
		return nil
	},
}

// seed optionally drops the events table, recreates it and inserts one
// event per description, returning how many were stored.
func seed(ctx context.Context, eventDB *db.DB, reset bool, descriptions []string, log *logger.Logger) (int, error) {
	if reset {
		log.Info("SEED", "Dropping events table...")
		if _, err := eventDB.Bun.NewDropTable().Model((*models.Event)(nil)).IfExists().Exec(ctx); err != nil {
			return 0, fmt.Errorf("drop events table: %w", err)
		}
	}

	log.Info("SEED", "Creating events table...")
	if err := eventDB.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	log.Info("SEED", "Seeding sample events...")
	for i, description := range descriptions {
		event, err := eventDB.Insert(ctx, description)
		if err != nil {
			return i, fmt.Errorf("insert %q: %w", description, err)
		}
		log.LogEvent("CREATE", event.ID, description)
	}
	return len(descriptions), nil
}

func init() {
	rootCmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string (default: $DATABASE_URL)")
	rootCmd.Flags().BoolVar(&reset, "reset", false, "drop the events table before seeding")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
