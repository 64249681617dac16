package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/monu322/ai-job-applier-app/internal/db"
	"github.com/monu322/ai-job-applier-app/internal/logging"
)

var migrateDatabaseURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long:  "Create the users and personas tables and apply any pending schema migrations.",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDatabaseURL, "db-url", "", "Database URL (overrides DATABASE_URL env var)")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	databaseURL := migrateDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("database URL is required (set DATABASE_URL environment variable or use --db-url flag)")
	}

	logger := logging.New(logging.Config{Level: os.Getenv("LOG_LEVEL"), Format: logging.FormatPretty}, cmd.ErrOrStderr())
	ctx := cmd.Context()

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	return applyMigrations(ctx, database, logger)
}

func applyMigrations(ctx context.Context, database *db.DB, logger zerolog.Logger) error {
	applied, err := database.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	if len(applied) == 0 {
		logger.Info().Msg("database schema is up to date")
		return nil
	}
	for _, version := range applied {
		logger.Info().Str("version", version).Msg("applied migration")
	}
	return nil
}
