package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"transferdesk/internal/platform/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return errors.New("DATABASE_URL is required")
		}
		db, err := database.Open(cmd.Context(), database.Config{URL: cfg.Database.URL})
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			return err
		}
		version, dirty, err := database.Version(db)
		if err != nil {
			return err
		}
		log.Info("migrations applied", "version", version, "dirty", dirty)
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]any{"version": version, "dirty": dirty})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
		return nil
	},
}
