package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"transferdesk/internal/geo"
	"transferdesk/internal/platform/database"
)

var seedFile string

var seedGeoCmd = &cobra.Command{
	Use:   "seed-geo",
	Short: "Upsert provinces and districts from a YAML seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedFile == "" {
			return errors.New("--file is required")
		}
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return errors.New("DATABASE_URL is required")
		}

		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("open seed: %w", err)
		}
		defer f.Close()
		provinces, districts, err := geo.ParseSeed(f)
		if err != nil {
			return err
		}

		db, err := database.Open(cmd.Context(), database.Config{URL: cfg.Database.URL})
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			return err
		}
		if err := geo.NewPostgres(db).Upsert(cmd.Context(), provinces, districts); err != nil {
			return err
		}
		log.Info("geo seed applied", "provinces", len(provinces), "districts", len(districts))
		fmt.Fprintf(cmd.OutOrStdout(), "upserted %d provinces, %d districts\n", len(provinces), len(districts))
		return nil
	},
}

func init() {
	seedGeoCmd.Flags().StringVar(&seedFile, "file", "", "path to the geo seed YAML")
}
