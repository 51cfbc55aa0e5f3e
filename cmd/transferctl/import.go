package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"transferdesk/internal/app"
	"transferdesk/internal/importer"
	"transferdesk/internal/platform/metrics"
	"transferdesk/pkg/domain"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Create cases from a CSV file",
	Long: `Reads a CSV with a header row and creates one case per row as a super
admin. Rows that fail are reported and do not stop the import.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if importFile == "" {
			return errors.New("--file is required")
		}
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		f, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		rows, err := importer.ReadCSV(f)
		if err != nil {
			return err
		}

		a, err := app.Build(cmd.Context(), cfg, metrics.New(), log)
		if err != nil {
			return err
		}
		defer a.Close()

		actor := domain.Actor{ID: domain.NewUserID(), Role: domain.RoleSuperAdmin}
		report, err := a.Importer.Import(cmd.Context(), actor, rows)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), report)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rows: %d  imported: %d  failed: %d\n", report.TotalRows, report.SuccessCount, report.ErrorCount)
		for _, e := range report.Errors {
			fmt.Fprintf(out, "  row %d (%s): %s: %s\n", e.Row, e.PersonnelCode, e.Code, e.Message)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to the CSV file")
}
