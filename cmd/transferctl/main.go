// Command transferctl is the operator CLI: schema migrations, geographic
// seeding, CSV case import and token minting for scripted access.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"transferdesk/internal/platform/config"
	"transferdesk/internal/platform/logger"
)

var (
	jsonOutput bool
	rootCmd    = &cobra.Command{
		Use:           "transferctl",
		Short:         "Administer a transferdesk deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.AddCommand(migrateCmd, seedGeoCmd, importCmd, tokenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// loadConfig reads the same environment as the server. CLI logs go to stderr
// so stdout stays parseable.
func loadConfig() (config.Server, *slog.Logger, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Server{}, nil, err
	}
	return cfg, logger.NewWithWriter(os.Stderr, cfg.LogLevel, "text"), nil
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
