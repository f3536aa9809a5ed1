// Command backupq runs the backup upload retry daemon and talks to it.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/UniQw/backupq/internal/config"
	"github.com/spf13/cobra"
)

// app carries state shared by all subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	apiURL string
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand(&app{stderr: os.Stderr})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "backupq: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backupq",
		Short: "Backup upload retry queue",
		Long: `backupq keeps encrypted backup files queued until they reach their upload
destination, retrying with exponential backoff and surviving restarts.

Settings come from BACKUPQ_* environment variables; "serve" runs the daemon and
the other commands talk to its admin API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			a.cfg = cfg
			a.logger = cfg.NewLogger(a.stderr)
			if a.apiURL == "" {
				a.apiURL = cfg.APIURL
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.apiURL, "api", "", "Admin API base URL (default from BACKUPQ_API_URL)")
	cmd.AddCommand(
		newServeCmd(a),
		newEnqueueCmd(a),
		newListCmd(a),
		newStatusCmd(a),
		newRemoveCmd(a),
		newClearCmd(a),
		newProcessCmd(a),
		newConnectivityCmd(a),
	)
	return cmd
}
