package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath  string
	Debug       bool
	MetricsAddr string
}

// NewRootCommand creates the root command of the provisioner CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "provisioner",
		Short: "Bulk-provision guild channels and webhooks",
		Long: `Provisioner creates a batch of text channels in a Discord guild and
ensures or exports one webhook per channel, honouring the API's rate limits.

Results are printed to stdout, one line per channel; diagnostics go to stderr.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config.yaml", "config file (optional)")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	cmd.AddCommand(NewExplosionCommand(opts))
	cmd.AddCommand(NewWebhookCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// Execute runs the CLI and exits non-zero on any fatal error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		slog.Error("Run aborted", "error", err)
		os.Exit(1)
	}
}
