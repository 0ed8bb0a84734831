package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/provisioner/internal/control"
	"github.com/vietddude/provisioner/internal/core/config"
	"github.com/vietddude/provisioner/internal/core/domain"
	"github.com/vietddude/provisioner/internal/infra/discord"
	"github.com/vietddude/provisioner/internal/infra/metrics"
	"github.com/vietddude/provisioner/internal/infra/rest"
)

type workflowFunc func(p *control.Provisioner, ctx context.Context, guild domain.GuildID) (control.Summary, error)

// NewExplosionCommand creates 500 channels in a guild.
func NewExplosionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "explosion <guild_id>",
		Short: "Create channel-1 .. channel-500 and print their IDs",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflow(opts, (*control.Provisioner).CreateBatch),
	}
}

// NewWebhookCommand ensures every channel has a webhook.
func NewWebhookCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "webhook <guild_id>",
		Short: "Create a webhook on every channel lacking one and print new URLs",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflow(opts, (*control.Provisioner).EnsureWebhooks),
	}
}

// NewExportCommand prints the existing webhook of every channel.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <guild_id>",
		Short: "Print the webhook URL of every channel, in channel order",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflow(opts, (*control.Provisioner).ExportWebhooks),
	}
}

func runWorkflow(opts *RootOptions, run workflowFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		guild, err := domain.ParseGuildID(args[0])
		if err != nil {
			return fmt.Errorf("invalid guild id %q: %w", args[0], err)
		}

		_ = godotenv.Load()

		// Load Configuration
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return err
		}

		log := newLogger(cmd.ErrOrStderr(), cfg.Logging, opts.Debug).With("run_id", uuid.NewString())
		slog.SetDefault(log)

		if err := cfg.RequireToken(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := discord.NewClient(cfg.Discord.BaseURL, cfg.Discord.Token, cfg.Discord.Timeout)
		defer func() {
			_ = client.Close()
		}()

		driver := rest.NewDriver(
			rest.WithLogger(log),
			rest.WithFallbackDelay(cfg.Retry.FallbackDelay),
			rest.WithMaxTransientAttempts(cfg.Retry.MaxTransientAttempts),
			rest.WithRateLimit(cfg.Discord.RequestsPerSecond),
		)

		prov := control.NewProvisioner(
			client,
			driver,
			control.NewLineSink(cmd.OutOrStdout()),
			control.Options{RetryListChannels: cfg.Retry.ListChannelsRetried()},
			log,
		)

		addr := opts.MetricsAddr
		if addr == "" {
			addr = cfg.Metrics.Addr
		}

		return withMetrics(ctx, log, addr, func(ctx context.Context) error {
			sum, err := run(prov, ctx, guild)
			stats := client.Stats()
			log.Info("Workflow finished",
				"workflow", sum.Workflow,
				"guild", guild.String(),
				"created", sum.Created,
				"skipped", sum.Skipped,
				"exported", sum.Exported,
				"requests", stats.Requests,
				"rate_limited", stats.RateLimited,
				"elapsed", sum.Elapsed.Round(time.Millisecond),
			)
			return err
		})
	}
}

// withMetrics runs fn, serving /metrics on addr alongside it when addr is set.
// API calls stay on fn's goroutine.
func withMetrics(ctx context.Context, log *slog.Logger, addr string, fn func(context.Context) error) error {
	if addr == "" {
		return fn(ctx)
	}

	srv := metrics.NewServer(addr)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Serving metrics", "addr", addr)
		return srv.Start()
	})

	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				log.Warn("Metrics server shutdown failed", "error", err)
			}
		}()
		return fn(gctx)
	})

	return g.Wait()
}
