package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/provisioner/internal/core/domain"
	"github.com/vietddude/provisioner/internal/infra/metrics"
	"github.com/vietddude/provisioner/internal/infra/rest"
)

// BatchSize is the number of channels a single create batch produces.
const BatchSize = 500

// Guilds is the REST transport the provisioner drives. Each method performs
// exactly one call; retries belong to the rest.Driver.
type Guilds interface {
	CreateChannel(ctx context.Context, guild domain.GuildID, name string, kind domain.ChannelType) (rest.Response, error)
	ListChannels(ctx context.Context, guild domain.GuildID) (rest.Response, error)
	ListWebhooks(ctx context.Context, channelID string) (rest.Response, error)
	CreateWebhook(ctx context.Context, channelID, name string) (rest.Response, error)
}

// Options tunes workflow behaviour.
type Options struct {
	// RetryListChannels drives the channel listing through the retry driver.
	// When false a single call is made and any non-2xx aborts the run.
	RetryListChannels bool
}

// DefaultOptions returns the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{RetryListChannels: true}
}

// Summary reports what a workflow did.
type Summary struct {
	Workflow string
	Created  int
	Skipped  int
	Exported int
	Elapsed  time.Duration
}

// Provisioner runs the batch workflows against one guild, strictly sequentially.
type Provisioner struct {
	guilds Guilds
	driver *rest.Driver
	sink   Sink
	opts   Options
	log    *slog.Logger
}

// NewProvisioner wires a provisioner from explicit collaborators.
func NewProvisioner(guilds Guilds, driver *rest.Driver, sink Sink, opts Options, log *slog.Logger) *Provisioner {
	if log == nil {
		log = slog.Default()
	}
	return &Provisioner{
		guilds: guilds,
		driver: driver,
		sink:   sink,
		opts:   opts,
		log:    log,
	}
}

// CreateBatch creates channel-1 .. channel-500 in order and emits each new ID.
// Existing channels are not consulted.
func (p *Provisioner) CreateBatch(ctx context.Context, guild domain.GuildID) (Summary, error) {
	start := time.Now()
	sum := Summary{Workflow: "create_batch"}
	log := p.log.With("guild", guild.String(), "workflow", sum.Workflow)

	for n := 1; n <= BatchSize; n++ {
		name := domain.ChannelName(domain.ChannelPrefix, n)
		unit := rest.WorkUnit{Operation: "create_channel", Seq: n, Subject: name}

		ch, err := rest.Execute[domain.Channel](ctx, p.driver, unit, func(ctx context.Context) (rest.Response, error) {
			return p.guilds.CreateChannel(ctx, guild, name, domain.ChannelTypeText)
		})
		if err != nil {
			return p.finish(sum, start), err
		}

		log.Info(fmt.Sprintf("Channel #%d created", n), "id", ch.ID)
		if err := p.sink.Emit(Record{Value: ch.ID}); err != nil {
			return p.finish(sum, start), err
		}
		sum.Created++
		metrics.WorkUnits.WithLabelValues(sum.Workflow, "created").Inc()
	}

	return p.finish(sum, start), nil
}

// EnsureWebhooks makes sure every text channel carries one webhook, visiting
// channels in ordering-key order. Channels that already have one are skipped.
func (p *Provisioner) EnsureWebhooks(ctx context.Context, guild domain.GuildID) (Summary, error) {
	start := time.Now()
	sum := Summary{Workflow: "ensure_webhooks"}
	log := p.log.With("guild", guild.String(), "workflow", sum.Workflow)

	channels, err := p.sortedChannels(ctx, guild)
	if err != nil {
		return p.finish(sum, start), err
	}

	for i, ch := range channels {
		seq := i + 1
		hooks, err := p.listWebhooks(ctx, seq, ch)
		if err != nil {
			return p.finish(sum, start), err
		}

		if len(hooks) > 0 {
			log.Info("Channel already has a webhook, skipping", "channel", ch.Name, "webhooks", len(hooks))
			sum.Skipped++
			metrics.WorkUnits.WithLabelValues(sum.Workflow, "skipped").Inc()
			continue
		}

		unit := rest.WorkUnit{Operation: "create_webhook", Seq: seq, Subject: ch.Name}
		hook, err := rest.Execute[domain.Webhook](ctx, p.driver, unit, func(ctx context.Context) (rest.Response, error) {
			return p.guilds.CreateWebhook(ctx, ch.ID, domain.WebhookName)
		})
		if err != nil {
			return p.finish(sum, start), err
		}

		log.Debug("Webhook created", "channel", ch.Name, "webhook", hook.ID)
		url, err := webhookURL(ch, hook)
		if err != nil {
			return p.finish(sum, start), err
		}
		if err := p.sink.Emit(Record{Name: ch.Name, Value: url}); err != nil {
			return p.finish(sum, start), err
		}
		sum.Created++
		metrics.WorkUnits.WithLabelValues(sum.Workflow, "created").Inc()
	}

	return p.finish(sum, start), nil
}

// ExportWebhooks emits the first webhook URL of every text channel in
// ordering-key order. A channel without a webhook aborts the export.
func (p *Provisioner) ExportWebhooks(ctx context.Context, guild domain.GuildID) (Summary, error) {
	start := time.Now()
	sum := Summary{Workflow: "export_webhooks"}

	channels, err := p.sortedChannels(ctx, guild)
	if err != nil {
		return p.finish(sum, start), err
	}

	for i, ch := range channels {
		hooks, err := p.listWebhooks(ctx, i+1, ch)
		if err != nil {
			return p.finish(sum, start), err
		}
		if len(hooks) == 0 {
			return p.finish(sum, start), &domain.Error{
				Kind:   domain.KindMissingWebhook,
				Op:     "export webhooks",
				Detail: fmt.Sprintf("channel %q (%s) has no webhook", ch.Name, ch.ID),
			}
		}

		url, err := webhookURL(ch, hooks[0])
		if err != nil {
			return p.finish(sum, start), err
		}
		if err := p.sink.Emit(Record{Name: ch.Name, Value: url}); err != nil {
			return p.finish(sum, start), err
		}
		sum.Exported++
		metrics.WorkUnits.WithLabelValues(sum.Workflow, "exported").Inc()
	}

	return p.finish(sum, start), nil
}

// webhookURL resolves hook's execute URL. A webhook without one (e.g. a
// channel-follower webhook) cannot be exported and aborts the run, since a
// blank field would break positional consumers of the output.
func webhookURL(ch domain.Channel, hook domain.Webhook) (string, error) {
	url := hook.ResolveURL()
	if url == "" {
		return "", &domain.Error{
			Kind:   domain.KindMissingWebhook,
			Op:     "resolve webhook url",
			Detail: fmt.Sprintf("webhook %q on channel %q has neither url nor token", hook.ID, ch.Name),
		}
	}
	return url, nil
}

func (p *Provisioner) listWebhooks(ctx context.Context, seq int, ch domain.Channel) ([]domain.Webhook, error) {
	unit := rest.WorkUnit{Operation: "list_webhooks", Seq: seq, Subject: ch.Name}
	return rest.Execute[[]domain.Webhook](ctx, p.driver, unit, func(ctx context.Context) (rest.Response, error) {
		return p.guilds.ListWebhooks(ctx, ch.ID)
	})
}

// sortedChannels lists the guild's text channels ordered by ordering key.
// Other channel types (categories, voice) cannot hold webhooks and are dropped
// before sorting, so their names never reach the ordering-key check and can
// never abort a run with a naming error.
func (p *Provisioner) sortedChannels(ctx context.Context, guild domain.GuildID) ([]domain.Channel, error) {
	all, err := p.listChannels(ctx, guild)
	if err != nil {
		return nil, err
	}

	text := make([]domain.Channel, 0, len(all))
	for _, ch := range all {
		if ch.Type == domain.ChannelTypeText {
			text = append(text, ch)
		}
	}

	sorted, err := domain.SortChannels(text)
	if err != nil {
		return nil, err
	}

	p.log.Info("Listed channels", "guild", guild.String(), "total", len(all), "text", len(sorted))
	return sorted, nil
}

func (p *Provisioner) listChannels(ctx context.Context, guild domain.GuildID) ([]domain.Channel, error) {
	unit := rest.WorkUnit{Operation: "list_channels", Seq: 1, Subject: "guild " + guild.String()}
	call := func(ctx context.Context) (rest.Response, error) {
		return p.guilds.ListChannels(ctx, guild)
	}

	if p.opts.RetryListChannels {
		return rest.Execute[[]domain.Channel](ctx, p.driver, unit, call)
	}

	resp, err := call(ctx)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	out := rest.Classify[[]domain.Channel](resp)
	switch out.Kind {
	case rest.OutcomeSuccess:
		return out.Payload, nil
	case rest.OutcomeClientError:
		return nil, &domain.Error{Kind: domain.KindClientError, Op: unit.String(), Status: out.Status, Detail: out.Detail}
	default:
		return nil, fmt.Errorf("list channels: %s (http %d) %s", out.Kind, out.Status, out.Detail)
	}
}

func (p *Provisioner) finish(sum Summary, start time.Time) Summary {
	sum.Elapsed = time.Since(start)
	return sum
}
