package rest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/vietddude/provisioner/internal/core/domain"
	"github.com/vietddude/provisioner/internal/infra/metrics"
)

// DefaultFallbackDelay is used after transient errors and rate limits without a hint.
const DefaultFallbackDelay = 5 * time.Second

// TransitionFunc observes every WorkUnit state change.
type TransitionFunc func(unit WorkUnit, from, to WorkState)

// Driver retries WorkUnits until they succeed or fail fatally.
// It holds no per-unit state and is safe to reuse across units.
type Driver struct {
	clock                clockwork.Clock
	log                  *slog.Logger
	fallbackDelay        time.Duration
	maxTransientAttempts int
	limiter              *rate.Limiter
	onTransition         TransitionFunc
}

// Option configures a Driver.
type Option func(*Driver)

// WithClock sets the clock used for all waits.
func WithClock(c clockwork.Clock) Option {
	return func(d *Driver) { d.clock = c }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithFallbackDelay sets the fixed delay applied after transient errors.
func WithFallbackDelay(delay time.Duration) Option {
	return func(d *Driver) {
		if delay > 0 {
			d.fallbackDelay = delay
		}
	}
}

// WithMaxTransientAttempts caps consecutive transient failures per unit. 0 = unbounded.
func WithMaxTransientAttempts(n int) Option {
	return func(d *Driver) { d.maxTransientAttempts = n }
}

// WithRateLimit paces attempts client-side. rps <= 0 disables pacing.
func WithRateLimit(rps float64) Option {
	return func(d *Driver) {
		if rps > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTransitionHook registers fn to observe state changes.
func WithTransitionHook(fn TransitionFunc) Option {
	return func(d *Driver) { d.onTransition = fn }
}

// NewDriver creates a Driver with a real clock and a 5s fallback delay.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		clock:         clockwork.NewRealClock(),
		log:           slog.Default(),
		fallbackDelay: DefaultFallbackDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FallbackDelay returns the fixed delay used after transient errors.
func (d *Driver) FallbackDelay() time.Duration {
	return d.fallbackDelay
}

// Execute drives unit until op succeeds. Rate limits and transient errors are
// retried; a client error returns a *domain.Error of KindClientError. The only
// other error is ctx's, when a wait is interrupted.
func Execute[T any](ctx context.Context, d *Driver, unit WorkUnit, op Operation) (T, error) {
	var zero T
	state := StatePending
	transientFailures := 0
	log := d.log.With("unit", unit.String())

	for attempt := 1; ; attempt++ {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return zero, fmt.Errorf("%s: %w", unit, err)
			}
		}

		state = d.move(unit, state, StateInFlight)

		resp, err := op(ctx)
		var out Outcome[T]
		if err != nil {
			if ctx.Err() != nil {
				return zero, fmt.Errorf("%s: %w", unit, ctx.Err())
			}
			out = Outcome[T]{Kind: OutcomeTransient, Detail: err.Error()}
		} else {
			out = Classify[T](resp)
		}

		metrics.APIAttempts.WithLabelValues(unit.Operation, out.Kind.String()).Inc()
		state = d.move(unit, state, Next(state, out.Kind))

		switch state {
		case StateSucceeded:
			if attempt > 1 {
				log.Debug("Unit succeeded after retries", "attempts", attempt)
			}
			return out.Payload, nil

		case StateFatallyFailed:
			log.Debug("Client error, aborting", "status", out.Status, "detail", out.Detail)
			return zero, &domain.Error{
				Kind:   domain.KindClientError,
				Op:     unit.String(),
				Status: out.Status,
				Detail: out.Detail,
			}

		case StateRateLimitedWait:
			transientFailures = 0
			wait := out.RetryAfter
			if !out.HasRetryAfter {
				wait = d.fallbackDelay
			}
			log.Warn("Rate limited, waiting", "retry_after", wait, "attempt", attempt)
			metrics.RateLimitWait.WithLabelValues(unit.Operation).Observe(wait.Seconds())
			if err := d.sleep(ctx, wait); err != nil {
				return zero, fmt.Errorf("%s: %w", unit, err)
			}

		case StateTransientWait:
			transientFailures++
			if d.maxTransientAttempts > 0 && transientFailures >= d.maxTransientAttempts {
				d.move(unit, state, StateFatallyFailed)
				return zero, &domain.Error{
					Kind:   domain.KindRetriesExhausted,
					Op:     unit.String(),
					Status: out.Status,
					Detail: fmt.Sprintf("%d consecutive transient failures, last: %s", transientFailures, out.Detail),
				}
			}
			log.Warn("Transient error, retrying",
				"status", out.Status,
				"detail", out.Detail,
				"wait", d.fallbackDelay,
				"attempt", attempt,
			)
			if err := d.sleep(ctx, d.fallbackDelay); err != nil {
				return zero, fmt.Errorf("%s: %w", unit, err)
			}
		}
	}
}

func (d *Driver) move(unit WorkUnit, from, to WorkState) WorkState {
	if d.onTransition != nil && from != to {
		d.onTransition(unit, from, to)
	}
	return to
}

func (d *Driver) sleep(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.clock.After(wait):
		return nil
	}
}
