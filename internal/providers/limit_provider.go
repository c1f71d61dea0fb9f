package providers

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/logging"
	"github.com/preston-bernstein/bracket-live-service/internal/metrics"
)

const defaultLimitInterval = time.Second

// rateLimitedProvider spaces upstream calls so bursts of live events cannot flood the upstream.
type rateLimitedProvider struct {
	next     DataProvider
	interval time.Duration
	limiter  *rate.Limiter
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// NewRateLimitedProvider returns a DataProvider that allows one call per interval with a small burst.
// Calls block until a token is available or ctx ends.
func NewRateLimitedProvider(next DataProvider, interval time.Duration, burst int, recorder *metrics.Recorder, logger *slog.Logger) DataProvider {
	if interval <= 0 {
		interval = defaultLimitInterval
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimitedProvider{
		next:     next,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), burst),
		recorder: recorder,
		logger:   logger,
	}
}

func (p *rateLimitedProvider) FetchSnapshot(ctx context.Context, tournamentID string) (bracket.Snapshot, error) {
	if err := p.wait(ctx, tournamentID); err != nil {
		return bracket.Snapshot{}, err
	}
	return p.next.FetchSnapshot(ctx, tournamentID)
}

func (p *rateLimitedProvider) FetchTables(ctx context.Context, tournamentID string) ([]bracket.Table, error) {
	if err := p.wait(ctx, tournamentID); err != nil {
		return nil, err
	}
	return p.next.FetchTables(ctx, tournamentID)
}

func (p *rateLimitedProvider) wait(ctx context.Context, tournamentID string) error {
	if p == nil || p.next == nil {
		if p != nil {
			logWithProvider(ctx, p.logger, slog.LevelWarn, "rate-limited", "provider unavailable")
		}
		return ErrProviderUnavailable
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	res := p.limiter.Reserve()
	delay := res.Delay()
	if delay == 0 {
		return nil
	}
	p.recorder.RecordRateLimit("rate-limited", delay)
	logWithProvider(ctx, p.logger, slog.LevelDebug, "rate-limited", "throttling upstream fetch",
		slog.String(logging.FieldTournamentID, tournamentID), slog.Duration(logging.FieldDelay, delay))
	if err := sleepContext(ctx, delay); err != nil {
		res.Cancel()
		return err
	}
	return nil
}
