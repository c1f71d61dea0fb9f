package providers

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/logging"
	"github.com/preston-bernstein/bracket-live-service/internal/metrics"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

type backoffFunc func(attempt int) time.Duration

// retryingProvider wraps a DataProvider and retries transient failures with jittered linear backoff.
// Not-found and malformed responses are returned immediately.
type retryingProvider struct {
	inner        DataProvider
	logger       *slog.Logger
	recorder     *metrics.Recorder
	providerName string
	maxAttempts  int
	backoffFn    backoffFunc
	rng          *rand.Rand
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewRetryingProvider wraps the given provider with retries. If maxAttempts/backoff are <= 0, defaults are used.
func NewRetryingProvider(inner DataProvider, logger *slog.Logger, recorder *metrics.Recorder, name string, maxAttempts int, backoff time.Duration) DataProvider {
	return NewRetryingProviderWithRNG(inner, logger, recorder, name, nil, maxAttempts, backoff)
}

// NewRetryingProviderWithRNG is NewRetryingProvider with an explicit jitter source.
func NewRetryingProviderWithRNG(inner DataProvider, logger *slog.Logger, recorder *metrics.Recorder, name string, rng *rand.Rand, maxAttempts int, backoff time.Duration) DataProvider {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	if name == "" {
		name = "provider"
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &retryingProvider{
		inner:        inner,
		logger:       logger,
		recorder:     recorder,
		providerName: name,
		maxAttempts:  maxAttempts,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
		rng:   rng,
		sleep: sleepContext,
	}
}

func (r *retryingProvider) FetchSnapshot(ctx context.Context, tournamentID string) (bracket.Snapshot, error) {
	if r.inner == nil {
		return bracket.Snapshot{}, ErrProviderUnavailable
	}
	return withRetry(ctx, r, tournamentID, r.inner.FetchSnapshot)
}

func (r *retryingProvider) FetchTables(ctx context.Context, tournamentID string) ([]bracket.Table, error) {
	if r.inner == nil {
		return nil, ErrProviderUnavailable
	}
	return withRetry(ctx, r, tournamentID, r.inner.FetchTables)
}

func withRetry[T any](ctx context.Context, r *retryingProvider, tournamentID string, fn func(context.Context, string) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		start := time.Now()
		out, err := fn(ctx, tournamentID)
		r.recorder.RecordProviderAttempt(r.providerName, time.Since(start), err)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if rl, ok := AsRateLimitError(err); ok {
			r.recorder.RecordRateLimit(r.providerName, rl.RetryAfter)
		}
		if !IsTransient(err) || attempt == r.maxAttempts {
			break
		}

		delay := r.computeDelay(err, attempt)
		r.logWarn(ctx, "provider fetch retry",
			logging.FieldTournamentID, tournamentID,
			logging.FieldAttempt, attempt,
			"max_attempts", r.maxAttempts,
			logging.FieldDelay, delay,
			"err", err,
		)
		if err := r.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	r.logWarn(ctx, "provider fetch failed", logging.FieldTournamentID, tournamentID, "err", lastErr)
	return zero, lastErr
}

// computeDelay honours Retry-After for rate limits; otherwise it jitters the backoff into [base/2, base].
func (r *retryingProvider) computeDelay(err error, attempt int) time.Duration {
	if rl, ok := AsRateLimitError(err); ok && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	base := r.backoffFn(attempt)
	if base <= 0 {
		return 0
	}
	half := base / 2
	return half + time.Duration(r.rng.Int63n(int64(base-half)+1))
}

func (r *retryingProvider) logWarn(ctx context.Context, msg string, args ...any) {
	logWithProvider(ctx, logging.FromContext(ctx, r.logger), slog.LevelWarn, r.providerName, msg, args...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
