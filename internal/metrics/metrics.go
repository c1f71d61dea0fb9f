package metrics

import (
	"sync"
	"time"
)

type providerStats struct {
	calls           int
	errors          int
	rateLimitHits   int
	lastRetryAfter  time.Duration
	lastCallLatency time.Duration
}

type liveStats struct {
	events     map[string]int
	reconnects int
	giveUps    int
	refreshes  int
}

// Recorder captures in-memory counters for providers, the live channel and view refreshes,
// and forwards them to OpenTelemetry instruments when configured.
type Recorder struct {
	mu    sync.Mutex
	stats map[string]*providerStats
	live  liveStats
	otel  *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: make(map[string]*providerStats),
		live:  liveStats{events: make(map[string]int)},
		otel:  otel,
	}
}

// RecordProviderAttempt increments counters for a provider call and stores the last observed latency.
func (r *Recorder) RecordProviderAttempt(provider string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.ensureStats(provider)
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordProviderAttempt(provider, duration, err)
	}
}

// RecordRateLimit tracks that a provider call was throttled and stores the last Retry-After.
func (r *Recorder) RecordRateLimit(provider string, retryAfter time.Duration) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.ensureStats(provider)
	stats.rateLimitHits++
	if retryAfter > 0 {
		stats.lastRetryAfter = retryAfter
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordRateLimit(provider, retryAfter)
	}
}

// RecordLiveEvent counts a message received on the live channel.
func (r *Recorder) RecordLiveEvent(tournamentID, eventType string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.live.events[eventType]++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordLiveEvent(tournamentID, eventType)
	}
}

// RecordReconnect counts a scheduled reconnect attempt.
func (r *Recorder) RecordReconnect(tournamentID string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.live.reconnects++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordTournamentCounter(r.otel.liveReconnects, tournamentID)
	}
}

// RecordGiveUp counts a live client that exhausted its reconnect budget.
func (r *Recorder) RecordGiveUp(tournamentID string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.live.giveUps++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordTournamentCounter(r.otel.liveGiveUps, tournamentID)
	}
}

// RecordRefresh tracks a view refresh cycle.
func (r *Recorder) RecordRefresh(tournamentID string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.live.refreshes++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordRefresh(tournamentID, duration, err)
	}
}

// RecordRender tracks time spent writing a page in the given format.
func (r *Recorder) RecordRender(format string, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordRender(format, duration)
}

// ProviderCalls returns the total attempts recorded for a provider.
func (r *Recorder) ProviderCalls(provider string) int {
	return r.Snapshot(provider).Calls
}

// ProviderErrors returns the total failed attempts recorded for a provider.
func (r *Recorder) ProviderErrors(provider string) int {
	return r.Snapshot(provider).Errors
}

// RateLimitHits returns the number of rate limit events seen for a provider.
func (r *Recorder) RateLimitHits(provider string) int {
	return r.Snapshot(provider).RateLimitHits
}

// LiveEvents returns how many live messages of eventType were recorded.
func (r *Recorder) LiveEvents(eventType string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live.events[eventType]
}

// Reconnects returns the number of reconnect attempts recorded.
func (r *Recorder) Reconnects() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live.reconnects
}

// GiveUps returns the number of live clients that stopped reconnecting.
func (r *Recorder) GiveUps() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live.giveUps
}

// Refreshes returns the number of view refreshes recorded.
func (r *Recorder) Refreshes() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live.refreshes
}

// Snapshot is a copy of the current stats for one provider.
type Snapshot struct {
	Calls           int
	Errors          int
	RateLimitHits   int
	LastRetryAfter  time.Duration
	LastCallLatency time.Duration
}

func (r *Recorder) Snapshot(provider string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.stats[provider]
	if !ok || stats == nil {
		return Snapshot{}
	}
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		RateLimitHits:   stats.rateLimitHits,
		LastRetryAfter:  stats.lastRetryAfter,
		LastCallLatency: stats.lastCallLatency,
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordPollerCycle tracks poller cycles and errors.
func (r *Recorder) RecordPollerCycle(duration time.Duration, err error) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordPoller(duration, err)
}

// ensureStats must be called with r.mu held.
func (r *Recorder) ensureStats(provider string) *providerStats {
	stats, ok := r.stats[provider]
	if !ok {
		stats = &providerStats{}
		r.stats[provider] = stats
	}
	return stats
}
