package config

import "time"

const (
	envPort                 = "PORT"
	envPollInterval         = "POLL_INTERVAL"
	envProvider             = "PROVIDER"
	envTournamentIDs        = "TOURNAMENT_IDS"
	envViewCacheSize        = "VIEW_CACHE_SIZE"
	envFixtureDir           = "FIXTURE_DIR"
	envArchiveDir           = "ARCHIVE_DIR"
	envArchiveRetention     = "ARCHIVE_RETENTION_DAYS"
	envRefreshDelay         = "REFRESH_DELAY"
	envCompleteRefreshDelay = "COMPLETE_REFRESH_DELAY"
	envFetchTimeout         = "FETCH_TIMEOUT"
	envRenderFit            = "RENDER_FIT"
	envMetricsPort          = "METRICS_PORT"
	envMetricsOn            = "METRICS_ENABLED"
	envOtelEndpoint         = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService          = "OTEL_SERVICE_NAME"
	envOtelInsecure         = "OTEL_EXPORTER_OTLP_INSECURE"

	defaultPort = "4000"
	// Fallback refresh for tournaments whose live channel is quiet or down.
	defaultPollInterval         = 2 * Duration(time.Minute)
	defaultProvider             = "fixture"
	defaultRefreshDelay         = 500 * Duration(time.Millisecond)
	defaultCompleteRefreshDelay = Duration(time.Second)
	defaultFetchTimeout         = 15 * Duration(time.Second)
	defaultMetricsPort          = "9090"
	defaultArchiveRetention     = 14
	defaultViewCacheSize        = 256
)
