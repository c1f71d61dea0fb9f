package config

// Config holds runtime configuration for the server.
type Config struct {
	Port          string
	PollInterval  Duration
	Provider      string
	TournamentIDs []string
	// ViewCacheSize caps the brackets kept for tournaments outside TournamentIDs.
	ViewCacheSize int
	Upstream      UpstreamConfig
	Fixture       FixtureConfig
	Archive       ArchiveConfig
	Live          LiveConfig
	Refresh       RefreshConfig
	Render        RenderConfig
	Metrics       MetricsConfig
}

// FixtureConfig points the fixture provider at snapshot files on disk.
// An empty Dir serves the embedded sample bracket.
type FixtureConfig struct {
	Dir string
}

// ArchiveConfig enables the on-disk copy of fetched brackets. An empty Dir disables it.
type ArchiveConfig struct {
	Dir           string
	RetentionDays int
}

// RefreshConfig sets how long live events wait before re-fetching the bracket.
type RefreshConfig struct {
	Delay         Duration
	CompleteDelay Duration
	FetchTimeout  Duration
}

// RenderConfig controls page layout.
type RenderConfig struct {
	Fit bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Port:          envOrDefault(envPort, defaultPort),
		PollInterval:  durationEnvOrDefault(envPollInterval, defaultPollInterval),
		Provider:      envOrDefault(envProvider, defaultProvider),
		TournamentIDs: listEnvOrDefault(envTournamentIDs, nil),
		ViewCacheSize: intEnvOrDefault(envViewCacheSize, defaultViewCacheSize),
		Upstream:      loadUpstream(),
		Fixture:       FixtureConfig{Dir: envOrDefault(envFixtureDir, "")},
		Archive: ArchiveConfig{
			Dir:           envOrDefault(envArchiveDir, ""),
			RetentionDays: intEnvOrDefault(envArchiveRetention, defaultArchiveRetention),
		},
		Live: loadLive(),
		Refresh: RefreshConfig{
			Delay:         durationEnvOrDefault(envRefreshDelay, defaultRefreshDelay),
			CompleteDelay: durationEnvOrDefault(envCompleteRefreshDelay, defaultCompleteRefreshDelay),
			FetchTimeout:  durationEnvOrDefault(envFetchTimeout, defaultFetchTimeout),
		},
		Render:  RenderConfig{Fit: boolEnvOrDefault(envRenderFit, false)},
		Metrics: loadMetrics(),
	}
}
