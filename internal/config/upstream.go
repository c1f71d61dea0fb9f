package config

import "time"

const (
	envUpstreamBaseURL     = "UPSTREAM_BASE_URL"
	envUpstreamBracketPath = "UPSTREAM_BRACKET_PATH"
	envUpstreamTablesPath  = "UPSTREAM_TABLES_PATH"
	envUpstreamAPIKey      = "UPSTREAM_API_KEY"
	envUpstreamTimeout     = "UPSTREAM_TIMEOUT"
	envUpstreamAttempts    = "UPSTREAM_MAX_ATTEMPTS"
	envUpstreamBackoff     = "UPSTREAM_RETRY_BACKOFF"
	envUpstreamInterval    = "UPSTREAM_MIN_INTERVAL"
	envUpstreamBurst       = "UPSTREAM_BURST"

	defaultUpstreamBaseURL = "http://localhost:8080"
	defaultUpstreamTimeout = 10 * time.Second
	defaultUpstreamTries   = 3
	defaultUpstreamBackoff = 200 * time.Millisecond
	// Spacing between upstream requests; live bursts are coalesced before they reach it.
	defaultUpstreamInterval = 250 * time.Millisecond
	defaultUpstreamBurst    = 4
)

// UpstreamConfig controls how we talk to the tournament server.
type UpstreamConfig struct {
	BaseURL      string
	BracketPath  string
	TablesPath   string
	APIKey       string
	Timeout      time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
	MinInterval  time.Duration
	Burst        int
}

func loadUpstream() UpstreamConfig {
	return UpstreamConfig{
		BaseURL:      envOrDefault(envUpstreamBaseURL, defaultUpstreamBaseURL),
		BracketPath:  envOrDefault(envUpstreamBracketPath, ""),
		TablesPath:   envOrDefault(envUpstreamTablesPath, ""),
		APIKey:       envOrDefault(envUpstreamAPIKey, ""),
		Timeout:      durationEnvOrDefault(envUpstreamTimeout, defaultUpstreamTimeout),
		MaxAttempts:  intEnvOrDefault(envUpstreamAttempts, defaultUpstreamTries),
		RetryBackoff: durationEnvOrDefault(envUpstreamBackoff, defaultUpstreamBackoff),
		MinInterval:  durationEnvOrDefault(envUpstreamInterval, defaultUpstreamInterval),
		Burst:        intEnvOrDefault(envUpstreamBurst, defaultUpstreamBurst),
	}
}
