package server

import (
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/bracket-live-service/internal/config"
	"github.com/preston-bernstein/bracket-live-service/internal/logging"
	"github.com/preston-bernstein/bracket-live-service/internal/providers"
	"github.com/preston-bernstein/bracket-live-service/internal/providers/fixture"
	"github.com/preston-bernstein/bracket-live-service/internal/providers/upstream"
)

func selectProvider(cfg config.Config, logger *slog.Logger) providers.DataProvider {
	switch cfg.Provider {
	case "fixture", "":
		return fixture.New(cfg.Fixture.Dir)
	case "upstream":
		return upstream.NewClient(upstream.Config{
			BaseURL:     cfg.Upstream.BaseURL,
			BracketPath: cfg.Upstream.BracketPath,
			TablesPath:  cfg.Upstream.TablesPath,
			APIKey:      cfg.Upstream.APIKey,
			HTTPClient:  upstreamHTTPClient(cfg.Upstream),
		})
	default:
		logging.Warn(logger, "unknown provider, falling back to fixture", slog.String("provider", cfg.Provider))
		return fixture.New(cfg.Fixture.Dir)
	}
}

// upstreamHTTPClient returns nil when no timeout is configured so the client default applies.
func upstreamHTTPClient(cfg config.UpstreamConfig) *http.Client {
	if cfg.Timeout <= 0 {
		return nil
	}
	return &http.Client{Timeout: cfg.Timeout}
}
