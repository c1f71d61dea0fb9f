// Package upstream fetches bracket snapshots and table lists from the tournament server over HTTP.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/providers"
)

// Config controls how the client reaches the tournament server.
type Config struct {
	BaseURL     string
	BracketPath string
	TablesPath  string
	APIKey      string
	HTTPClient  *http.Client
}

// Client implements providers.DataProvider against the tournament server.
type Client struct {
	baseURL     string
	bracketPath string
	tablesPath  string
	apiKey      string
	httpClient  httpDoer
	now         func() time.Time
}

// NewClient constructs an upstream client with the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:     normalizeBaseURL(cfg.BaseURL),
		bracketPath: normalizePath(cfg.BracketPath, defaultBracketPath),
		tablesPath:  normalizePath(cfg.TablesPath, defaultTablesPath),
		apiKey:      cfg.APIKey,
		httpClient:  resolveHTTPClient(cfg.HTTPClient),
		now:         time.Now,
	}
}

// FetchSnapshot retrieves the main bracket for tournamentID.
func (c *Client) FetchSnapshot(ctx context.Context, tournamentID string) (bracket.Snapshot, error) {
	var snap bracket.Snapshot
	if err := c.getJSON(ctx, expandPath(c.bracketPath, tournamentID), &snap); err != nil {
		return bracket.Snapshot{}, err
	}
	return snap, nil
}

// FetchTables retrieves the tables available for starting a match.
func (c *Client) FetchTables(ctx context.Context, tournamentID string) ([]bracket.Table, error) {
	var tables []bracket.Table
	if err := c.getJSON(ctx, expandPath(c.tablesPath, tournamentID), &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", providerName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return providers.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return &providers.RateLimitError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.now()),
			Remaining:  resp.Header.Get("X-RateLimit-Remaining"),
		}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &providers.StatusError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &providers.MalformedError{Provider: providerName, Err: err}
	}
	return nil
}
