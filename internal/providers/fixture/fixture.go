// Package fixture serves bracket snapshots from JSON files for local runs and offline rendering.
package fixture

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/providers"
)

const (
	providerName = "fixture"
	sampleFile   = "sample.json"
)

//go:embed data/*.json
var embedded embed.FS

var defaultTables = []bracket.Table{
	{Number: 1, Status: "AVAILABLE"},
	{Number: 2, Status: "AVAILABLE"},
	{Number: 3, Status: "IN_USE"},
}

// Provider reads {id}.json and {id}.tables.json from a directory.
// Without a directory every tournament resolves to the embedded sample bracket.
type Provider struct {
	files    fs.FS
	fallback bool
}

// New creates a fixture provider rooted at dir. An empty dir uses the embedded sample.
func New(dir string) *Provider {
	if dir == "" {
		sub, _ := fs.Sub(embedded, "data")
		return &Provider{files: sub, fallback: true}
	}
	return &Provider{files: os.DirFS(dir)}
}

// NewFS creates a fixture provider over an arbitrary filesystem.
func NewFS(files fs.FS) *Provider {
	return &Provider{files: files}
}

// FetchSnapshot loads the snapshot file for tournamentID.
func (p *Provider) FetchSnapshot(ctx context.Context, tournamentID string) (bracket.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return bracket.Snapshot{}, err
	}
	var snap bracket.Snapshot
	err := p.load(tournamentID+".json", &snap)
	if errors.Is(err, providers.ErrNotFound) && p.fallback {
		err = p.load(sampleFile, &snap)
	}
	if err != nil {
		return bracket.Snapshot{}, err
	}
	return snap, nil
}

// FetchTables loads {id}.tables.json, falling back to a fixed table list.
func (p *Provider) FetchTables(ctx context.Context, tournamentID string) ([]bracket.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var tables []bracket.Table
	err := p.load(tournamentID+".tables.json", &tables)
	if errors.Is(err, providers.ErrNotFound) {
		return append([]bracket.Table(nil), defaultTables...), nil
	}
	if err != nil {
		return nil, err
	}
	return tables, nil
}

func (p *Provider) load(name string, dest any) error {
	if !fs.ValidPath(name) {
		return providers.ErrNotFound
	}
	data, err := fs.ReadFile(p.files, name)
	if errors.Is(err, fs.ErrNotExist) {
		return providers.ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &providers.MalformedError{Provider: providerName, Err: err}
	}
	return nil
}
