package testutil

import (
	"context"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/providers"
)

// GoodProvider returns the provided snapshot and tables with no error.
type GoodProvider struct {
	Snapshot bracket.Snapshot
	Tables   []bracket.Table
}

func (p GoodProvider) FetchSnapshot(ctx context.Context, tournamentID string) (bracket.Snapshot, error) {
	_ = ctx
	_ = tournamentID
	return p.Snapshot, nil
}

func (p GoodProvider) FetchTables(ctx context.Context, tournamentID string) ([]bracket.Table, error) {
	_ = ctx
	_ = tournamentID
	return p.Tables, nil
}

// ErrProvider always returns the provided error.
type ErrProvider struct {
	Err error
}

func (p ErrProvider) FetchSnapshot(ctx context.Context, tournamentID string) (bracket.Snapshot, error) {
	return bracket.Snapshot{}, p.Err
}

func (p ErrProvider) FetchTables(ctx context.Context, tournamentID string) ([]bracket.Table, error) {
	return nil, p.Err
}

// EmptyProvider returns a snapshot without a main bracket.
type EmptyProvider struct{}

func (EmptyProvider) FetchSnapshot(ctx context.Context, tournamentID string) (bracket.Snapshot, error) {
	return bracket.Snapshot{}, nil
}

func (EmptyProvider) FetchTables(ctx context.Context, tournamentID string) ([]bracket.Table, error) {
	return []bracket.Table{}, nil
}

// UnavailableProvider returns ErrProviderUnavailable.
type UnavailableProvider struct{}

func (UnavailableProvider) FetchSnapshot(ctx context.Context, tournamentID string) (bracket.Snapshot, error) {
	return bracket.Snapshot{}, providers.ErrProviderUnavailable
}

func (UnavailableProvider) FetchTables(ctx context.Context, tournamentID string) ([]bracket.Table, error) {
	return nil, providers.ErrProviderUnavailable
}

// NotifyingProvider returns the snapshot and closes Notify on first fetch.
type NotifyingProvider struct {
	Snapshot bracket.Snapshot
	Notify   chan struct{}
}

func (p *NotifyingProvider) FetchSnapshot(ctx context.Context, tournamentID string) (bracket.Snapshot, error) {
	_ = ctx
	_ = tournamentID
	if p.Notify != nil {
		select {
		case <-p.Notify:
		default:
			close(p.Notify)
		}
	}
	return p.Snapshot, nil
}

func (p *NotifyingProvider) FetchTables(ctx context.Context, tournamentID string) ([]bracket.Table, error) {
	return nil, nil
}
