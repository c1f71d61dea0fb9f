package providers

import (
	"context"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
)

// SnapshotProvider fetches the main bracket snapshot for a tournament.
type SnapshotProvider interface {
	FetchSnapshot(ctx context.Context, tournamentID string) (bracket.Snapshot, error)
}

// TableProvider lists the playing tables shown in the start-match dialog.
type TableProvider interface {
	FetchTables(ctx context.Context, tournamentID string) ([]bracket.Table, error)
}

// DataProvider combines all provider capabilities.
type DataProvider interface {
	SnapshotProvider
	TableProvider
}
