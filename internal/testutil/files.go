package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
)

// WriteSnapshotFile writes snap as {id}.json under dir, the layout the fixture provider reads.
func WriteSnapshotFile(t *testing.T, dir, id string, snap bracket.Snapshot) string {
	t.Helper()
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}
