// Package snapshots archives the last fetched bracket of every tournament on disk.
// Files use the {id}.json layout the fixture provider reads, so an archive
// directory can be replayed offline.
package snapshots

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
)

const defaultRetentionDays = 14

// Writer persists snapshots and the manifest, pruning archives past the retention window.
type Writer struct {
	basePath      string
	retentionDays int
	now           func() time.Time

	mu sync.Mutex
}

// NewWriter constructs a writer rooted at basePath with a rolling window retention.
func NewWriter(basePath string, retentionDays int) *Writer {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &Writer{
		basePath:      basePath,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// BasePath exposes the writer root path (primarily for testing).
func (w *Writer) BasePath() string {
	if w == nil {
		return ""
	}
	return w.basePath
}

// Save writes snap for tournamentID and prunes old archives. An unchanged snapshot only touches the manifest.
func (w *Writer) Save(tournamentID string, snap bracket.Snapshot) error {
	if w == nil {
		return fmt.Errorf("snapshot writer not configured")
	}
	if !validID(tournamentID) {
		return fmt.Errorf("invalid tournament id %q", tournamentID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.basePath, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	target := SnapshotPath(w.basePath, tournamentID)
	if existing, err := os.ReadFile(target); err != nil || !bytes.Equal(existing, data) {
		tmp := target + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return err
		}
		if err := os.Rename(tmp, target); err != nil {
			return err
		}
	}

	return w.updateManifest(tournamentID, len(snap.Teams))
}

func (w *Writer) updateManifest(tournamentID string, rounds int) error {
	m, _ := readManifest(filepath.Join(w.basePath, manifestFile), w.retentionDays)
	m.Retention.Days = w.retentionDays
	m.Tournaments[tournamentID] = TournamentMeta{
		LastRefreshed: w.now().UTC(),
		Rounds:        rounds,
	}

	ids, err := w.listIDs()
	if err != nil {
		return err
	}
	w.pruneOld(&m, ids)
	for id := range m.Tournaments {
		if _, err := os.Stat(SnapshotPath(w.basePath, id)); err != nil {
			delete(m.Tournaments, id)
		}
	}

	return writeManifest(w.basePath, m)
}

// listIDs returns the archived tournament ids, skipping table lists and the manifest.
func (w *Writer) listIDs() ([]string, error) {
	entries, err := os.ReadDir(w.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == manifestFile || filepath.Ext(name) != snapshotExt || strings.HasSuffix(name, tablesSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, snapshotExt))
	}
	sort.Strings(ids)
	return ids, nil
}

func (w *Writer) pruneOld(m *Manifest, ids []string) {
	cutoff := w.now().AddDate(0, 0, -w.retentionDays)
	for _, id := range ids {
		path := SnapshotPath(w.basePath, id)
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		_ = os.Remove(path)
		delete(m.Tournaments, id)
	}
}
