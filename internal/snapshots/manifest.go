package snapshots

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Manifest tracks which tournaments are archived and when each was last written.
type Manifest struct {
	Version     int                       `json:"version"`
	GeneratedAt time.Time                 `json:"generatedAt"`
	Retention   Retention                 `json:"retention"`
	Tournaments map[string]TournamentMeta `json:"tournaments"`
}

type Retention struct {
	Days int `json:"days"`
}

type TournamentMeta struct {
	LastRefreshed time.Time `json:"lastRefreshed"`
	Rounds        int       `json:"rounds"`
}

func defaultManifest(retentionDays int) Manifest {
	return Manifest{
		Version:     1,
		GeneratedAt: time.Now().UTC(),
		Retention: Retention{
			Days: retentionDays,
		},
		Tournaments: map[string]TournamentMeta{},
	}
}

// ReadManifest loads the manifest under basePath.
func ReadManifest(basePath string) (Manifest, error) {
	return readManifest(filepath.Join(basePath, manifestFile), 0)
}

func readManifest(path string, retentionDays int) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return defaultManifest(retentionDays), err
	}
	defer f.Close()
	var m Manifest
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return defaultManifest(retentionDays), err
	}
	if m.Tournaments == nil {
		m.Tournaments = map[string]TournamentMeta{}
	}
	return m, nil
}

func writeManifest(basePath string, m Manifest) error {
	m.GeneratedAt = time.Now().UTC()
	path := filepath.Join(basePath, manifestFile)
	tmp := path + ".tmp"
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
