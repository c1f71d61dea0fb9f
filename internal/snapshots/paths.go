package snapshots

import (
	"path/filepath"
	"strings"
)

const (
	snapshotExt  = ".json"
	tablesSuffix = ".tables.json"
	manifestFile = "manifest.json"
)

// SnapshotPath builds the path of the archived snapshot for tournamentID.
func SnapshotPath(basePath, tournamentID string) string {
	return filepath.Join(basePath, tournamentID+snapshotExt)
}

// validID rejects ids that would escape the archive directory or collide with its bookkeeping files.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if strings.ContainsAny(id, `/\`) {
		return false
	}
	return id+snapshotExt != manifestFile
}
