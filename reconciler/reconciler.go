// Package reconciler brings a manifest entry in line with the newest
// artifact of its component.
package reconciler

import (
	"context"
	"path"
	"strings"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
	"github.com/tie/modrelease/manifest"
)

// ModsDir is the directory mods are installed to, relative to the
// instance root.
const ModsDir = "mods/"

// Hashes recorded for every reconciled entry.
var Algorithms = []string{"sha1", "sha512"}

type Downloader interface {
	Download(ctx context.Context, rawurl, dest string) error
}

type Hasher interface {
	Hash(ctx context.Context, fpath, algorithm string) (string, error)
}

type Reconciler struct {
	Fetcher Downloader
	Hashes  Hasher

	// TempDir holds downloaded artifacts, one file per artifact name.
	TempDir string
}

// IsStale reports whether entry no longer describes artifact. Hashes are
// not compared: an entry with matching path and size is trusted.
func IsStale(entry manifest.File, artifact modrelease.RemoteArtifact) bool {
	return entry.Path != ModsDir+artifact.Name || entry.FileSize != artifact.Size
}

// Reconcile returns the entry describing artifact and whether it differs
// from entry. A current entry is returned as is without touching the
// network or the filesystem. The input entry is never modified.
func (r *Reconciler) Reconcile(ctx context.Context, entry manifest.File, artifact modrelease.RemoteArtifact) (manifest.File, bool, error) {
	if !IsStale(entry, artifact) {
		logger.DebugKV(ctx, "Entry is current", "path", entry.Path)
		return entry, false, nil
	}
	if err := checkName(artifact.Name); err != nil {
		logger.ErrorKV(ctx, "Refusing artifact", "name", artifact.Name, "error", err)
		return entry, false, err
	}

	local := path.Join(r.TempDir, artifact.Name)
	if err := r.Fetcher.Download(ctx, artifact.URL, local); err != nil {
		return entry, false, err
	}

	hashes := make(map[string]string, len(Algorithms))
	for _, alg := range Algorithms {
		sum, err := r.Hashes.Hash(ctx, local, alg)
		if err != nil {
			return entry, false, err
		}
		hashes[alg] = sum
	}

	next := entry.Clone()
	next.Path = ModsDir + artifact.Name
	next.FileSize = artifact.Size
	next.Hashes = hashes
	next.Downloads = []string{artifact.URL}

	logger.InfoKV(ctx, "Entry updated", "from", entry.Path, "to", next.Path, "size", next.FileSize)
	return next, true, nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return modrelease.Wrap(modrelease.ErrParse, "reconcile", name, modrelease.ErrInvalidArtifactName)
	}
	return nil
}
