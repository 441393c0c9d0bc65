// Package builder packs a channel manifest into a Modrinth .mrpack archive.
package builder

import (
	"bytes"
	"context"
	"os"
	"path"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
	"github.com/tie/modrelease/manifest"
)

// Extension of Modrinth modpack archives.
const Extension = ".mrpack"

// epoch is the modification time of archive entries, so that building
// the same manifest twice yields the same bytes.
var epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

type Builder struct {
	Files billy.Filesystem

	// Dir is where packages are written.
	Dir string
	// Name prefixes package file names.
	Name string
}

func New(fs billy.Filesystem, dir, name string) *Builder {
	return &Builder{Files: fs, Dir: dir, Name: name}
}

// PackageName returns the file name of the package for a version.
func (b *Builder) PackageName(versionID string) string {
	return b.Name + "-" + versionID + Extension
}

// Build writes the package for m and returns its path. The archive holds
// a single index document stripped of tool-specific fields. On failure
// nothing is left at the returned location.
func (b *Builder) Build(ctx context.Context, _ modrelease.Channel, m *manifest.Index) (string, error) {
	fpath := path.Join(b.Dir, b.PackageName(m.VersionID))
	ctx = logger.WithKV(ctx, "package", fpath)

	doc, err := manifest.Encode(m.Distributable())
	if err != nil {
		return "", modrelease.Wrap(modrelease.ErrParse, "encode manifest", fpath, err)
	}

	if err := b.write(fpath, doc); err != nil {
		if rerr := b.Files.Remove(fpath); rerr != nil && !os.IsNotExist(rerr) {
			logger.WarnKV(ctx, "Removing partial package failed", "error", rerr)
		}
		logger.ErrorKV(ctx, "Building package failed", "error", err)
		return "", err
	}

	logger.InfoKV(ctx, "Package built", "files", len(m.Files))
	return fpath, nil
}

func (b *Builder) write(fpath string, doc []byte) (err error) {
	if err := b.Files.MkdirAll(b.Dir, 0755); err != nil {
		return modrelease.Wrap(modrelease.ErrIO, "mkdir", b.Dir, err)
	}
	f, err := b.Files.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return modrelease.Wrap(modrelease.ErrIO, "create", fpath, err)
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = modrelease.Wrap(modrelease.ErrIO, "close", fpath, cerr)
		}
	}()

	a := newArchiveWriter(f, epoch)
	if err := a.addReader(bytes.NewReader(doc), manifest.IndexFileName); err != nil {
		return modrelease.Wrap(modrelease.ErrIO, "write", fpath, err)
	}
	if err := a.Close(); err != nil {
		return modrelease.Wrap(modrelease.ErrIO, "write", fpath, err)
	}
	return nil
}
