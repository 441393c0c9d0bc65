// Package hashstore computes file digests and caches them in side files
// named after the file and the algorithm, e.g. "mod.jar.sha1".
//
// A side file, once written, is trusted: it is returned verbatim and
// never checked against the file it describes.
package hashstore

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/sha3"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
)

const (
	SHA1      = "sha1"
	SHA256    = "sha256"
	SHA512    = "sha512"
	MD5       = "md5"
	SHA3_256  = "sha3-256"
	Keccak256 = "keccak256"
)

var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

var algorithms = map[string]func() hash.Hash{
	SHA1:      sha1.New,
	SHA256:    sha256.New,
	SHA512:    sha512.New,
	MD5:       md5.New,
	SHA3_256:  sha3.New256,
	Keccak256: sha3.NewLegacyKeccak256,
}

// Supported reports whether algorithm can be computed.
func Supported(algorithm string) bool {
	_, ok := algorithms[algorithm]
	return ok
}

// Store computes and caches digests of files in Files.
type Store struct {
	Files billy.Filesystem
}

// New returns a Store over fs.
func New(fs billy.Filesystem) *Store {
	return &Store{Files: fs}
}

// SidePath returns the path of the side file caching the digest.
func SidePath(fpath, algorithm string) string {
	return fmt.Sprintf("%s.%s", fpath, algorithm)
}

// Hash returns the lowercase hex digest of the file at fpath.
func (s *Store) Hash(ctx context.Context, fpath, algorithm string) (string, error) {
	newHash, ok := algorithms[algorithm]
	if !ok {
		return "", fmt.Errorf("hash %q: %w: %q", fpath, ErrUnknownAlgorithm, algorithm)
	}

	side := SidePath(fpath, algorithm)
	cached, err := s.readSide(ctx, side)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		err = modrelease.Wrap(modrelease.ErrIO, "read digest", side, err)
		logger.ErrorKV(ctx, "Reading cached digest failed", "path", side, "error", err)
		return "", err
	}

	logger.DebugKV(ctx, "Computing digest", "path", fpath, "algorithm", algorithm)

	sum, err := s.compute(ctx, fpath, newHash())
	if err != nil {
		err = modrelease.Wrap(modrelease.ErrIO, "hash", fpath, err)
		logger.ErrorKV(ctx, "Digest calculation failed", "path", fpath, "algorithm", algorithm, "error", err)
		return "", err
	}

	if err := s.writeSide(side, sum); err != nil {
		logger.ErrorKV(ctx, "Writing digest failed", "path", side, "error", err)
		return "", err
	}

	logger.InfoKV(ctx, "Digest calculated", "path", fpath, "algorithm", algorithm, "digest", sum)
	return sum, nil
}

func (s *Store) readSide(ctx context.Context, side string) (string, error) {
	f, err := s.Files.Open(side)
	if err != nil {
		return "", err
	}
	defer closeLogged(ctx, f)
	b, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Store) compute(ctx context.Context, fpath string, h hash.Hash) (string, error) {
	f, err := s.Files.Open(fpath)
	if err != nil {
		return "", err
	}
	defer closeLogged(ctx, f)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeSide stores the digest through a temporary file. A present side
// file always holds a complete digest.
func (s *Store) writeSide(side, sum string) error {
	tmp := side + ".tmp"
	if err := util.WriteFile(s.Files, tmp, []byte(sum), 0644); err != nil {
		_ = s.Files.Remove(tmp)
		return modrelease.Wrap(modrelease.ErrIO, "write digest", tmp, err)
	}
	if err := s.Files.Rename(tmp, side); err != nil {
		_ = s.Files.Remove(tmp)
		return modrelease.Wrap(modrelease.ErrIO, "rename", side, err)
	}
	return nil
}

// closeLogged closes a file opened for reading and logs a failure.
func closeLogged(ctx context.Context, f billy.File) {
	if err := f.Close(); err != nil {
		logger.WarnKV(ctx, "Closing file failed", "path", f.Name(), "error", err)
	}
}
