package manifest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
)

//go:embed schema/modrinth.index.schema.json
var schemaText string

var indexSchema = jsonschema.MustCompileString("modrinth.index.schema.json", schemaText)

// Store keeps one index document per channel under Dir.
type Store struct {
	Files billy.Filesystem
	Dir   string
}

func NewStore(fs billy.Filesystem, dir string) *Store {
	return &Store{Files: fs, Dir: dir}
}

// Path returns the location of the channel document.
func (s *Store) Path(c modrelease.Channel) string {
	return path.Join(s.Dir, string(c)+".json")
}

// Load reads and validates the channel document.
func (s *Store) Load(ctx context.Context, c modrelease.Channel) (*Index, error) {
	fpath := s.Path(c)
	b, err := util.ReadFile(s.Files, fpath)
	if err != nil {
		err = modrelease.Wrap(modrelease.ErrIO, "read manifest", fpath, err)
		logger.ErrorKV(ctx, "Reading manifest failed", "path", fpath, "error", err)
		return nil, err
	}
	m, err := Decode(b)
	if err != nil {
		err = modrelease.Wrap(modrelease.ErrParse, "parse manifest", fpath, err)
		logger.ErrorKV(ctx, "Parsing manifest failed", "path", fpath, "error", err)
		return nil, err
	}
	return m, nil
}

// Save writes the channel document with two-space indentation. The
// previous document is replaced only once the new one is fully written.
func (s *Store) Save(ctx context.Context, c modrelease.Channel, m *Index) error {
	fpath := s.Path(c)
	b, err := Encode(m)
	if err != nil {
		return modrelease.Wrap(modrelease.ErrParse, "encode manifest", fpath, err)
	}

	if err := s.Files.MkdirAll(s.Dir, 0755); err != nil {
		return modrelease.Wrap(modrelease.ErrIO, "mkdir", s.Dir, err)
	}
	tmp := fpath + ".tmp"
	if err := util.WriteFile(s.Files, tmp, b, 0644); err != nil {
		_ = s.Files.Remove(tmp)
		return modrelease.Wrap(modrelease.ErrIO, "write manifest", tmp, err)
	}
	if err := s.Files.Rename(tmp, fpath); err != nil {
		_ = s.Files.Remove(tmp)
		return modrelease.Wrap(modrelease.ErrIO, "rename", fpath, err)
	}

	logger.InfoKV(ctx, "Manifest saved", "path", fpath, "version", m.VersionID, "files", len(m.Files))
	return nil
}

// Exists reports whether the channel document is present.
func (s *Store) Exists(c modrelease.Channel) bool {
	_, err := s.Files.Stat(s.Path(c))
	return !errors.Is(err, os.ErrNotExist)
}

// Decode validates b against the index schema and decodes it.
func Decode(b []byte) (*Index, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if err := indexSchema.Validate(doc); err != nil {
		return nil, err
	}

	var m Index
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode returns the document as indented JSON with a trailing newline.
func Encode(m *Index) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
