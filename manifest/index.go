// Package manifest reads and writes the Modrinth index documents that
// describe each channel of the modpack.
package manifest

import (
	"bytes"
	"encoding/json"
)

// IndexFileName is the name of the index inside a .mrpack archive.
const IndexFileName = "modrinth.index.json"

type Index struct {
	FormatVersion int    `json:"formatVersion"`
	Game          string `json:"game"`
	VersionID     string `json:"versionId"`
	Name          string `json:"name"`
	Summary       *string `json:"summary,omitempty"`

	Files []File `json:"files"`

	// Dependencies is nil when the document has no dependencies object.
	Dependencies map[string]string `json:"dependencies"`
}

// MarshalJSON keeps an absent dependencies object absent and an empty
// one empty. Files is always written as an array.
func (m Index) MarshalJSON() ([]byte, error) {
	type plain Index
	doc := struct {
		plain
		Files        []File             `json:"files"`
		Dependencies *map[string]string `json:"dependencies,omitempty"`
	}{plain: plain(m), Files: m.Files}
	if doc.Files == nil {
		doc.Files = []File{}
	}
	if m.Dependencies != nil {
		doc.Dependencies = &m.Dependencies
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

type File struct {
	Path      string            `json:"path"`
	Hashes    map[string]string `json:"hashes"`
	Env       *Env              `json:"env,omitempty"`
	Downloads []string          `json:"downloads"`
	FileSize  int64             `json:"fileSize"`

	// ComponentID names the component the file was resolved from.
	// Documents predating the field get it assigned by Bind.
	ComponentID string `json:"componentId,omitempty"`
}

type Env struct {
	Client string `json:"client,omitempty"`
	Server string `json:"server,omitempty"`
}

// Clone returns a deep copy of f.
func (f File) Clone() File {
	c := f
	if f.Hashes != nil {
		c.Hashes = make(map[string]string, len(f.Hashes))
		for k, v := range f.Hashes {
			c.Hashes[k] = v
		}
	}
	if f.Env != nil {
		env := *f.Env
		c.Env = &env
	}
	if f.Downloads != nil {
		c.Downloads = append([]string(nil), f.Downloads...)
	}
	return c
}

// Clone returns a deep copy of m.
func (m *Index) Clone() *Index {
	c := *m
	if m.Summary != nil {
		summary := *m.Summary
		c.Summary = &summary
	}
	if m.Files != nil {
		c.Files = make([]File, len(m.Files))
		for i, f := range m.Files {
			c.Files[i] = f.Clone()
		}
	}
	if m.Dependencies != nil {
		c.Dependencies = make(map[string]string, len(m.Dependencies))
		for k, v := range m.Dependencies {
			c.Dependencies[k] = v
		}
	}
	return &c
}

// Distributable returns a copy of m without fields that only this tool
// understands, suitable for shipping inside a package.
func (m *Index) Distributable() *Index {
	c := m.Clone()
	for i := range c.Files {
		c.Files[i].ComponentID = ""
	}
	return c
}
