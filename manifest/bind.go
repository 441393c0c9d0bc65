package manifest

import (
	"strings"

	"github.com/tie/modrelease"
)

// Bind assigns component IDs to files that do not have one yet.
//
// Older documents identify a component only through its download URL,
// so a file is bound to the first component whose ID occurs in its
// first download URL. Bind returns the number of files it changed.
func Bind(m *Index, components []modrelease.Component) int {
	n := 0
	for i := range m.Files {
		f := &m.Files[i]
		if f.ComponentID != "" || len(f.Downloads) == 0 {
			continue
		}
		for _, c := range components {
			if strings.Contains(f.Downloads[0], c.ID) {
				f.ComponentID = c.ID
				n++
				break
			}
		}
	}
	return n
}

// Lookup returns the index of the file bound to the component, or -1.
func Lookup(m *Index, componentID string) int {
	for i, f := range m.Files {
		if f.ComponentID == componentID {
			return i
		}
	}
	return -1
}

// FileName returns the base name of the file path inside the pack.
func (f File) FileName() string {
	return strings.TrimPrefix(f.Path, "mods/")
}
