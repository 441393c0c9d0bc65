package fetcher

import (
	"github.com/go-git/go-billy/v5"
)

var _ billy.File = writeErrorFile{}

// writeErrorFile tags write failures so that a copy error can be told
// apart from a failure reading the response body.
type writeErrorFile struct {
	billy.File
}

type writeError struct {
	err error
}

func (e *writeError) Error() string {
	return e.err.Error()
}

func (e *writeError) Unwrap() error {
	return e.err
}

func (f writeErrorFile) Write(p []byte) (int, error) {
	n, err := f.File.Write(p)
	if err != nil {
		return n, &writeError{err}
	}
	return n, nil
}
