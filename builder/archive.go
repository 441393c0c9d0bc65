package builder

import (
	"io"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

type archiveWriter struct {
	Pack     *zip.Writer
	Modified time.Time
}

func newArchiveWriter(w io.Writer, modified time.Time) *archiveWriter {
	z := zip.NewWriter(w)
	z.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	return &archiveWriter{Pack: z, Modified: modified}
}

func (a *archiveWriter) addReader(r io.Reader, name string) error {
	w, err := a.Pack.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: a.Modified,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

// Close writes the central directory. It does not close the underlying
// writer.
func (a *archiveWriter) Close() error {
	return a.Pack.Close()
}
