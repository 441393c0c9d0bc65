package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/schollz/progressbar/v3"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
)

const partSuffix = ".part"

// Fetcher downloads remote files into Files.
type Fetcher struct {
	Files  billy.Filesystem
	Client *http.Client

	// UserAgent is sent with every request when set.
	UserAgent string

	// Progress receives a progress bar for each download.
	// Nil disables progress output.
	Progress io.Writer
}

// Download makes sure dest holds the body of rawurl.
//
// An existing dest is never re-fetched nor verified. Otherwise the body
// is written to a sibling temporary file that replaces dest only after
// the whole body was received.
func (dl *Fetcher) Download(ctx context.Context, rawurl, dest string) error {
	_, err := dl.Files.Stat(dest)
	if err == nil {
		logger.InfoKV(ctx, "File already exists", "path", dest)
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return modrelease.Wrap(modrelease.ErrIO, "stat", dest, err)
	}

	logger.InfoKV(ctx, "Downloading file", "path", dest, "url", rawurl)

	tmp := dest + partSuffix
	if err := dl.downloadFile(ctx, rawurl, tmp); err != nil {
		if rerr := dl.Files.Remove(tmp); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			logger.WarnKV(ctx, "Removing partial download failed", "path", tmp, "error", rerr)
		}
		logger.ErrorKV(ctx, "Download failed", "path", dest, "url", rawurl, "error", err)
		return err
	}
	if err := dl.Files.Rename(tmp, dest); err != nil {
		return modrelease.Wrap(modrelease.ErrIO, "rename", dest, err)
	}

	logger.InfoKV(ctx, "File has been downloaded", "path", dest)
	return nil
}

func (dl *Fetcher) downloadFile(ctx context.Context, rawurl, fpath string) error {
	resp, err := dl.get(ctx, rawurl)
	if err != nil {
		return err
	}
	r := resp.Body
	defer func() {
		err := r.Close()
		if err != nil {
			logger.WarnKV(ctx, "Closing response body failed", "url", rawurl, "error", err)
		}
	}()

	flags := os.O_WRONLY | os.O_TRUNC | os.O_CREATE
	return dl.withFile(fpath, flags, func(f billy.File) (err error) {
		defer func() {
			cerr := f.Close()
			if err == nil {
				err = modrelease.Wrap(modrelease.ErrIO, "close", fpath, cerr)
			}
		}()

		var w io.Writer = f
		if dl.Progress != nil {
			bar := dl.progressBar(resp.ContentLength, path.Base(fpath))
			defer func() {
				_ = bar.Finish()
			}()
			w = io.MultiWriter(f, bar)
		}

		if _, err := io.Copy(w, r); err != nil {
			// Either side may have failed; a read error is a network error.
			var werr *writeError
			if errors.As(err, &werr) {
				return modrelease.Wrap(modrelease.ErrIO, "write", fpath, werr.err)
			}
			return modrelease.Wrap(modrelease.ErrNetwork, "download", rawurl, err)
		}
		return nil
	})
}

func (dl *Fetcher) get(ctx context.Context, rawurl string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, http.NoBody)
	if err != nil {
		return nil, modrelease.Wrap(modrelease.ErrNetwork, "download", rawurl, err)
	}
	if dl.UserAgent != "" {
		req.Header.Set("User-Agent", dl.UserAgent)
	}
	resp, err := dl.client().Do(req)
	if err != nil {
		return nil, modrelease.Wrap(modrelease.ErrNetwork, "download", rawurl, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, modrelease.Errorf(modrelease.ErrNetwork, "download", rawurl, "unexpected status %s", resp.Status)
	}
	return resp, nil
}

func (dl *Fetcher) client() *http.Client {
	if dl.Client == nil {
		return http.DefaultClient
	}
	return dl.Client
}

func (dl *Fetcher) progressBar(size int64, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(dl.Progress),
		progressbar.OptionSetDescription(fmt.Sprintf("downloading %s", name)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (dl *Fetcher) withFile(fpath string, flag int, fn func(billy.File) error) error {
	if err := dl.Files.MkdirAll(path.Dir(fpath), 0755); err != nil {
		return modrelease.Wrap(modrelease.ErrIO, "mkdir", path.Dir(fpath), err)
	}
	f, err := dl.Files.OpenFile(fpath, flag, 0644)
	if err != nil {
		return modrelease.Wrap(modrelease.ErrIO, "open", fpath, err)
	}
	return fn(writeErrorFile{f})
}
