package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/akrylysov/pogreb"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/tie/modrelease/config"
	"github.com/tie/modrelease/fetcher"
	"github.com/tie/modrelease/hashstore"
	"github.com/tie/modrelease/logger"
	"github.com/tie/modrelease/manifest"
	"github.com/tie/modrelease/pack"
	"github.com/tie/modrelease/reconciler"
	"github.com/tie/modrelease/resolver"
)

const cacheName = "releases.db"

func newDiagWr(p *hclparse.Parser) (diagWr hcl.DiagnosticWriter, color bool) {
	files := p.Files()
	stderr := os.Stderr
	fd := int(stderr.Fd())
	istty, color := fdinfo(fd)
	if !istty {
		return hcl.NewDiagnosticTextWriter(stderr, files, 80, color), color
	}
	width := uint(80)
	if w, _, err := terminal.GetSize(fd); err != nil {
		logger.Logger().Debugw("Getting terminal size failed", "error", err)
	} else if w > 0 {
		width = uint(w)
	}
	return hcl.NewDiagnosticTextWriter(stderr, files, width, color), color
}

func fdinfo(fd int) (istty, color bool) {
	istty = terminal.IsTerminal(fd)
	color = istty
	// See https://no-color.org
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color = false
	}
	return
}

// writeDiags prints diags and reports whether they are free of errors.
func writeDiags(ctx context.Context, p *hclparse.Parser, diags hcl.Diagnostics) bool {
	if len(diags) == 0 {
		return true
	}
	diagWr, _ := newDiagWr(p)
	if err := diagWr.WriteDiagnostics(diags); err != nil {
		logger.ErrorKV(ctx, "Writing diagnostics failed", "error", err)
	}
	return !diags.HasErrors()
}

// workspace is the configuration together with the stores it points to.
// Relative directories are resolved against the configuration file.
type workspace struct {
	Config *config.Config
	Root   string
	Files  billy.Filesystem
}

func (o *options) load(ctx context.Context) (*workspace, bool) {
	p := hclparse.NewParser()
	cfg, diags := config.Load(p, o.ConfigPath)
	if !writeDiags(ctx, p, diags) {
		return nil, false
	}
	root := filepath.Dir(o.ConfigPath)
	logger.DebugKV(ctx, "Configuration loaded", "path", o.ConfigPath, "components", len(cfg.Components))
	return &workspace{
		Config: cfg,
		Root:   root,
		Files:  osfs.New(root),
	}, true
}

// hostPath returns the operating system path of a workspace path.
func (w *workspace) hostPath(p string) string {
	return filepath.Join(w.Root, filepath.FromSlash(p))
}

func (w *workspace) manifests() *manifest.Store {
	return manifest.NewStore(w.Files, w.Config.ManifestsDir)
}

func (w *workspace) changelogs() *pack.Changelogs {
	return pack.NewChangelogs(w.Files, w.Config.TempDir)
}

// openCache opens the release listing cache kept in the temp directory.
func (w *workspace) openCache(ctx context.Context) (*pogreb.DB, error) {
	dir := w.hostPath(w.Config.TempDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	fpath := filepath.Join(dir, cacheName)
	db, err := pogreb.Open(fpath, nil)
	if err != nil {
		return nil, err
	}
	logger.DebugKV(ctx, "Release cache opened", "path", fpath)
	return db, nil
}

func (w *workspace) resolver(cache resolver.Cache) *resolver.Resolver {
	opts := []resolver.ClientOption{
		resolver.WithBaseURL(w.Config.GitHubAPI),
		resolver.WithUserAgent(w.Config.UserAgent),
		resolver.WithToken(os.Getenv("GITHUB_TOKEN")),
	}
	if cache != nil {
		opts = append(opts, resolver.WithCache(cache))
	}
	return resolver.New(resolver.NewClient(opts...))
}

func (w *workspace) reconciler(progress io.Writer) *reconciler.Reconciler {
	return &reconciler.Reconciler{
		Fetcher: &fetcher.Fetcher{
			Files:     w.Files,
			Client:    &http.Client{},
			UserAgent: w.Config.UserAgent,
			Progress:  progress,
		},
		Hashes:  hashstore.New(w.Files),
		TempDir: w.Config.TempDir,
	}
}

func closeLogged(ctx context.Context, what string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.WarnKV(ctx, "Closing failed", "what", what, "error", err)
	}
}
