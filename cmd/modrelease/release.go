package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/google/subcommands"

	"github.com/tie/modrelease/builder"
	"github.com/tie/modrelease/logger"
	"github.com/tie/modrelease/pack"
	"github.com/tie/modrelease/publisher"
)

const tokenEnv = "MODRINTH_API_KEY"

type ReleaseCommand struct {
	opts *options
}

func (*ReleaseCommand) Name() string     { return "create-release" }
func (*ReleaseCommand) Synopsis() string { return "publish pending channels to Modrinth" }
func (*ReleaseCommand) Usage() string {
	return `Usage: modrelease create-release

	Builds a package for every channel with a pending changelog and
	uploads it as a new Modrinth version. The API token is read from
	the ` + tokenEnv + ` environment variable.
`
}

func (cmd *ReleaseCommand) SetFlags(fs *flag.FlagSet) {
}

func (cmd *ReleaseCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if fs.NArg() > 0 {
		fs.Usage()
		return subcommands.ExitUsageError
	}
	ctx = logger.WithName(ctx, "create-release")

	w, ok := cmd.opts.load(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	cfg := w.Config

	token := os.Getenv(tokenEnv)
	if token == "" {
		logger.WarnKV(ctx, "No API token set, uploads will be rejected", "env", tokenEnv)
	}

	r := &pack.Releaser{
		Manifests:  w.manifests(),
		Changelogs: w.changelogs(),
		Builder:    builder.New(w.Files, cfg.TempDir, cfg.Name),
		Publisher: publisher.New(w.Files,
			publisher.Project{
				ID:           cfg.ProjectID,
				Title:        cfg.Title,
				GameVersions: cfg.GameVersions,
				Loaders:      cfg.Loaders,
				Featured:     cfg.Featured,
			},
			publisher.WithHTTPClient(&http.Client{}),
			publisher.WithBaseURL(cfg.ModrinthAPI),
			publisher.WithToken(token),
			publisher.WithUserAgent(cfg.UserAgent),
		),
	}

	pubs, err := r.Release(ctx)
	for _, p := range pubs {
		if p.Err != nil {
			continue
		}
		logger.InfoKV(ctx, "Released", "channel", p.Channel, "version", p.VersionID, "package", p.Package)
	}
	if err != nil {
		logger.ErrorKV(ctx, "Release failed", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
