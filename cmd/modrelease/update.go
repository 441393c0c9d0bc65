package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/tie/modrelease/logger"
	"github.com/tie/modrelease/pack"
	"github.com/tie/modrelease/resolver"
)

type UpdateCommand struct {
	opts *options

	Concurrency  int
	DisableCache bool
	Progress     bool
}

func (*UpdateCommand) Name() string     { return "update" }
func (*UpdateCommand) Synopsis() string { return "update manifests from GitHub releases" }
func (*UpdateCommand) Usage() string {
	return `Usage: modrelease update [-j n] [-nocache] [-progress]

	Checks every component for new GitHub releases, downloads changed
	files, records their hashes in the channel manifests and appends the
	changes to the channel changelogs.

Flags:
`
}

func (cmd *UpdateCommand) SetFlags(fs *flag.FlagSet) {
	fs.IntVar(&cmd.Concurrency, "j", 0, "components checked at once (default from config)")
	fs.BoolVar(&cmd.DisableCache, "nocache", false, "disable release listing cache")
	fs.BoolVar(&cmd.Progress, "progress", false, "show download progress")
}

func (cmd *UpdateCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if fs.NArg() > 0 {
		fs.Usage()
		return subcommands.ExitUsageError
	}
	ctx = logger.WithName(ctx, "update")

	w, ok := cmd.opts.load(ctx)
	if !ok {
		return subcommands.ExitFailure
	}

	var cache resolver.Cache
	if !cmd.DisableCache {
		db, err := w.openCache(ctx)
		if err != nil {
			logger.WarnKV(ctx, "Release cache unavailable", "error", err)
		} else {
			defer closeLogged(ctx, "release cache", db)
			cache = db
		}
	}

	var progress io.Writer
	if cmd.Progress {
		progress = os.Stderr
	}

	concurrency := w.Config.Concurrency
	if cmd.Concurrency > 0 {
		concurrency = cmd.Concurrency
	}

	u := &pack.Updater{
		Components:  w.Config.Components,
		Manifests:   w.manifests(),
		Changelogs:  w.changelogs(),
		Resolver:    w.resolver(cache),
		Reconciler:  w.reconciler(progress),
		Concurrency: concurrency,
	}

	s, err := u.Update(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Update failed", "error", err)
		return subcommands.ExitFailure
	}
	s.Log(ctx)
	if err := s.Err(); err != nil {
		logger.ErrorKV(ctx, "Some components failed", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
