package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"github.com/google/subcommands"

	"github.com/tie/modrelease/logger"
	"github.com/tie/modrelease/pack"
)

type CleanCommand struct {
	opts *options

	All bool
}

func (*CleanCommand) Name() string     { return "clean" }
func (*CleanCommand) Synopsis() string { return "remove downloaded and built files" }
func (*CleanCommand) Usage() string {
	return `Usage: modrelease clean [-all]

	Removes downloads, hash files, packages and the release cache from
	the temp directory. Pending changelogs are kept unless -all is set.

Flags:
`
}

func (cmd *CleanCommand) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.All, "all", false, "remove pending changelogs too")
}

func (cmd *CleanCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ctx = logger.WithName(ctx, "clean")

	w, ok := cmd.opts.load(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	dir := w.Config.TempDir

	entries, err := w.Files.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return subcommands.ExitSuccess
	}
	if err != nil {
		logger.ErrorKV(ctx, "Listing temp directory failed", "path", dir, "error", err)
		return subcommands.ExitFailure
	}

	removed := 0
	for _, fi := range entries {
		if !cmd.All && strings.HasSuffix(fi.Name(), pack.ChangelogExt) {
			logger.DebugKV(ctx, "Keeping pending changelog", "name", fi.Name())
			continue
		}
		fpath := path.Join(dir, fi.Name())
		if err := util.RemoveAll(w.Files, fpath); err != nil {
			logger.ErrorKV(ctx, "Removing failed", "path", fpath, "error", err)
			return subcommands.ExitFailure
		}
		removed++
	}
	logger.InfoKV(ctx, "Temp directory cleaned", "path", dir, "removed", removed)
	return subcommands.ExitSuccess
}
