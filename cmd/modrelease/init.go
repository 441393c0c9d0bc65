package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/renameio/v2"
	"github.com/google/subcommands"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/config"
	"github.com/tie/modrelease/logger"
	"github.com/tie/modrelease/manifest"
)

type InitCommand struct {
	opts *options

	ManifestsDir string
	Force        bool
}

func (*InitCommand) Name() string     { return "init" }
func (*InitCommand) Synopsis() string { return "write a configuration file" }
func (*InitCommand) Usage() string {
	return `Usage: modrelease init [-manifests dir] [-f]

	Writes a configuration file to the -config path. Components are
	discovered from the GitHub download URLs of existing manifests and
	fall back to the built-in list.

Flags:
`
}

func (cmd *InitCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.ManifestsDir, "manifests", "manifests", "directory with existing manifests")
	fs.BoolVar(&cmd.Force, "f", false, "overwrite an existing configuration")
}

func (cmd *InitCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ctx = logger.WithName(ctx, "init")
	out := cmd.opts.ConfigPath

	if _, err := os.Stat(out); err == nil && !cmd.Force {
		logger.ErrorKV(ctx, "Configuration already exists, use -f to overwrite", "path", out)
		return subcommands.ExitFailure
	}

	cfg := config.Default()
	cfg.ManifestsDir = filepath.ToSlash(cmd.ManifestsDir)

	store := manifest.NewStore(osfs.New(filepath.Dir(out)), cfg.ManifestsDir)
	var indexes []*manifest.Index
	for _, ch := range modrelease.Channels {
		if !store.Exists(ch) {
			continue
		}
		m, err := store.Load(ctx, ch)
		if err != nil {
			return subcommands.ExitFailure
		}
		indexes = append(indexes, m)
	}
	if comps := config.Discover(indexes...); len(comps) > 0 {
		cfg.Components = comps
	}

	if err := renameio.WriteFile(out, config.Encode(cfg), 0644); err != nil {
		logger.ErrorKV(ctx, "Writing configuration failed", "path", out, "error", err)
		return subcommands.ExitFailure
	}
	logger.InfoKV(ctx, "Configuration written", "path", out, "components", len(cfg.Components))
	return subcommands.ExitSuccess
}
