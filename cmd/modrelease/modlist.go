package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"

	"github.com/google/renameio/v2"
	"github.com/google/subcommands"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
	"github.com/tie/modrelease/modlist"
)

type ModlistCommand struct {
	opts *options

	Channel    string
	OutputPath string
}

func (*ModlistCommand) Name() string     { return "modlist" }
func (*ModlistCommand) Synopsis() string { return "generate modlist page" }
func (*ModlistCommand) Usage() string {
	return `Usage: modrelease modlist [-channel release] [-o modlist.html]

	Generates an HTML page listing the files of a channel manifest. The
	page template and selector are taken from the modlist block of the
	configuration.

Flags:
`
}

func (cmd *ModlistCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.Channel, "channel", string(modrelease.ChannelRelease), "channel to list")
	fs.StringVar(&cmd.OutputPath, "o", "", "modlist page output path (default from config)")
}

func (cmd *ModlistCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ctx = logger.WithName(ctx, "modlist")

	ch, err := modrelease.ParseChannel(cmd.Channel)
	if err != nil {
		logger.ErrorKV(ctx, "Invalid channel", "error", err)
		return subcommands.ExitUsageError
	}

	w, ok := cmd.opts.load(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	ml := w.Config.ModList

	m, err := w.manifests().Load(ctx, ch)
	if err != nil {
		return subcommands.ExitFailure
	}

	var tpl io.Reader
	if ml.Template != "" {
		src, err := os.ReadFile(w.hostPath(ml.Template))
		if err != nil {
			logger.ErrorKV(ctx, "Reading template failed", "path", ml.Template, "error", err)
			return subcommands.ExitFailure
		}
		tpl = bytes.NewReader(src)
	}

	var buf bytes.Buffer
	if err := modlist.Render(&buf, m, tpl, ml.Selector); err != nil {
		logger.ErrorKV(ctx, "Rendering modlist failed", "error", err)
		return subcommands.ExitFailure
	}

	fpath := cmd.OutputPath
	if fpath == "" {
		fpath = w.hostPath(ml.Output)
	}
	if err := renameio.WriteFile(fpath, buf.Bytes(), 0644); err != nil {
		logger.ErrorKV(ctx, "Writing file failed", "path", fpath, "error", err)
		return subcommands.ExitFailure
	}
	logger.InfoKV(ctx, "Modlist written", "path", fpath, "files", len(m.Files))
	return subcommands.ExitSuccess
}
