package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/google/subcommands"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/pkg/diff"
	"github.com/pkg/diff/write"

	"github.com/tie/modrelease/config"
	"github.com/tie/modrelease/logger"
)

type FormatCommand struct {
	opts *options

	DisableCheck bool
	Overwrite    bool
}

func (*FormatCommand) Name() string     { return "fmt" }
func (*FormatCommand) Synopsis() string { return "format configuration files" }
func (*FormatCommand) Usage() string {
	return `Usage: modrelease fmt [-w] [-nocheck] [paths]

	Formats configuration files using standard syntax. It can either
	write files in-place or print a unified diff. Without paths the
	-config file is formatted.

Flags:
`
}

func (cmd *FormatCommand) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.DisableCheck, "nocheck", false, "disable diagnostics")
	fs.BoolVar(&cmd.Overwrite, "w", false, "write result to (source) file instead of stdout")
}

func (cmd *FormatCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ctx = logger.WithName(ctx, "fmt")

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{cmd.opts.ConfigPath}
	}

	status := subcommands.ExitSuccess
	seen := make(map[string]bool, len(paths))
	for _, fpath := range paths {
		if seen[fpath] {
			continue
		}
		seen[fpath] = true
		if !cmd.format(ctx, fpath) {
			status = subcommands.ExitFailure
		}
	}
	return status
}

func (cmd *FormatCommand) format(ctx context.Context, fpath string) bool {
	src, err := os.ReadFile(fpath)
	if err != nil {
		logger.ErrorKV(ctx, "Reading file failed", "path", fpath, "error", err)
		return false
	}

	color := false
	if !cmd.DisableCheck {
		p := hclparse.NewParser()
		_, diags := config.Parse(p, src, fpath)
		if !writeDiags(ctx, p, diags) {
			return false
		}
		_, color = fdinfo(int(os.Stdout.Fd()))
	}

	out := hclwrite.Format(src)
	if bytes.Equal(src, out) {
		return true
	}

	if cmd.Overwrite {
		if err := renameio.WriteFile(fpath, out, 0644); err != nil {
			logger.ErrorKV(ctx, "Writing file failed", "path", fpath, "error", err)
			return false
		}
		logger.InfoKV(ctx, "File formatted", "path", fpath)
		return true
	}

	slash := filepath.ToSlash(fpath)
	var opts []write.Option
	if color {
		opts = append(opts, write.TerminalColor())
	}
	err = diff.Text(fmt.Sprintf("a/%s", slash), fmt.Sprintf("b/%s", slash), string(src), string(out), os.Stdout, opts...)
	if err != nil {
		logger.ErrorKV(ctx, "Writing diff failed", "path", fpath, "error", err)
		return false
	}
	return true
}
