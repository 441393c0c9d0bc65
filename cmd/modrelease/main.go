package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/tie/modrelease/config"
	"github.com/tie/modrelease/logger"
)

const programName = "modrelease"

// options are the flags shared by all commands.
type options struct {
	ConfigPath string
	LogLevel   string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts := &options{}

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.Bool("h", false, "alias for help")
	fs.Bool("help", false, "print usage")
	fs.StringVar(&opts.ConfigPath, "config", config.DefaultPath, "configuration file path")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cdr := subcommands.NewCommander(fs, programName)
	cdr.Register(&UpdateCommand{opts: opts}, "")
	cdr.Register(&ReleaseCommand{opts: opts}, "")
	cdr.Register(&InitCommand{opts: opts}, "")
	cdr.Register(&FormatCommand{opts: opts}, "")
	cdr.Register(&CleanCommand{opts: opts}, "")
	cdr.Register(&ModlistCommand{opts: opts}, "")
	cdr.Register(cdr.HelpCommand(), "help")
	cdr.Register(cdr.FlagsCommand(), "help")
	cdr.Register(cdr.CommandsCommand(), "help")

	if err := fs.Parse(args); err != nil {
		return int(subcommands.ExitUsageError)
	}

	level, ok := logger.ParseLogLevel(opts.LogLevel)
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: unknown log level %q\n", programName, opts.LogLevel)
		return int(subcommands.ExitUsageError)
	}
	logger.SetLevel(level)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToContext(ctx, logger.Logger().With("run", uuid.NewString()))

	switch cdr.Execute(ctx) {
	case subcommands.ExitFailure:
		return 1
	case subcommands.ExitUsageError:
		return 2
	}
	return 0
}
