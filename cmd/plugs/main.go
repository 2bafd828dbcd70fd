// Package main is the entry point for the plugs command, which lists,
// describes and calls Lua plug-ins stored in namespace directories.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/plugs/internal/config"
	"github.com/dshills/plugs/internal/logging"
	"github.com/dshills/plugs/internal/plugin"
	"github.com/dshills/plugs/internal/plugin/lua"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errUsage marks errors caused by a malformed command line.
var errUsage = errors.New("usage error")

// flagKeys maps global flags to the settings they override.
var flagKeys = map[string]string{
	"root":              config.KeyRoot,
	"private-prefix":    config.KeyPrivatePrefix,
	"timeout":           config.KeyExecutionTimeout,
	"warn-on-overwrite": config.KeyWarnOnOverwrite,
	"log-level":         config.KeyLogLevel,
	"log-format":        config.KeyLogFormat,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// env carries what every command needs.
type env struct {
	ctx      context.Context
	cfg      *config.Config
	log      *logging.Logger
	registry *plugin.Registry
	stdout   io.Writer
	stderr   io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("plugs", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to configuration file (default "+config.DefaultFile+" if present)")
	fs.String("root", "", "Directory namespaces are resolved against")
	fs.String("private-prefix", "", "Prefix of files skipped by discovery")
	fs.String("timeout", "", "Execution timeout of a plug-in file, such as 5s")
	fs.Bool("warn-on-overwrite", false, "Warn when a registration replaces another")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("log-format", "", "Log format (text, json)")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		usage(fs)
		return exitUsage
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n", name)
		usage(fs)
		return exitUsage
	}
	if name == "version" {
		fmt.Fprintf(stdout, "plugs %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return exitOK
	}

	cfg, err := loadConfig(fs, *configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	log := cfg.Logger(stderr)

	loader := lua.NewLoader(os.DirFS(cfg.Root),
		lua.WithLogger(log),
		lua.WithTimeout(cfg.ExecutionTimeout),
	)
	defer func() {
		if err := loader.Close(); err != nil {
			log.Warn("closing plug-in states", "error", err)
		}
	}()

	registry := plugin.New(loader,
		plugin.WithLogger(log),
		plugin.WithPrivatePrefix(cfg.PrivatePrefix),
		plugin.WithWarnOnOverwrite(cfg.WarnOnOverwrite),
	)
	e := &env{
		ctx:      ctx,
		cfg:      cfg,
		log:      log,
		registry: registry,
		stdout:   stdout,
		stderr:   stderr,
	}

	if err := cmd.run(e, rest); err != nil {
		var exit exitCode
		switch {
		case errors.As(err, &exit):
			return int(exit)
		case errors.Is(err, errUsage):
			fmt.Fprintf(stderr, "Error: %v\n", err)
			fmt.Fprintf(stderr, "Usage: plugs [options] %s %s\n", name, cmd.usage)
			return exitUsage
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(stdout, "Usage: plugs [options] %s %s\n", name, cmd.usage)
			return exitOK
		default:
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	}
	return exitOK
}

// loadConfig merges defaults, file and environment, then applies the global
// flags that were set on the command line.
func loadConfig(fs *flag.FlagSet, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		if serr := cfg.Set(key, f.Value.String()); serr != nil {
			var verr *config.ValidationError
			if errors.As(serr, &verr) {
				verr.Source = "flag"
			}
			err = serr
		}
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintf(w, "plugs - discover and call plug-ins\n\n")
	fmt.Fprintf(w, "Usage: plugs [options] <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].usage)
	}
	fmt.Fprintf(w, "\nOptions:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  plugs -root ./plugins names readers\n")
	fmt.Fprintf(w, "  plugs call -func load readers csv data.csv\n")
	fmt.Fprintf(w, "  plugs -log-level debug watch readers\n")
}
