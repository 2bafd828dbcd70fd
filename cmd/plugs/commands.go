package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dshills/plugs/internal/plugin"
	"github.com/dshills/plugs/internal/plugin/watch"
)

// exitCode ends a command with a specific exit status and no message.
type exitCode int

func (c exitCode) Error() string {
	return "exit status " + strconv.Itoa(int(c))
}

type command struct {
	usage string
	run   func(e *env, args []string) error
}

var commands = map[string]command{
	"names":   {"NAMESPACE", runNames},
	"funcs":   {"[-label L] NAMESPACE PLUGIN", runFuncs},
	"labels":  {"NAMESPACE PLUGIN", runLabels},
	"info":    {"[-func F] [-label L] NAMESPACE PLUGIN", runInfo},
	"exists":  {"NAMESPACE PLUGIN", runExists},
	"call":    {"[-func F] [-label L] [-kw key=value]... NAMESPACE PLUGIN [ARG...]", runCall},
	"state":   {"[-scan] NAMESPACE [MEMBER...]", runState},
	"watch":   {"NAMESPACE...", runWatch},
	"version": {"", nil},
}

var commandOrder = []string{"names", "funcs", "labels", "info", "exists", "call", "state", "watch", "version"}

// parse parses flags that may appear before, between or after the
// positional arguments. Everything after "--" is positional.
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(io.Discard)
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", errUsage, err)
		}
		rest := fs.Args()
		if n := len(args) - len(rest); n > 0 && args[n-1] == "--" {
			return append(positional, rest...), nil
		}
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func wantArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %d arguments, got %d", errUsage, n, len(args))
	}
	return nil
}

func runNames(e *env, args []string) error {
	args, err := parse(flag.NewFlagSet("names", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	names, err := e.registry.Names(args[0])
	if err != nil {
		return err
	}
	printLines(e.stdout, names)
	return nil
}

func runFuncs(e *env, args []string) error {
	fs := flag.NewFlagSet("funcs", flag.ContinueOnError)
	label := fs.String("label", "", "Only list functions with this label")
	args, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs(args, 2); err != nil {
		return err
	}
	funcs, err := e.registry.Funcs(args[0], args[1], *label)
	if err != nil {
		return err
	}
	printLines(e.stdout, funcs)
	return nil
}

func runLabels(e *env, args []string) error {
	args, err := parse(flag.NewFlagSet("labels", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if err := wantArgs(args, 2); err != nil {
		return err
	}
	labels, err := e.registry.Labels(args[0], args[1])
	if err != nil {
		return err
	}
	printLines(e.stdout, labels)
	return nil
}

func runInfo(e *env, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fn := fs.String("func", "", "Function to describe (default: first with the label)")
	label := fs.String("label", "", "Label of the function")
	args, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs(args, 2); err != nil {
		return err
	}
	info, err := e.registry.Info(args[0], args[1], plugin.Selector{Func: *fn, Label: *label})
	if err != nil {
		return err
	}

	w := e.stdout
	fmt.Fprintln(w, info.Qualified())
	if info.Label != "" {
		fmt.Fprintf(w, "  label:      %s\n", info.Label)
	}
	fmt.Fprintf(w, "  sort value: %d\n", info.SortValue)
	for _, section := range []string{info.Description, info.Doc, info.ModuleDoc} {
		if section != "" {
			fmt.Fprintf(w, "\n%s\n", section)
		}
	}
	return nil
}

func runExists(e *env, args []string) error {
	args, err := parse(flag.NewFlagSet("exists", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if err := wantArgs(args, 2); err != nil {
		return err
	}
	ok, err := e.registry.Exists(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, ok)
	if !ok {
		return exitCode(exitError)
	}
	return nil
}

// kwargs collects repeated -kw key=value flags.
type kwargs plugin.Kwargs

func (k kwargs) String() string {
	pairs := make([]string, 0, len(k))
	for key, v := range k {
		pairs = append(pairs, fmt.Sprintf("%s=%v", key, v))
	}
	return strings.Join(pairs, ",")
}

func (k kwargs) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	k[key] = parseArg(value)
	return nil
}

func runCall(e *env, args []string) error {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fn := fs.String("func", "", "Function to call (default: first with the label)")
	label := fs.String("label", "", "Label of the function")
	kw := kwargs{}
	fs.Var(kw, "kw", "Keyword argument key=value, passed as a final table (repeatable)")
	args, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: expected NAMESPACE and PLUGIN", errUsage)
	}

	callArgs := make([]any, 0, len(args)-2+1)
	for _, a := range args[2:] {
		callArgs = append(callArgs, parseArg(a))
	}
	if len(kw) > 0 {
		callArgs = append(callArgs, plugin.Kwargs(kw))
	}

	result, err := e.registry.Call(args[0], args[1], plugin.Selector{Func: *fn, Label: *label}, callArgs...)
	if err != nil {
		return err
	}
	printResult(e.stdout, result)
	return nil
}

// runState prints what the registry knows about a namespace and its members
// without executing anything unless -scan is given.
func runState(e *env, args []string) error {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	scan := fs.Bool("scan", false, "Discover the namespace first")
	args, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: expected NAMESPACE", errUsage)
	}
	ns, members := args[0], args[1:]

	if *scan {
		if err := e.registry.ImportAll(ns); err != nil {
			return err
		}
	}
	if len(members) == 0 {
		entries, err := e.registry.Loader().Members(ns)
		if err != nil {
			return err
		}
		suffix := e.registry.Loader().Suffix()
		for _, entry := range entries {
			if name, ok := strings.CutSuffix(entry, suffix); ok && name != "" {
				members = append(members, name)
			}
		}
	}

	fmt.Fprintf(e.stdout, "%s: %s\n", ns, e.registry.NamespaceState(ns))
	for _, m := range members {
		fmt.Fprintf(e.stdout, "  %s: %s\n", m, e.registry.PluginState(ns, m))
	}
	return nil
}

func runWatch(e *env, args []string) error {
	args, err := parse(flag.NewFlagSet("watch", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: expected at least one NAMESPACE", errUsage)
	}

	w, err := watch.New(e.registry, e.cfg.Root, watch.WithLogger(e.log))
	if err != nil {
		return err
	}
	defer w.Close()

	for _, ns := range args {
		if err := w.Watch(ns); err != nil {
			return fmt.Errorf("watching %q: %w", ns, err)
		}
		names, err := e.registry.Names(ns)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintf(e.stdout, "%s/%s\n", ns, name)
		}
	}

	for {
		select {
		case <-e.ctx.Done():
			return nil
		case d, ok := <-w.Discoveries():
			if !ok {
				return nil
			}
			for _, name := range d.Names {
				fmt.Fprintf(e.stdout, "%s/%s\n", d.Namespace, name)
			}
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			fmt.Fprintf(e.stderr, "Error: %v\n", err)
		}
	}
}

// parseArg interprets a command line argument as an int, a float, a bool
// or, failing those, a string.
func parseArg(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func printLines(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// printResult writes a call result. Several results go on separate lines.
func printResult(w io.Writer, v any) {
	switch v := v.(type) {
	case nil:
	case []any:
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	default:
		fmt.Fprintln(w, v)
	}
}
