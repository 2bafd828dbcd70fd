package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testRoot = "../../internal/plugin/lua/testdata"

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), append([]string{"-root", testRoot}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"names", []string{"names", "plugin_directory"},
			"plugin_first\nplugin_labels\nplugin_parts\nplugin_plain\nplugin_types\nplugin_last\n"},
		{"funcs", []string{"funcs", "plugin_directory", "plugin_parts"},
			"plugin_default\nplugin_next\nplugin_final\n"},
		{"funcs with label", []string{"funcs", "-label", "label", "plugin_directory", "plugin_labels"},
			"plugin_first_label\nplugin_second_label\n"},
		{"labels", []string{"labels", "plugin_directory", "plugin_labels"},
			"another_label\nlabel\n"},
		{"exists", []string{"exists", "plugin_directory", "plugin_parts"}, "true\n"},
		{"call default", []string{"call", "plugin_directory", "plugin_parts"}, "default\n"},
		{"call func", []string{"call", "plugin_directory", "plugin_parts", "-func", "plugin_next"}, "next\n"},
		{"call label", []string{"call", "-label", "label", "plugin_directory", "plugin_labels"}, "first\n"},
		{"call tuple", []string{"call", "-func", "plugin_tuple", "plugin_directory", "plugin_types"}, "string\n28\n"},
		{"call args", []string{"call", "-func", "plugin_greet", "plugin_directory", "plugin_types", "bob"}, "hello bob\n"},
		{"call number arg", []string{"call", "-func", "plugin_greet", "plugin_directory", "plugin_types", "42"}, "hello 42\n"},
		{"call kwargs", []string{"call", "plugin_directory", "plugin_types", "-func", "plugin_greet", "bob", "-kw", "loud=true"},
			"HELLO BOB\n"},
		{"call after terminator", []string{"call", "-func", "plugin_greet", "plugin_directory", "plugin_types", "--", "-x"},
			"hello -x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != exitOK {
				t.Fatalf("exit code = %d, stderr = %q", code, stderr)
			}
			if diff := cmp.Diff(tt.want, stdout); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	code, stdout, stderr := runCLI(t, "info", "plugin_directory", "plugin_plain")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	for _, want := range []string{
		"plugin_directory/plugin_plain.plugin_plain",
		"sort value: 0",
		"Register a plain plugin.",
		"This is the plain docstring.",
		"Module doc-string",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("info output missing %q:\n%s", want, stdout)
		}
	}

	code, stdout, _ = runCLI(t, "info", "-label", "another_label", "plugin_directory", "plugin_labels")
	if code != exitOK || !strings.Contains(stdout, "label:      another_label") {
		t.Errorf("info -label = %d, %q", code, stdout)
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"absent plug-in", []string{"exists", "plugin_directory", "no_plugins"}, exitError, ""},
		{"unknown namespace", []string{"names", "missing"}, exitError, `package "missing" doesn't exist`},
		{"unknown plug-in", []string{"call", "plugin_directory", "nope"}, exitError, `couldn't find plug-in "nope"`},
		{"unknown function", []string{"info", "-func", "nope", "plugin_directory", "plugin_parts"}, exitError, `couldn't find function "nope"`},
		{"import error", []string{"call", "plugin_directory", "plugin_with_import_error"}, exitError, "non_existent_package"},
		{"unknown command", []string{"frobnicate"}, exitUsage, `unknown command "frobnicate"`},
		{"missing arguments", []string{"funcs", "plugin_directory"}, exitUsage, "expected 2 arguments"},
		{"bad flag", []string{"names", "-bogus", "plugin_directory"}, exitUsage, "usage error"},
		{"bad kwarg", []string{"call", "-kw", "novalue", "plugin_directory", "plugin_parts"}, exitUsage, "key=value"},
		{"no command", nil, exitUsage, "Usage: plugs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr %q)", code, tt.wantCode, stderr)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.wantErr)
			}
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-log-level", "loud", "names", "x"}, &out, &errOut)
	if code != exitError || !strings.Contains(errOut.String(), "log.level from flag") {
		t.Errorf("run() = %d, stderr %q", code, errOut.String())
	}

	errOut.Reset()
	code = run(context.Background(), []string{"-root", testRoot, "-private-prefix", "", "names", "plugin_directory"}, &out, &errOut)
	if code != exitOK {
		t.Fatalf("run() = %d, stderr %q", code, errOut.String())
	}
	// With no private prefix the helper module is a member too. It registers
	// nothing, so it is still not a plug-in.
	if strings.Contains(out.String(), "_helpers") {
		t.Errorf("names = %q", out.String())
	}
}

func TestState(t *testing.T) {
	code, stdout, stderr := runCLI(t, "state", "plugin_directory", "plugin_parts")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if diff := cmp.Diff("plugin_directory: unknown\n  plugin_parts: unimported\n", stdout); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	code, stdout, stderr = runCLI(t, "state", "-scan", "plugin_directory",
		"plugin_parts", "no_plugins", "plugin_with_import_error")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	want := "plugin_directory: populated\n" +
		"  plugin_parts: registered\n" +
		"  no_plugins: imported\n" +
		"  plugin_with_import_error: unimported\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("state -scan mismatch (-want +got):\n%s", diff)
	}

	code, stdout, _ = runCLI(t, "state", "plugin_directory")
	if code != exitOK || !strings.Contains(stdout, "  _helpers: unimported\n") {
		t.Errorf("state without members = %d, %q", code, stdout)
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	if code := run(context.Background(), []string{"version"}, &out, &out); code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(out.String(), "plugs "+version) {
		t.Errorf("version output = %q", out.String())
	}
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"42", 42},
		{"-7", -7},
		{"2.5", 2.5},
		{"true", true},
		{"False", false},
		{"bob", "bob"},
		{"", ""},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, parseArg(tt.in)); diff != "" {
			t.Errorf("parseArg(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}
