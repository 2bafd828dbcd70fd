package config

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Root != "." || cfg.PrivatePrefix != "_" {
		t.Errorf("Default() = %+v", cfg)
	}
	if cfg.ExecutionTimeout != 5*time.Second {
		t.Errorf("ExecutionTimeout = %v, want 5s", cfg.ExecutionTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		key, value string
		check      func(*Config) bool
		wantErr    bool
	}{
		{KeyRoot, "/srv/plugins", func(c *Config) bool { return c.Root == "/srv/plugins" }, false},
		{KeyRoot, "", nil, true},
		{KeyPrivatePrefix, "", func(c *Config) bool { return c.PrivatePrefix == "" }, false},
		{KeyExecutionTimeout, "250ms", func(c *Config) bool { return c.ExecutionTimeout == 250*time.Millisecond }, false},
		{KeyExecutionTimeout, "0s", func(c *Config) bool { return c.ExecutionTimeout == 0 }, false},
		{KeyExecutionTimeout, "-1s", nil, true},
		{KeyExecutionTimeout, "soon", nil, true},
		{KeyWarnOnOverwrite, "yes", func(c *Config) bool { return c.WarnOnOverwrite }, false},
		{KeyWarnOnOverwrite, "maybe", nil, true},
		{KeyLogLevel, "DEBUG", func(c *Config) bool { return c.Log.Level == "debug" }, false},
		{KeyLogLevel, "loud", nil, true},
		{KeyLogFormat, "json", func(c *Config) bool { return c.Log.Format == "json" }, false},
		{KeyLogFormat, "xml", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := Default()
			err := cfg.Set(tt.key, tt.value)
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) || verr.Key != tt.key {
					t.Errorf("Set() error = %v, want ValidationError for %s", err, tt.key)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("Set() left %+v", cfg)
			}
		})
	}
}

func TestUnknownSetting(t *testing.T) {
	cfg := Default()
	if err := cfg.Set("color", "red"); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("Set() error = %v, want ErrUnknownSetting", err)
	}
	if _, err := cfg.Get("color"); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("Get() error = %v, want ErrUnknownSetting", err)
	}
}

func TestGetRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.WarnOnOverwrite = true
	cfg.ExecutionTimeout = 1500 * time.Millisecond

	other := Default()
	for _, key := range Keys {
		v, err := cfg.Get(key)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", key, err)
		}
		if err := other.Set(key, v); err != nil {
			t.Fatalf("Set(%s, %q) error = %v", key, v, err)
		}
	}
	if *other != *cfg {
		t.Errorf("round trip = %+v, want %+v", other, cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted an unknown log format")
	}

	cfg = Default()
	cfg.ExecutionTimeout = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted a negative timeout")
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	var buf bytes.Buffer
	log := cfg.Logger(&buf)
	log.Debug("hidden")
	log.Info("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %q", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ParseError{Path: "a.toml", Message: "bad"}, "parse error in a.toml: bad"},
		{&ParseError{Path: "a.toml", Line: 3, Message: "bad"}, "parse error in a.toml at line 3: bad"},
		{&ParseError{Path: "a.toml", Line: 3, Column: 7, Message: "bad"}, "parse error in a.toml at line 3, column 7: bad"},
		{&ValidationError{Key: "root", Message: "must not be empty", Value: ""}, "root: must not be empty (value: )"},
		{&ValidationError{Key: "root", Message: "must not be empty", Value: "", Source: "env"}, "root from env: must not be empty (value: )"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
