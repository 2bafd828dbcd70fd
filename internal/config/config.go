package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/plugs/internal/logging"
)

// Setting keys accepted by Set.
const (
	KeyRoot             = "root"
	KeyPrivatePrefix    = "private_prefix"
	KeyExecutionTimeout = "execution_timeout"
	KeyWarnOnOverwrite  = "warn_on_overwrite"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
)

// Keys lists every setting key in file order.
var Keys = []string{
	KeyRoot,
	KeyPrivatePrefix,
	KeyExecutionTimeout,
	KeyWarnOnOverwrite,
	KeyLogLevel,
	KeyLogFormat,
}

// Config holds the settings of the plugs command.
type Config struct {
	// Root is the directory namespaces are resolved against.
	Root string
	// PrivatePrefix marks namespace entries skipped by discovery.
	PrivatePrefix string
	// ExecutionTimeout bounds the run time of a plug-in file. Zero disables it.
	ExecutionTimeout time.Duration
	// WarnOnOverwrite logs a warning when a registration replaces another.
	WarnOnOverwrite bool

	Log LogConfig
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string
	// Format is text or json.
	Format string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Root:             ".",
		PrivatePrefix:    "_",
		ExecutionTimeout: 5 * time.Second,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Set assigns the setting named key from its textual form.
func (c *Config) Set(key, value string) error {
	switch key {
	case KeyRoot:
		if value == "" {
			return &ValidationError{Key: key, Message: "must not be empty", Value: value}
		}
		c.Root = value
	case KeyPrivatePrefix:
		c.PrivatePrefix = value
	case KeyExecutionTimeout:
		d, err := time.ParseDuration(value)
		if err != nil {
			return &ValidationError{Key: key, Message: "not a duration", Value: value}
		}
		if d < 0 {
			return &ValidationError{Key: key, Message: "must not be negative", Value: value}
		}
		c.ExecutionTimeout = d
	case KeyWarnOnOverwrite:
		b, err := parseBool(value)
		if err != nil {
			return &ValidationError{Key: key, Message: "not a boolean", Value: value}
		}
		c.WarnOnOverwrite = b
	case KeyLogLevel:
		if !logging.ValidLevel(value) {
			return &ValidationError{Key: key, Message: "must be debug, info, warn or error", Value: value}
		}
		c.Log.Level = strings.ToLower(value)
	case KeyLogFormat:
		value = strings.ToLower(value)
		if value != "text" && value != "json" {
			return &ValidationError{Key: key, Message: "must be text or json", Value: value}
		}
		c.Log.Format = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	return nil
}

// Get returns the textual form of the setting named key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case KeyRoot:
		return c.Root, nil
	case KeyPrivatePrefix:
		return c.PrivatePrefix, nil
	case KeyExecutionTimeout:
		return c.ExecutionTimeout.String(), nil
	case KeyWarnOnOverwrite:
		return strconv.FormatBool(c.WarnOnOverwrite), nil
	case KeyLogLevel:
		return c.Log.Level, nil
	case KeyLogFormat:
		return c.Log.Format, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
}

// Validate checks every setting by feeding its current value back through Set.
func (c *Config) Validate() error {
	probe := c.Clone()
	for _, key := range Keys {
		v, err := c.Get(key)
		if err != nil {
			return err
		}
		if err := probe.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Logger builds the logger described by the log settings. A nil w writes to
// standard error.
func (c *Config) Logger(w io.Writer) *logging.Logger {
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = logging.ParseLogLevel(c.Log.Level)
	cfg.Format = c.Log.Format
	if w != nil {
		cfg.Output = w
	}
	return logging.NewLogger(cfg)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
