package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no file is named explicitly. It may be absent.
const DefaultFile = "plugs.toml"

// EnvPrefix starts the name of every environment variable read by Load.
const EnvPrefix = "PLUGS_"

// FileSystem is the file access Load needs. It allows testing with
// in-memory files.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader assembles a Config from defaults, a file and the environment. Files
// ending in .yaml or .yml are read as YAML, everything else as TOML.
type Loader struct {
	fs        FileSystem
	path      string
	lookupEnv func(string) (string, bool)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFile names the TOML file to read. A named file must exist.
func WithFile(path string) LoaderOption {
	return func(l *Loader) {
		l.path = path
	}
}

// WithFS sets the file system files are read from.
func WithFS(fsys FileSystem) LoaderOption {
	return func(l *Loader) {
		if fsys != nil {
			l.fs = fsys
		}
	}
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) LoaderOption {
	return func(l *Loader) {
		if fn != nil {
			l.lookupEnv = fn
		}
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:        OSFS{},
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads all sources and returns the merged settings.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	path, required := l.path, true
	if path == "" {
		path, required = DefaultFile, false
	}
	data, err := l.fs.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if required {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
	case err != nil:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := applyFile(cfg, path, data); err != nil {
			return nil, err
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is shorthand for NewLoader(WithFile(path)).Load(). An empty path
// reads DefaultFile if it exists.
func Load(path string) (*Config, error) {
	return NewLoader(WithFile(path)).Load()
}

// fileConfig mirrors the file layout. Absent keys stay nil.
type fileConfig struct {
	Root             *string `toml:"root" yaml:"root"`
	PrivatePrefix    *string `toml:"private_prefix" yaml:"private_prefix"`
	ExecutionTimeout *string `toml:"execution_timeout" yaml:"execution_timeout"`
	WarnOnOverwrite  *bool   `toml:"warn_on_overwrite" yaml:"warn_on_overwrite"`
	Log              struct {
		Level  *string `toml:"level" yaml:"level"`
		Format *string `toml:"format" yaml:"format"`
	} `toml:"log" yaml:"log"`
}

func decodeTOML(path string, data []byte, fc *fileConfig) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(fc); err != nil {
		perr := &ParseError{Path: path, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	return nil
}

func decodeYAML(path string, data []byte, fc *fileConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document leaves every setting at its default.
	if err := dec.Decode(fc); err != nil && !errors.Is(err, io.EOF) {
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

func applyFile(cfg *Config, path string, data []byte) error {
	var fc fileConfig
	decode := decodeTOML
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decode = decodeYAML
	}
	if err := decode(path, data, &fc); err != nil {
		return err
	}

	values := map[string]*string{
		KeyRoot:             fc.Root,
		KeyPrivatePrefix:    fc.PrivatePrefix,
		KeyExecutionTimeout: fc.ExecutionTimeout,
		KeyLogLevel:         fc.Log.Level,
		KeyLogFormat:        fc.Log.Format,
	}
	if fc.WarnOnOverwrite != nil {
		s := strconv.FormatBool(*fc.WarnOnOverwrite)
		values[KeyWarnOnOverwrite] = &s
	}
	for _, key := range Keys {
		if v := values[key]; v != nil {
			if err := set(cfg, key, *v, "file"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Loader) applyEnv(cfg *Config) error {
	for _, key := range Keys {
		if v, ok := l.lookupEnv(EnvName(key)); ok {
			if err := set(cfg, key, v, "env"); err != nil {
				return err
			}
		}
	}
	return nil
}

// EnvName returns the environment variable for a setting key:
// "log.level" is read from PLUGS_LOG_LEVEL.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// set applies a value and records its source on validation failures.
func set(cfg *Config, key, value, source string) error {
	err := cfg.Set(key, value)
	var verr *ValidationError
	if errors.As(err, &verr) {
		verr.Source = source
	}
	return err
}
