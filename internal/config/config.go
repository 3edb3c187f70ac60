// Package config resolves chronos settings from defaults, an optional YAML
// file, the environment (including .env) and command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/vthunder/chronos/internal/apperr"
	"github.com/vthunder/chronos/internal/ids"
	"github.com/vthunder/chronos/internal/store"
	"github.com/vthunder/chronos/internal/timemath"
)

// Config is the resolved runtime configuration
type Config struct {
	LocalTimezone  string `yaml:"local_timezone"`
	StorageMode    string `yaml:"storage_mode"`
	DataDir        string `yaml:"data_dir"`
	ProjectRoot    string `yaml:"project_root"`
	IDFormat       string `yaml:"id_format"`
	CustomIDLength int    `yaml:"custom_id_length"`
	TimeoutSeconds int    `yaml:"timeout"`
	StorageBackend string `yaml:"storage_backend"`
	CallJournal    bool   `yaml:"call_journal"`
	MetricsAddr    string `yaml:"metrics_addr"`

	// File is the YAML file that was read, if any
	File string `yaml:"-"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		StorageMode:    ModeCentralized,
		DataDir:        "./chronos-data",
		IDFormat:       string(ids.FormatShort),
		CustomIDLength: ids.DefaultCustomLength,
		TimeoutSeconds: 60,
		StorageBackend: store.BackendJSON,
		CallJournal:    true,
	}
}

// Timeout returns the per-call budget
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// setting describes one key: its environment names (first set wins), flag
// help and how to apply a raw string value.
type setting struct {
	key   string
	env   []string
	usage string
	apply func(c *Config, v string) error
}

func stringSetting(key string, env []string, usage string, field func(*Config) *string) setting {
	return setting{key: key, env: env, usage: usage, apply: func(c *Config, v string) error {
		*field(c) = strings.TrimSpace(v)
		return nil
	}}
}

func intSetting(key string, env []string, usage string, field func(*Config) *int) setting {
	return setting{key: key, env: env, usage: usage, apply: func(c *Config, v string) error {
		n, err := cast.ToIntE(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, v)
		}
		*field(c) = n
		return nil
	}}
}

var settings = []setting{
	stringSetting("local-timezone", []string{"CHRONOS_LOCAL_TIMEZONE"},
		"IANA zone to report as the local timezone (default: auto-detect)",
		func(c *Config) *string { return &c.LocalTimezone }),
	stringSetting("storage-mode", []string{"CHRONOS_STORAGE_MODE"},
		"centralized or per-project",
		func(c *Config) *string { return &c.StorageMode }),
	stringSetting("data-dir", []string{"CHRONOS_DATA_DIR", "MCP_DATA_DIR"},
		"data directory for centralized storage",
		func(c *Config) *string { return &c.DataDir }),
	stringSetting("project-root", nil,
		"project root for per-project storage",
		func(c *Config) *string { return &c.ProjectRoot }),
	stringSetting("id-format", []string{"CHRONOS_ID_FORMAT"},
		"short, uuid or custom",
		func(c *Config) *string { return &c.IDFormat }),
	intSetting("custom-id-length", []string{"CHRONOS_CUSTOM_ID_LENGTH"},
		"id length for the custom format (1-22)",
		func(c *Config) *int { return &c.CustomIDLength }),
	intSetting("timeout", []string{"CHRONOS_TIMEOUT"},
		"per-call timeout in seconds",
		func(c *Config) *int { return &c.TimeoutSeconds }),
	stringSetting("storage-backend", []string{"CHRONOS_STORAGE_BACKEND"},
		"json or sqlite",
		func(c *Config) *string { return &c.StorageBackend }),
	{
		key: "call-journal", env: []string{"CHRONOS_CALL_JOURNAL"},
		usage: "record every tool call in tool_calls.jsonl",
		apply: func(c *Config, v string) error {
			b, err := cast.ToBoolE(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("call-journal: %q is not a boolean", v)
			}
			c.CallJournal = b
			return nil
		},
	},
	stringSetting("metrics-addr", []string{"CHRONOS_METRICS_ADDR"},
		"serve Prometheus metrics on this address (default: disabled)",
		func(c *Config) *string { return &c.MetricsAddr }),
}

// Load resolves configuration for the program name from args (without the
// program name). .env in the working directory is loaded first if present.
func Load(name string, args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, apperr.Wrap(apperr.KindConfiguration, err, "failed to load .env")
	}
	return load(name, args, os.LookupEnv, os.Stderr)
}

func load(name string, args []string, lookup func(string) (string, bool), out io.Writer) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "YAML configuration file (env CHRONOS_CONFIG)")
	for _, s := range settings {
		fs.String(s.key, "", s.usage)
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, apperr.Wrap(apperr.KindConfiguration, err, "invalid arguments")
	}

	cfg := Default()

	path := *configPath
	if path == "" {
		path, _ = lookup("CHRONOS_CONFIG")
	}
	if path != "" {
		if err := readFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	for _, s := range settings {
		for _, key := range s.env {
			v, ok := lookup(key)
			if !ok || v == "" {
				continue
			}
			if err := s.apply(&cfg, v); err != nil {
				return Config{}, apperr.Wrap(apperr.KindConfiguration, err, "invalid %s", key)
			}
			break
		}
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		if flagErr != nil {
			return
		}
		for _, s := range settings {
			if s.key == f.Name {
				if err := s.apply(&cfg, f.Value.String()); err != nil {
					flagErr = apperr.Wrap(apperr.KindConfiguration, err, "invalid --%s", f.Name)
				}
				return
			}
		}
	})
	if flagErr != nil {
		return Config{}, flagErr
	}

	cfg.StorageMode = NormalizeStorageMode(cfg.StorageMode)
	return cfg, nil
}

func readFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperr.Wrap(apperr.KindConfiguration, err, "failed to read config file %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return apperr.Wrap(apperr.KindConfiguration, err, "failed to parse config file %s", path)
	}
	cfg.File = path
	return nil
}

// Validate rejects settings the server cannot start with
func (c Config) Validate() error {
	switch NormalizeStorageMode(c.StorageMode) {
	case ModeCentralized, ModePerProject:
	default:
		return apperr.New(apperr.KindConfiguration,
			"Invalid storage_mode: '%s'. Must be '%s' or '%s'", c.StorageMode, ModeCentralized, ModePerProject)
	}
	if _, err := ids.ParseFormat(c.IDFormat); err != nil {
		return err
	}
	if c.CustomIDLength < 1 || c.CustomIDLength > ids.ShortLength {
		return apperr.New(apperr.KindConfiguration,
			"custom_id_length must be between 1 and %d, got %d", ids.ShortLength, c.CustomIDLength)
	}
	if c.TimeoutSeconds <= 0 {
		return apperr.New(apperr.KindConfiguration, "timeout must be positive, got %d", c.TimeoutSeconds)
	}
	switch strings.ToLower(c.StorageBackend) {
	case store.BackendJSON, store.BackendSQLite:
	default:
		return apperr.New(apperr.KindConfiguration,
			"unknown storage_backend %q (expected %s or %s)", c.StorageBackend, store.BackendJSON, store.BackendSQLite)
	}
	if c.LocalTimezone != "" {
		if _, err := timemath.LoadZone(c.LocalTimezone); err != nil {
			return apperr.Wrap(apperr.KindConfiguration, err, "invalid local_timezone")
		}
	}
	return nil
}
