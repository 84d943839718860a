// Package config loads cmdtree.yaml. Flags given on the command line override it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "cmdtree.yaml"

// Source kinds.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindRedis  = "redis"
	KindExec   = "exec"
)

// SourceConfig selects where payloads come from.
type SourceConfig struct {
	Kind string `yaml:"kind"`
	// Path of the payload file for the file kind.
	Path string `yaml:"path"`
	// Key holding the payload for the redis kind.
	Key string `yaml:"key"`
	// Command run on every poll by the exec kind; its stdout is the payload.
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	Timeout time.Duration     `yaml:"timeout"`
}

// StateConfig selects where the saved view lives.
type StateConfig struct {
	Kind string `yaml:"kind"`
	Dir  string `yaml:"dir"`
	View string `yaml:"view"`
}

// RedisConfig is shared by the redis source and the redis view store.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the whole file.
type Config struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Hold         time.Duration `yaml:"hold"`
	LogLevel     string        `yaml:"log_level"`
	Source       SourceConfig  `yaml:"source"`
	State        StateConfig   `yaml:"state"`
	Redis        RedisConfig   `yaml:"redis"`
	HTTP         HTTPConfig    `yaml:"http"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		PollInterval: 20 * time.Millisecond,
		Hold:         100 * time.Millisecond,
		LogLevel:     "info",
		Source: SourceConfig{
			Kind: KindFile,
			Path: "commands.json",
			Key:  "cmdtree:commands",
		},
		State: StateConfig{
			Kind: KindFile,
			Dir:  ".cmdtree/views",
			View: "default",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "cmdtree:view:",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("poll_interval must not be negative"))
	}
	if c.Hold <= 0 {
		errs = append(errs, fmt.Errorf("hold must be positive"))
	}
	switch c.Source.Kind {
	case KindMemory:
	case KindFile:
		if c.Source.Path == "" {
			errs = append(errs, fmt.Errorf("source.path is required for the file source"))
		}
	case KindRedis:
		if c.Source.Key == "" {
			errs = append(errs, fmt.Errorf("source.key is required for the redis source"))
		}
	case KindExec:
		if c.Source.Command == "" {
			errs = append(errs, fmt.Errorf("source.command is required for the exec source"))
		}
		if c.Source.Timeout < 0 {
			errs = append(errs, fmt.Errorf("source.timeout must not be negative"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source.kind %q", c.Source.Kind))
	}
	switch c.State.Kind {
	case KindMemory, KindFile, KindRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown state.kind %q", c.State.Kind))
	}
	if c.State.View == "" {
		errs = append(errs, fmt.Errorf("state.view must not be empty"))
	}
	return errors.Join(errs...)
}

// UsesRedis reports whether any component needs a redis connection.
func (c Config) UsesRedis() bool {
	return c.Source.Kind == KindRedis || c.State.Kind == KindRedis
}
