// Package config loads the docdesigner configuration file.
//
// The file is TOML and every key is optional:
//
//	[storage]
//	dir = "~/.config/docdesigner"
//	key = "invoice_templates"
//
//	[mirror]
//	backend = "redis"          # "", "redis" or "mongo"
//	timeout = "30s"
//
//	[mirror.redis]
//	addr = "localhost:6379"
//
//	[mirror.mongo]
//	uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//
//	[log]
//	level = "info"
//
// DOCDESIGNER_REDIS_ADDR and DOCDESIGNER_MONGO_URI override the matching
// keys, and DOCDESIGNER_CONFIG names the file when no path is given.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/persist"
)

// Environment variables.
const (
	EnvConfig    = "DOCDESIGNER_CONFIG"
	EnvRedisAddr = "DOCDESIGNER_REDIS_ADDR"
	EnvMongoURI  = "DOCDESIGNER_MONGO_URI"
)

// Mirror backends.
const (
	BackendNone  = ""
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the full configuration.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Mirror  MirrorConfig  `toml:"mirror"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig locates the local snapshot.
type StorageConfig struct {
	Dir string `toml:"dir"`
	Key string `toml:"key"`
}

// MirrorConfig selects and configures the remote mirror.
type MirrorConfig struct {
	Backend string      `toml:"backend"`
	Timeout Duration    `toml:"timeout"`
	Redis   RedisConfig `toml:"redis"`
	Mongo   MongoConfig `toml:"mongo"`
}

// RedisConfig configures the Redis mirror.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
	Channel  string `toml:"channel"`
}

// MongoConfig configures the MongoDB mirror.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Key: persist.DefaultKey},
		Mirror: MirrorConfig{
			Timeout: Duration{30 * time.Second},
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Prefix:  "docdesigner",
				Channel: "docdesigner:changes",
			},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "docdesigner",
				Collection: "invoice_templates",
			},
		},
		Server: ServerConfig{Addr: ":8080", ShutdownTimeout: Duration{10 * time.Second}},
		Log:    LogConfig{Level: "info"},
	}
}

// Dir returns the configuration directory using the XDG standard
// (~/.config/docdesigner/).
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, "docdesigner"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "docdesigner"), nil
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the file at path over the defaults and applies environment
// overrides. An empty path means [DefaultPath]; a missing default file is
// not an error, a missing explicit one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case err == nil:
		if keys := md.Undecoded(); len(keys) > 0 {
			log.Warn("unknown config keys ignored", "file", path, "keys", keys)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Mirror.Redis.Addr = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Mirror.Mongo.URI = v
	}
}

// Validate checks values the rest of the program relies on.
func (c *Config) Validate() error {
	if err := errors.ValidateStorageKey(c.Storage.Key); err != nil {
		return err
	}
	switch strings.ToLower(c.Mirror.Backend) {
	case BackendNone:
	case BackendRedis:
		if c.Mirror.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "mirror.redis.addr is required")
		}
	case BackendMongo:
		if err := errors.ValidateURL(c.Mirror.Mongo.URI, "mongodb", "mongodb+srv"); err != nil {
			return err
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown mirror backend %q (want redis or mongo)", c.Mirror.Backend)
	}
	if c.Mirror.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "mirror.timeout cannot be negative")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log.level")
	}
	return nil
}

// LogLevel returns the configured level, defaulting to info.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// MirrorBackend returns the normalised backend name.
func (c *Config) MirrorBackend() string {
	return strings.ToLower(c.Mirror.Backend)
}

// Write saves c as TOML, creating parent directories.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
