package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/lattice/pkg/graph"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Graph source kinds.
const (
	SourceFile = "file"
	SourceLoam = "loam"
)

var (
	backends = []string{BackendMemory, BackendFile, BackendSQLite, BackendRedis}
	sources  = []string{SourceFile, SourceLoam}
)

// Config holds application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Source SourceConfig `mapstructure:"source"`
	Store  StoreConfig  `mapstructure:"store"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Editor EditorConfig `mapstructure:"editor"`
	Server ServerConfig `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SourceConfig locates document baselines.
type SourceConfig struct {
	Kind string `mapstructure:"kind"`
	Dir  string `mapstructure:"dir"`
}

// StoreConfig selects the change log backend.
// Dir is used by the file backend and Path by sqlite.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Path    string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// EditorConfig tunes document editors. Interactions names an optional JSON
// catalog of interaction types registered on top of the built-in ones.
type EditorConfig struct {
	DeletePolicy string `mapstructure:"delete_policy"`
	Interactions string `mapstructure:"interactions"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from file and env. Env var overrides use prefix LATTICE_
// (e.g. LATTICE_STORE_BACKEND). With an empty path, lattice.yaml is looked up in
// the working directory and may be absent.
func Load(path string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("source.kind", SourceFile)
	v.SetDefault("source.dir", "graphs")
	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.dir", ".lattice/changes")
	v.SetDefault("store.path", ".lattice/lattice.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "lattice:")
	v.SetDefault("redis.lock_ttl", "30s")
	v.SetDefault("editor.delete_policy", graph.RepointToTerminal.String())
	v.SetDefault("editor.interactions", "")
	v.SetDefault("server.addr", ":8080")

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("lattice")
	}

	v.SetEnvPrefix("LATTICE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects unknown backends and policies.
func (c Config) Validate() error {
	if !slices.Contains(backends, c.Store.Backend) {
		return fmt.Errorf("unknown store backend %q (want one of %s)", c.Store.Backend, strings.Join(backends, ", "))
	}
	if !slices.Contains(sources, c.Source.Kind) {
		return fmt.Errorf("unknown source kind %q (want one of %s)", c.Source.Kind, strings.Join(sources, ", "))
	}
	if _, err := graph.ParseDeletePolicy(c.Editor.DeletePolicy); err != nil {
		return err
	}
	return nil
}

// DeletePolicy returns the parsed editor delete policy.
func (c Config) DeletePolicy() graph.DeletePolicy {
	p, _ := graph.ParseDeletePolicy(c.Editor.DeletePolicy)
	return p
}
