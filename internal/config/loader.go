package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Ning0612/Filegraph/internal/core/layout"
	"github.com/Ning0612/Filegraph/internal/domain"
)

// EnvPrefix is the prefix for environment overrides, e.g. FILEGRAPH_SERVER_ADDR
const EnvPrefix = "FILEGRAPH"

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "filegraph"))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "filegraph"))
		paths = append(paths, filepath.Join(homeDir, ".filegraph"))
	}

	return paths
}

// DefaultDataDir returns the directory for the scan history database
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "filegraph")
	}
	return ".filegraph"
}

// SetDefaults registers a default for every key
func SetDefaults(v *viper.Viper) {
	p := layout.DefaultParams()

	v.SetDefault("server.addr", "localhost:8000")
	v.SetDefault("server.folders", []string{})
	v.SetDefault("server.folders_base", "")
	v.SetDefault("server.allow_any_root", false)
	v.SetDefault("server.workers", 8)
	v.SetDefault("server.include_hidden", false)
	v.SetDefault("server.data_dir", DefaultDataDir())

	v.SetDefault("client.server_url", "http://localhost:8000")
	v.SetDefault("client.dial_timeout", "10s")

	v.SetDefault("layout.link_distance", p.LinkDistance)
	v.SetDefault("layout.charge_strength", p.ChargeStrength)
	v.SetDefault("layout.center_strength", p.CenterStrength)
	v.SetDefault("layout.collide_padding", p.CollidePadding)
	v.SetDefault("layout.width", p.Width)
	v.SetDefault("layout.height", p.Height)
	v.SetDefault("layout.tick_interval", "33ms")
	v.SetDefault("layout.idle_interval", "250ms")

	v.SetDefault("view.min_scale", 0.1)
	v.SetDefault("view.max_scale", 8.0)
	v.SetDefault("view.show_labels", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.console", "stderr")
	v.SetDefault("log.redact_home", false)
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", filepath.Join(DefaultDataDir(), "filegraph.log"))
	v.SetDefault("log.file.max_size_mb", 10)
	v.SetDefault("log.file.max_age_days", 7)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.compress", false)
}

// NewViper returns a viper instance with defaults and FILEGRAPH_* env overrides bound
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads and parses a configuration file.
// If path is empty, searches default locations for config.yaml; a missing
// file there is not an error and defaults apply.
func Load(path string) (*Config, error) {
	return LoadWith(NewViper(), path)
}

// LoadWith reads configuration into v, which may already carry bound CLI flags
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// defaults only
		case path != "" && errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
	}

	return decode(v)
}

// LoadFromString parses configuration from a YAML string on top of the defaults
func LoadFromString(yamlContent string) (*Config, error) {
	v := NewViper()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	cfg.Server.DataDir = ExpandPath(cfg.Server.DataDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
