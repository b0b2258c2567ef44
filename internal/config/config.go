package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/Ning0612/Filegraph/internal/core/layout"
	"github.com/Ning0612/Filegraph/internal/domain"
	"github.com/Ning0612/Filegraph/internal/logger"
)

// Config represents the complete configuration for filegraph
type Config struct {
	// Server configures the scanner and record stream endpoint
	Server ServerConfig `mapstructure:"server"`

	// Client configures how the viewer reaches the server
	Client ClientConfig `mapstructure:"client"`

	// Layout holds the initial force parameters
	Layout LayoutConfig `mapstructure:"layout"`

	// View configures the rendering surface
	View ViewConfig `mapstructure:"view"`

	// Log configures logging output
	Log LogConfig `mapstructure:"log"`
}

// ServerConfig configures `filegraph serve`
type ServerConfig struct {
	Addr string `mapstructure:"addr"`

	// Folders are the selectable scan roots, in display order
	Folders []string `mapstructure:"folders"`

	// FoldersBase adds every non-hidden subdirectory of this directory to the folder list
	FoldersBase string `mapstructure:"folders_base"`

	// AllowAnyRoot accepts start requests for directories outside the folder list
	AllowAnyRoot bool `mapstructure:"allow_any_root"`

	// Workers bounds concurrent stat calls per scan
	Workers int `mapstructure:"workers"`

	IncludeHidden bool `mapstructure:"include_hidden"`

	// DataDir holds the scan history database
	DataDir string `mapstructure:"data_dir"`
}

// ClientConfig configures `filegraph view`
type ClientConfig struct {
	ServerURL   string        `mapstructure:"server_url"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// LayoutConfig holds force parameters and the simulation rate
type LayoutConfig struct {
	LinkDistance   float64       `mapstructure:"link_distance"`
	ChargeStrength float64       `mapstructure:"charge_strength"`
	CenterStrength float64       `mapstructure:"center_strength"`
	CollidePadding float64       `mapstructure:"collide_padding"`
	Width          float64       `mapstructure:"width"`
	Height         float64       `mapstructure:"height"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`

	// IdleInterval is the tick rate after the layout has cooled
	IdleInterval time.Duration `mapstructure:"idle_interval"`
}

// Params converts the section to engine parameters
func (l LayoutConfig) Params() layout.Params {
	return layout.Params{
		LinkDistance:   l.LinkDistance,
		ChargeStrength: l.ChargeStrength,
		CenterStrength: l.CenterStrength,
		CollidePadding: l.CollidePadding,
		Width:          l.Width,
		Height:         l.Height,
	}
}

// ViewConfig configures zoom extent and labels
type ViewConfig struct {
	MinScale   float64 `mapstructure:"min_scale"`
	MaxScale   float64 `mapstructure:"max_scale"`
	ShowLabels bool    `mapstructure:"show_labels"`
}

// LogConfig mirrors logger.Settings in config-file form
type LogConfig struct {
	Level   string        `mapstructure:"level"`
	Format  string        `mapstructure:"format"`
	Console string        `mapstructure:"console"`
	File    LogFileConfig `mapstructure:"file"`

	// RedactHome masks user names in home directory paths written to the log
	RedactHome bool `mapstructure:"redact_home"`
}

// LogFileConfig configures the rotating log file
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// Settings converts the section to logger settings
func (l LogConfig) Settings() logger.Settings {
	return logger.Settings{
		Level:      l.Level,
		Format:     l.Format,
		Console:    l.Console,
		RedactHome: l.RedactHome,
		File: logger.FileConfig{
			Enabled:    l.File.Enabled,
			Path:       ExpandPath(l.File.Path),
			MaxSizeMB:  l.File.MaxSizeMB,
			MaxAgeDays: l.File.MaxAgeDays,
			MaxBackups: l.File.MaxBackups,
			Compress:   l.File.Compress,
		},
	}
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr cannot be empty", domain.ErrConfigInvalid)
	}
	if c.Server.Workers < 1 {
		return fmt.Errorf("%w: server.workers must be at least 1, got %d", domain.ErrConfigInvalid, c.Server.Workers)
	}
	seen := make(map[string]bool)
	for _, f := range c.Server.Folders {
		if f == "" {
			return fmt.Errorf("%w: server.folders contains an empty entry", domain.ErrConfigInvalid)
		}
		if seen[f] {
			return fmt.Errorf("%w: duplicate folder: %s", domain.ErrConfigInvalid, f)
		}
		seen[f] = true
	}

	if c.Client.ServerURL == "" {
		return fmt.Errorf("%w: client.server_url cannot be empty", domain.ErrConfigInvalid)
	}
	if c.Client.DialTimeout <= 0 {
		return fmt.Errorf("%w: client.dial_timeout must be positive", domain.ErrConfigInvalid)
	}

	if err := c.Layout.Params().Validate(); err != nil {
		return fmt.Errorf("%w: layout: %v", domain.ErrConfigInvalid, err)
	}
	if c.Layout.TickInterval <= 0 {
		return fmt.Errorf("%w: layout.tick_interval must be positive", domain.ErrConfigInvalid)
	}
	if c.Layout.IdleInterval < c.Layout.TickInterval {
		return fmt.Errorf("%w: layout.idle_interval must not be shorter than tick_interval", domain.ErrConfigInvalid)
	}

	if !(c.View.MinScale > 0) || !(c.View.MaxScale >= c.View.MinScale) || math.IsInf(c.View.MaxScale, 0) {
		return fmt.Errorf("%w: view scale extent [%v, %v] is invalid",
			domain.ErrConfigInvalid, c.View.MinScale, c.View.MaxScale)
	}

	if c.Log.File.Enabled && c.Log.File.Path == "" {
		return fmt.Errorf("%w: log.file.path required when file logging is enabled", domain.ErrConfigInvalid)
	}
	return nil
}

// ResolveFolders returns the configured folders followed by the subdirectories of
// FoldersBase, with paths expanded and duplicates removed. Order is preserved.
func (s ServerConfig) ResolveFolders() ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, f := range s.Folders {
		add(ExpandPath(f))
	}
	if s.FoldersBase == "" {
		return out, nil
	}

	base := ExpandPath(s.FoldersBase)
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("read folders_base %s: %w", base, err)
	}
	for _, e := range entries {
		if !e.IsDir() || (!s.IncludeHidden && len(e.Name()) > 0 && e.Name()[0] == '.') {
			continue
		}
		add(filepath.Join(base, e.Name()))
	}
	return out, nil
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
