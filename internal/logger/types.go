package logger

import (
	"io"
	"strings"
)

// Logger 統一日誌介面
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	Sync() error     // 強制 flush
	Shutdown() error // 優雅關閉
}

// Level 日誌級別
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel parses a string into a Level (case-insensitive)
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format 日誌格式
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// String returns the string representation of the format
func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// ParseFormat parses a string into a Format (case-insensitive)
func ParseFormat(s string) Format {
	if strings.EqualFold(s, "json") {
		return FormatJSON
	}
	return FormatText
}

// Output 日誌輸出目標
type Output int

const (
	OutputStdout Output = iota
	OutputStderr
	OutputFile
	// OutputNone drops console output; used while the terminal viewer owns the screen
	OutputNone
)

// ParseOutput parses a console target name
func ParseOutput(s string) Output {
	switch strings.ToLower(s) {
	case "stdout":
		return OutputStdout
	case "none", "off":
		return OutputNone
	default:
		return OutputStderr
	}
}

// Config 日誌配置
type Config struct {
	Level   Level
	Format  Format
	Outputs []OutputConfig
	File    FileConfig

	// RedactHome masks user names in home directory paths
	RedactHome bool
}

// OutputConfig 輸出配置
type OutputConfig struct {
	Type   Output
	Writer io.Writer // 可選，用於測試
}

// FileConfig 檔案日誌配置
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int  // 單位：MB
	MaxAgeDays int  // 保留天數
	MaxBackups int  // 保留備份數
	Compress   bool // 是否壓縮
}

// Settings is the flat form of the log section in the config file
type Settings struct {
	Level      string
	Format     string
	Console    string // stdout, stderr or none
	File       FileConfig
	RedactHome bool
}

// FromSettings builds a Config from config-file settings.
// The file output is added only when enabled.
func FromSettings(s Settings) Config {
	cfg := Config{
		Level:      ParseLevel(s.Level),
		Format:     ParseFormat(s.Format),
		File:       s.File,
		RedactHome: s.RedactHome,
	}
	if out := ParseOutput(s.Console); out != OutputNone {
		cfg.Outputs = append(cfg.Outputs, OutputConfig{Type: out})
	}
	if s.File.Enabled {
		cfg.Outputs = append(cfg.Outputs, OutputConfig{Type: OutputFile})
	}
	if len(cfg.Outputs) == 0 {
		cfg.Outputs = []OutputConfig{{Type: OutputNone}}
	}
	return cfg
}
