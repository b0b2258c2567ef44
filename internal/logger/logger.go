package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// LegacyEnvVar switches Init to the plain-text fallback logger
const LegacyEnvVar = "FILEGRAPH_USE_LEGACY_LOGGER"

var (
	defaultLogger Logger
	mu            sync.RWMutex
	initialized   bool
)

// Init 初始化全域 logger
func Init(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	// Prevent duplicate initialization
	if initialized {
		return fmt.Errorf("logger already initialized; call Shutdown() before re-initializing")
	}

	// 檢查是否使用舊版 logger（回退機制）
	if os.Getenv(LegacyEnvVar) == "true" {
		legacy := NewLegacyLogger(legacyWriter(config))
		legacy.SetLevel(config.Level)
		defaultLogger = legacy
		initialized = true
		return nil
	}

	logger, err := NewSlogLogger(config)
	if err != nil {
		return fmt.Errorf("failed to create slog logger: %w", err)
	}

	defaultLogger = logger
	initialized = true
	return nil
}

// Get 取得全域 logger
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()

	if !initialized {
		// 未初始化時回傳 null logger（避免 panic）
		return &NullLogger{}
	}

	return defaultLogger
}

// With 建立帶 context 的子 logger
func With(args ...any) Logger {
	return Get().With(args...)
}

// Sync 強制 flush
func Sync() error {
	return Get().Sync()
}

// Shutdown 優雅關閉
func Shutdown() error {
	mu.Lock()
	if !initialized {
		mu.Unlock()
		return nil
	}

	logger := defaultLogger
	initialized = false
	mu.Unlock() // Release lock before calling logger.Shutdown() to avoid deadlock

	return logger.Shutdown()
}

// legacyWriter picks the first console writer; the legacy logger never writes files
func legacyWriter(config Config) io.Writer {
	for _, o := range config.Outputs {
		switch o.Type {
		case OutputStdout, OutputStderr:
			if o.Writer != nil {
				return o.Writer
			}
			if o.Type == OutputStdout {
				return os.Stdout
			}
			return os.Stderr
		case OutputNone:
			return io.Discard
		}
	}
	return os.Stderr
}

// leveler is implemented by loggers whose level can change at runtime
type leveler interface {
	SetLevel(Level)
	Level() Level
}

// SetLevel 動態調整全域 logger 的級別
func SetLevel(level Level) {
	mu.RLock()
	defer mu.RUnlock()
	if l, ok := defaultLogger.(leveler); ok && initialized {
		l.SetLevel(level)
	}
}

// CurrentLevel returns the global logger's level, LevelInfo before Init
func CurrentLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	if l, ok := defaultLogger.(leveler); ok && initialized {
		return l.Level()
	}
	return LevelInfo
}

// NullLogger 空 logger（不做任何事）
type NullLogger struct{}

func (n *NullLogger) Debug(msg string, args ...any) {}
func (n *NullLogger) Info(msg string, args ...any)  {}
func (n *NullLogger) Warn(msg string, args ...any)  {}
func (n *NullLogger) Error(msg string, args ...any) {}
func (n *NullLogger) With(args ...any) Logger       { return n }
func (n *NullLogger) Sync() error                   { return nil }
func (n *NullLogger) Shutdown() error               { return nil }
