package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SlogLogger slog 實作
type SlogLogger struct {
	logger    *slog.Logger
	level     *slog.LevelVar // 可於執行期調整
	sanitizer *Sanitizer
	writers   []io.WriteCloser // 需要關閉的 writers
}

// NewSlogLogger 建立新的 slog logger
func NewSlogLogger(config Config) (*SlogLogger, error) {
	var writers []io.Writer
	var closeable []io.WriteCloser
	discard := false

	for _, output := range config.Outputs {
		switch output.Type {
		case OutputStdout, OutputStderr:
			w := output.Writer
			if w == nil {
				w = os.Stderr
				if output.Type == OutputStdout {
					w = os.Stdout
				}
			} else if wc, ok := w.(io.WriteCloser); ok && !isStdStream(wc) {
				closeable = append(closeable, wc)
			}
			writers = append(writers, w)
		case OutputFile:
			if !config.File.Enabled {
				continue
			}
			fw, err := createFileWriter(config.File)
			if err != nil {
				return nil, fmt.Errorf("failed to create file writer: %w", err)
			}
			writers = append(writers, fw)
			closeable = append(closeable, fw)
		case OutputNone:
			discard = true
		}
	}

	var out io.Writer
	switch {
	case len(writers) > 0:
		out = io.MultiWriter(writers...)
	case discard:
		out = io.Discard
	default:
		out = os.Stderr
	}

	level := &slog.LevelVar{}
	level.Set(convertLevel(config.Level))
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	var sanitizerOpts []SanitizerOption
	if config.RedactHome {
		sanitizerOpts = append(sanitizerOpts, WithHomeRedaction())
	}

	return &SlogLogger{
		logger:    slog.New(handler),
		level:     level,
		sanitizer: NewSanitizer(sanitizerOpts...),
		writers:   closeable,
	}, nil
}

func isStdStream(w io.WriteCloser) bool {
	return w == os.Stdout || w == os.Stderr || w == os.Stdin
}

// createFileWriter 建立檔案 writer（使用 lumberjack 支援 rotation）
func createFileWriter(config FileConfig) (io.WriteCloser, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("log file path cannot be empty")
	}

	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    config.MaxSizeMB,
		MaxAge:     config.MaxAgeDays,
		MaxBackups: config.MaxBackups,
		Compress:   config.Compress,
	}, nil
}

// convertLevel 轉換內部 Level 到 slog.Level
func convertLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// emit sanitizes message and args before handing them to slog
func emit(l *slog.Logger, s *Sanitizer, level slog.Level, msg string, args []any) {
	if !l.Enabled(context.Background(), level) {
		return
	}
	l.Log(context.Background(), level, s.Sanitize(msg), s.SanitizeArgs(args)...)
}

func (l *SlogLogger) Debug(msg string, args ...any) {
	emit(l.logger, l.sanitizer, slog.LevelDebug, msg, args)
}

func (l *SlogLogger) Info(msg string, args ...any) {
	emit(l.logger, l.sanitizer, slog.LevelInfo, msg, args)
}

func (l *SlogLogger) Warn(msg string, args ...any) {
	emit(l.logger, l.sanitizer, slog.LevelWarn, msg, args)
}

func (l *SlogLogger) Error(msg string, args ...any) {
	emit(l.logger, l.sanitizer, slog.LevelError, msg, args)
}

// With 建立帶 context 的子 logger
// 子 logger 不擁有 writers，避免重複關閉
func (l *SlogLogger) With(args ...any) Logger {
	return &childLogger{
		logger:    l.logger.With(l.sanitizer.SanitizeArgs(args)...),
		sanitizer: l.sanitizer,
	}
}

// SetLevel changes the level of this logger and every child
func (l *SlogLogger) SetLevel(level Level) {
	l.level.Set(convertLevel(level))
}

// Level returns the current level
func (l *SlogLogger) Level() Level {
	switch l.level.Level() {
	case slog.LevelDebug:
		return LevelDebug
	case slog.LevelWarn:
		return LevelWarn
	case slog.LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// Slog exposes the underlying handler chain for libraries that accept *slog.Logger
func (l *SlogLogger) Slog() *slog.Logger {
	return l.logger
}

// Sync 強制 flush；lumberjack 每次寫入即落盤
func (l *SlogLogger) Sync() error {
	return nil
}

// Shutdown 優雅關閉，關閉所有 writers
func (l *SlogLogger) Shutdown() error {
	var lastErr error
	for _, w := range l.writers {
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// childLogger 子 logger，不擁有 writers
type childLogger struct {
	logger    *slog.Logger
	sanitizer *Sanitizer
}

func (c *childLogger) Debug(msg string, args ...any) {
	emit(c.logger, c.sanitizer, slog.LevelDebug, msg, args)
}

func (c *childLogger) Info(msg string, args ...any) {
	emit(c.logger, c.sanitizer, slog.LevelInfo, msg, args)
}

func (c *childLogger) Warn(msg string, args ...any) {
	emit(c.logger, c.sanitizer, slog.LevelWarn, msg, args)
}

func (c *childLogger) Error(msg string, args ...any) {
	emit(c.logger, c.sanitizer, slog.LevelError, msg, args)
}

func (c *childLogger) With(args ...any) Logger {
	return &childLogger{
		logger:    c.logger.With(c.sanitizer.SanitizeArgs(args)...),
		sanitizer: c.sanitizer,
	}
}

func (c *childLogger) Sync() error     { return nil }
func (c *childLogger) Shutdown() error { return nil }
