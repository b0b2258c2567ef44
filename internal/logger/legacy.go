package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// LegacyLogger 純文字 logger（不經 slog，用於回退）
// 以 FILEGRAPH_USE_LEGACY_LOGGER=true 啟用
type LegacyLogger struct {
	mu     *sync.Mutex
	level  *Level
	out    io.Writer
	fields string
}

// NewLegacyLogger 建立 legacy logger，寫入 out（nil 時為 stderr）
func NewLegacyLogger(out io.Writer) *LegacyLogger {
	if out == nil {
		out = os.Stderr
	}
	level := LevelInfo
	return &LegacyLogger{mu: &sync.Mutex{}, level: &level, out: out}
}

// SetLevel 設定日誌級別
func (l *LegacyLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.level = level
}

// Level 回傳目前日誌級別
func (l *LegacyLogger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.level
}

func (l *LegacyLogger) write(level Level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < *l.level {
		return
	}
	fmt.Fprintf(l.out, "[%s] %s%s%s\n", strings.ToUpper(level.String()), msg, l.fields, formatPairs(args))
}

func formatPairs(args []any) string {
	var b strings.Builder
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	return b.String()
}

func (l *LegacyLogger) Debug(msg string, args ...any) { l.write(LevelDebug, msg, args) }
func (l *LegacyLogger) Info(msg string, args ...any)  { l.write(LevelInfo, msg, args) }
func (l *LegacyLogger) Warn(msg string, args ...any)  { l.write(LevelWarn, msg, args) }
func (l *LegacyLogger) Error(msg string, args ...any) { l.write(LevelError, msg, args) }

// With 回傳共用輸出與級別、附加欄位的子 logger
func (l *LegacyLogger) With(args ...any) Logger {
	return &LegacyLogger{mu: l.mu, level: l.level, out: l.out, fields: l.fields + formatPairs(args)}
}

func (l *LegacyLogger) Sync() error     { return nil }
func (l *LegacyLogger) Shutdown() error { return nil }
