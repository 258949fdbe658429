package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Leveled logger used across the tutorial service.
// - Debugf/Infof/Warnf/Errorf/Fatalf for printf-style messages
// - Debug/Info/Warn/Error accept slog key/value pairs
// - Init(level) switches the level at runtime

// LevelFatal sits above slog.LevelError so that Init("fatal") silences everything else.
const LevelFatal = slog.Level(12)

var (
	mu     sync.RWMutex
	level  = new(slog.LevelVar)
	logger = newLogger(os.Stdout)
)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lv, ok := a.Value.Any().(slog.Level); ok && lv == LevelFatal {
					a.Value = slog.StringValue("FATAL")
				}
			}
			return a
		},
	}))
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown values fall back to info.
func Init(l string) {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	case "fatal":
		level.Set(LevelFatal)
	default:
		level.Set(slog.LevelInfo)
	}
}

// SetOutput redirects log output; tests use it to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

// Logger exposes the underlying slog logger for libraries that want one.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func log(l slog.Level, msg string, args ...any) {
	Logger().Log(context.Background(), l, msg, args...)
}

func Debugf(format string, v ...interface{}) { log(slog.LevelDebug, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...interface{})  { log(slog.LevelInfo, fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...interface{})  { log(slog.LevelWarn, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...interface{}) { log(slog.LevelError, fmt.Sprintf(format, v...)) }

// Fatalf logs regardless of level and exits the process.
func Fatalf(format string, v ...interface{}) {
	log(LevelFatal, fmt.Sprintf(format, v...))
	os.Exit(1)
}

func Debug(msg string, args ...any) { log(slog.LevelDebug, msg, args...) }
func Info(msg string, args ...any)  { log(slog.LevelInfo, msg, args...) }
func Warn(msg string, args ...any)  { log(slog.LevelWarn, msg, args...) }
func Error(msg string, args ...any) { log(slog.LevelError, msg, args...) }

// LevelString returns the current level as text.
func LevelString() string {
	switch l := level.Level(); {
	case l >= LevelFatal:
		return "fatal"
	case l >= slog.LevelError:
		return "error"
	case l >= slog.LevelWarn:
		return "warn"
	case l >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
