package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

// Options configures the package logger. The zero value logs at Info level
// to stderr, colourised when stderr is a terminal.
type Options struct {
	Level   LogLevel
	Writer  io.Writer
	NoColor bool
}

var (
	mu           sync.RWMutex
	currentLevel = LevelInfo
	levelVar     = new(slog.LevelVar)
	writer       io.Writer = os.Stderr
	logger                 = newLogger(os.Stderr, levelVar, false)
)

// Configure replaces the package logger. It is safe to call more than once;
// the CLI calls it after flags and config have been resolved.
func Configure(opts Options) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	mu.Lock()
	defer mu.Unlock()

	currentLevel = opts.Level
	levelVar.Set(opts.Level.slogLevel())
	writer = w
	logger = newLogger(w, levelVar, opts.NoColor)
}

func newLogger(w io.Writer, level slog.Leveler, noColor bool) *slog.Logger {
	if !noColor {
		noColor = !isTerminal(w)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ParseLevel converts a level name to a LogLevel. Matching is case-insensitive
// and "warning" is accepted as an alias for "warn".
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// Logger returns the underlying structured logger for callers that want
// key/value attributes instead of printf formatting.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func logf(level LogLevel, format string, args ...interface{}) {
	l := Logger()
	sl := level.slogLevel()
	if !l.Enabled(context.Background(), sl) {
		return
	}
	l.Log(context.Background(), sl, fmt.Sprintf(format, args...))
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	logf(LevelDebug, format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	logf(LevelInfo, format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	logf(LevelWarn, format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	logf(LevelError, format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	logf(LevelError, "[FATAL] "+format, args...)
	os.Exit(1)
}

// Printf writes a message that should always print, regardless of level
func Printf(format string, args ...interface{}) {
	mu.RLock()
	w := writer
	mu.RUnlock()
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(w, format, args...)
}

// Println writes a message that should always print, regardless of level
func Println(args ...interface{}) {
	mu.RLock()
	w := writer
	mu.RUnlock()
	fmt.Fprintln(w, args...)
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
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
		return fmt.Sprintf("unknown(%d)", l)
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
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
