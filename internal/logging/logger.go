// Package logging provides structured logging for the acquisition core,
// wrapping zerolog with file + console output and component-scoped child
// loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	LogDir  string // directory for the log file, named by the date New was called
	Level   string // "debug", "info", "warn", "error"
	Console bool   // also write to stdout
}

// DefaultConfig returns sensible defaults rooted at ~/.thorlearn/logs.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		LogDir:  filepath.Join(home, ".thorlearn", "logs"),
		Level:   "info",
		Console: true,
	}
}

// Logger wraps a zerolog.Logger and the open log file it writes to.
type Logger struct {
	zlog zerolog.Logger
	file *os.File
}

// New creates a root Logger from cfg, creating the log directory and the
// day-stamped log file if needed.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	logPath := filepath.Join(cfg.LogDir, fmt.Sprintf("thorlearn_%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	var w io.Writer = file
	if cfg.Console {
		w = io.MultiWriter(file, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	zlog := zerolog.New(w).With().Timestamp().Str("app", "thorlearn").Logger()

	return &Logger{zlog: zlog, file: file}, nil
}

// NewNop returns a Logger that discards everything, for tests.
func NewNop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// With returns a child Logger scoped to the given component name.
func (l *Logger) With(component string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", component).Logger(), file: l.file}
}

func (l *Logger) Debug(msg string, kv ...any) { l.event(l.zlog.Debug(), msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.event(l.zlog.Info(), msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.event(l.zlog.Warn(), msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.event(l.zlog.Error(), msg, kv) }

// event applies alternating key/value pairs to a zerolog.Event before
// sending it. Pairs with a non-string key are skipped, and a trailing
// unpaired element is ignored.
func (l *Logger) event(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

// Close closes the underlying log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
