// Package logging sets up the process-wide slog handler. Library packages
// derive their loggers from slog.Default(), so Initialize must run before
// they are constructed.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel is the configured verbosity
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var slogLevels = map[LogLevel]slog.Level{
	DEBUG: slog.LevelDebug,
	INFO:  slog.LevelInfo,
	WARN:  slog.LevelWarn,
	ERROR: slog.LevelError,
}

// ParseLevel maps a config string onto a LogLevel. Unknown values fall back to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	}
	return INFO
}

// Config describes where log records go
type Config struct {
	Level      LogLevel
	OutputFile string // empty = console only
	MaxSize    int64  // rotate the file at this size, default 10MB
	MaxBackups int    // rotated files kept, default 3
	JSONFormat bool
	AddSource  bool
	Console    io.Writer // default os.Stderr; stdout is reserved for command output
}

func (c Config) withDefaults() Config {
	if c.MaxSize <= 0 {
		c.MaxSize = 10 << 20
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 3
	}
	if c.Console == nil {
		c.Console = os.Stderr
	}
	return c
}

// Logger is a slog.Logger writing to the console and optionally a file
type Logger struct {
	slog   *slog.Logger
	config Config
	mu     sync.Mutex
	file   *os.File
}

var (
	global   *Logger
	initOnce sync.Once
)

// Initialize builds the process logger once and installs it as the slog
// default
func Initialize(config Config) error {
	var err error
	initOnce.Do(func() {
		var l *Logger
		if l, err = NewLogger(config); err != nil {
			err = fmt.Errorf("failed to initialize logger: %w", err)
			return
		}
		global = l
		slog.SetDefault(l.slog)
	})
	return err
}

// NewLogger creates a logger. A configured log file is rotated first when it
// has reached MaxSize.
func NewLogger(config Config) (*Logger, error) {
	config = config.withDefaults()
	l := &Logger{config: config}

	out := config.Console
	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		if err := rotate(config.OutputFile, config.MaxSize, config.MaxBackups); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(config.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
		out = io.MultiWriter(config.Console, f)
	}

	opts := &slog.HandlerOptions{Level: slogLevels[config.Level], AddSource: config.AddSource}
	if config.JSONFormat {
		l.slog = slog.New(slog.NewJSONHandler(out, opts))
	} else {
		l.slog = slog.New(slog.NewTextHandler(out, opts))
	}
	return l, nil
}

// rotate shifts path.N to path.N+1, dropping the oldest, then moves path to
// path.1 once path has reached maxSize
func rotate(path string, maxSize int64, backups int) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	if info.Size() < maxSize {
		return nil
	}
	for i := backups - 1; i >= 1; i-- {
		older := fmt.Sprintf("%s.%d", path, i)
		if _, err := os.Stat(older); err == nil {
			_ = os.Rename(older, fmt.Sprintf("%s.%d", path, i+1))
		}
	}
	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	return nil
}

func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close closes the log file, if any. Safe to call twice.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Close closes the process logger's file
func Close() error {
	if global == nil {
		return nil
	}
	return global.Close()
}

// GetLogFilePath returns the process logger's file, empty when logging to
// the console only
func GetLogFilePath() string {
	if global == nil {
		return ""
	}
	return global.config.OutputFile
}

// DefaultConfig is the CLI setup: one timestamped file per command under
// dir, JSON records unless debugging
func DefaultConfig(dir string, debugMode bool) Config {
	cfg := Config{
		Level:      INFO,
		JSONFormat: !debugMode,
		AddSource:  debugMode,
	}
	if debugMode {
		cfg.Level = DEBUG
	}
	if dir != "" {
		name := "actorgraph_" + time.Now().Format("2006-01-02_15-04-05") + ".log"
		cfg.OutputFile = filepath.Join(dir, name)
	}
	return cfg.withDefaults()
}
