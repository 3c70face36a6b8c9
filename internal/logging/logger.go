// Package logging provides categorized structured logging for guardian.
// Each subsystem logs through a named child of one process-wide zap logger.
// The interactive widget logs only to a file, never to the terminal it draws on.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config resolution
	CategoryAnalyzer Category = "analyzer" // Attempt lifecycle
	CategoryAPI      Category = "api"      // Analysis service calls
	CategoryUI       Category = "ui"       // Widget events
	CategoryWatch    Category = "watch"    // File watching
)

// Options controls how Initialize builds the root logger.
type Options struct {
	Level  string // debug, info, warn, error (default info)
	Format string // json or console (default console)
	File   string // Log file path; empty means stderr

	// Quiet discards output unless File is set. Used while a full-screen UI
	// owns the terminal.
	Quiet bool
}

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	loggers = make(map[Category]*zap.Logger)
)

// Initialize replaces the root logger. It may be called again to reconfigure.
func Initialize(opts Options) error {
	logger, err := build(opts)
	if err != nil {
		return err
	}

	mu.Lock()
	old := root
	root = logger
	loggers = make(map[Category]*zap.Logger)
	mu.Unlock()

	_ = old.Sync()

	Get(CategoryBoot).Debug("logging initialized",
		zap.String("level", levelOrDefault(opts.Level)),
		zap.String("format", opts.Format),
		zap.String("file", opts.File))
	return nil
}

func build(opts Options) (*zap.Logger, error) {
	if opts.Quiet && opts.File == "" {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(levelOrDefault(opts.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var cfg zap.Config
	switch opts.Format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
	} else {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

// Get returns (or creates) the logger for the given category.
func Get(category Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}
	l := root.Named(string(category))
	loggers[category] = l
	return l
}

// Sync flushes buffered entries (call at shutdown).
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return root.Sync()
}

// SetForTest installs logger as the root and returns a restore func.
func SetForTest(logger *zap.Logger) func() {
	mu.Lock()
	prevRoot, prevLoggers := root, loggers
	root = logger
	loggers = make(map[Category]*zap.Logger)
	mu.Unlock()

	return func() {
		mu.Lock()
		root, loggers = prevRoot, prevLoggers
		mu.Unlock()
	}
}
