package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// LogConfig controls where log lines go and how verbose they are.
type LogConfig struct {
	// LogFile is the rotating log file path. Empty disables file logging.
	LogFile string

	// DebugLevel is the level every subsystem logger starts at: trace,
	// debug, info, warn, error or critical. Empty means info.
	DebugLevel string

	// MaxLogFiles bounds how many rotated files are kept. Zero keeps the
	// default of 3.
	MaxLogFiles int
}

// LogBackend tees log output to stdout and an optional rotating file and
// hands out per-subsystem loggers sharing that sink.
type LogBackend struct {
	mu      sync.Mutex
	backend *slog.Backend
	rotator *rotator.Rotator
	level   slog.Level
	loggers map[string]slog.Logger
}

// logWriter duplicates writes to stdout and the rotating file when file
// logging is enabled.
type logWriter struct {
	r *rotator.Rotator
}

func (w logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if w.r != nil {
		return w.r.Write(p)
	}
	return len(p), nil
}

// NewLogBackend creates the shared logging backend. The log file's parent
// directory is created when needed.
func NewLogBackend(cfg LogConfig) (*LogBackend, error) {
	level := slog.LevelInfo
	if cfg.DebugLevel != "" {
		var ok bool
		level, ok = slog.LevelFromString(cfg.DebugLevel)
		if !ok {
			return nil, fmt.Errorf("invalid debug level %q", cfg.DebugLevel)
		}
	}

	var r *rotator.Rotator
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %v", err)
		}
		maxFiles := cfg.MaxLogFiles
		if maxFiles <= 0 {
			maxFiles = 3
		}
		var err error
		r, err = rotator.New(cfg.LogFile, 32*1024, false, maxFiles)
		if err != nil {
			return nil, fmt.Errorf("failed to create log rotator: %v", err)
		}
	}

	return &LogBackend{
		backend: slog.NewBackend(logWriter{r: r}),
		rotator: r,
		level:   level,
		loggers: make(map[string]slog.Logger),
	}, nil
}

// Logger returns the logger for a subsystem tag, creating it on first use.
func (b *LogBackend) Logger(subsystem string) slog.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()

	if l, ok := b.loggers[subsystem]; ok {
		return l
	}
	l := b.backend.Logger(subsystem)
	l.SetLevel(b.level)
	b.loggers[subsystem] = l
	return l
}

// Close flushes and closes the rotating log file.
func (b *LogBackend) Close() error {
	if b.rotator != nil {
		return b.rotator.Close()
	}
	return nil
}
