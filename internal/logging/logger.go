// Package logging builds the categorized zap loggers used by filereport.
// Every subsystem logs through a named child of one root logger so that
// categories can be silenced from the config file without touching code.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"filereport/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot   Category = "boot"   // Startup, config resolution
	CategoryScan   Category = "scan"   // Directory walks
	CategoryXML    Category = "xml"    // XML content inspection
	CategoryReport Category = "report" // Row building and CSV output
	CategoryStore  Category = "store"  // SQLite report index
)

// Logger hands out per-category child loggers.
type Logger struct {
	root *zap.Logger
	cfg  config.LoggingConfig
}

// New builds the root logger from cfg. verbose forces debug level.
func New(cfg config.LoggingConfig, verbose bool) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Format == "json" {
		zcfg.Encoding = "json"
	} else {
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.Sampling = nil

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zcfg.OutputPaths = append(zcfg.OutputPaths, cfg.File)
	}

	root, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &Logger{root: root, cfg: cfg}, nil
}

// Get returns the child logger for a category. Disabled categories get a
// no-op logger.
func (l *Logger) Get(category Category) *zap.Logger {
	if l == nil || l.root == nil {
		return zap.NewNop()
	}
	if !l.cfg.IsCategoryEnabled(string(category)) {
		return zap.NewNop()
	}
	return l.root.Named(string(category))
}

// Sync flushes buffered entries. Errors from syncing stderr are ignored.
func (l *Logger) Sync() {
	if l != nil && l.root != nil {
		_ = l.root.Sync()
	}
}

func parseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", s)
	}
}
