// Package logging provides zap logger helpers.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger configured for development or production.
func New(development bool) (*zap.Logger, error) {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return logger, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = false
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}

// NewRunLogger builds a logger that writes to stderr and, in addition,
// appends to a timestamped run log inside dir. Every harvest
// invocation gets its own file. Returns the logger and the log path.
func NewRunLogger(dir string, development bool, now time.Time) (*zap.Logger, string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, "", fmt.Errorf("create logs dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("logs-%s.txt", now.Format("2006-01-02_15-04-05")))

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.OutputPaths = []string{"stderr", path}
	cfg.ErrorOutputPaths = []string{"stderr", path}

	logger, err := cfg.Build()
	if err != nil {
		return nil, "", fmt.Errorf("build run logger: %w", err)
	}
	return logger, path, nil
}
