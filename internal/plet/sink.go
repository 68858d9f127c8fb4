package plet

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// CSVSink persists harvested payloads as canonical CSV files under a
// single flat directory. Incoming payloads are re-parsed with a
// permissive reader and re-emitted through encoding/csv's writer, so
// output files share one quoting and line-ending convention regardless
// of upstream formatting quirks.
type CSVSink struct {
	root   string
	logger *zap.Logger
}

// NewCSVSink returns a sink rooted at dir, creating it if missing.
func NewCSVSink(root string, logger *zap.Logger) (*CSVSink, error) {
	if root == "" {
		return nil, fmt.Errorf("sink root is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create sink dir %s: %w", root, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVSink{root: root, logger: logger}, nil
}

// Root returns the sink's output directory.
func (s *CSVSink) Root() string { return s.root }

// Path maps an output name to its destination inside the sink root.
func (s *CSVSink) Path(name string) string {
	return filepath.Join(s.root, name)
}

// Write normalizes payload and writes it to Path(name).
func (s *CSVSink) Write(ctx context.Context, name string, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	target := s.Path(name)

	rows, err := ReadRows(payload)
	if err != nil {
		return "", fmt.Errorf("parse payload for %s: %w", name, err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write rows to %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", target, err)
	}
	s.logger.Debug("payload written", zap.String("path", target), zap.Int("rows", len(rows)))
	return target, nil
}
