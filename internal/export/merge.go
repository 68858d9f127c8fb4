// Package export merges harvested CSV files into one canonical
// artifact and ships it to a blob store.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/marine-obs/plet-harvester/internal/plet"
	"github.com/marine-obs/plet-harvester/internal/storage"
)

var (
	datasetPattern = regexp.MustCompile(`Dataset_(.+?)_Region_`)
	regionPattern  = regexp.MustCompile(`_Region_(.+?)_START_`)
)

// Merged is the concatenation of many harvested files with their
// dataset and region identifiers recovered from the filenames.
type Merged struct {
	Header []string
	Rows   [][]string
	Files  int

	sources []string
}

// Merge loads every .csv file in dir and concatenates the rows.
// Files whose payload is an HTML error page (first byte `<`) are
// skipped with a warning, as are files that fail to parse. Columns are
// aligned by header name across files; dataset_name and region_id lead
// every row and source_file trails it.
func Merge(dir string, logger *zap.Logger) (*Merged, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read harvest dir: %w", err)
	}

	m := &Merged{Header: []string{"dataset_name", "region_id"}}
	colIndex := map[string]int{"dataset_name": 0, "region_id": 1}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		if err := m.appendFile(dir, entry.Name(), colIndex, logger); err != nil {
			logger.Warn("skipping file", zap.String("file", entry.Name()), zap.Error(err))
		}
	}

	if m.Files == 0 {
		return nil, fmt.Errorf("no valid CSV files found in %s", dir)
	}
	// Pad earlier rows out to the final column count, then attach the
	// originating filename as the trailing column.
	for i, row := range m.Rows {
		for len(row) < len(m.Header) {
			row = append(row, "")
		}
		m.Rows[i] = append(row, m.sources[i])
	}
	m.sources = nil
	m.Header = append(m.Header, "source_file")
	logger.Info("merged harvest files", zap.Int("files", m.Files), zap.Int("rows", len(m.Rows)))
	return m, nil
}

func (m *Merged) appendFile(dir, name string, colIndex map[string]int, logger *zap.Logger) error {
	payload, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty file")
	}
	if trimmed[0] == '<' {
		logger.Warn("skipping HTML/error file", zap.String("file", name))
		return nil
	}

	rows, err := plet.ReadRows(payload)
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) < 2 {
		return fmt.Errorf("no data rows")
	}

	dataset := "unknown_dataset"
	if match := datasetPattern.FindStringSubmatch(name); match != nil {
		dataset = match[1]
	}
	region := "unknown_region"
	if match := regionPattern.FindStringSubmatch(name); match != nil {
		region = match[1]
	}

	// Map this file's columns into the merged header by name.
	fileCols := make([]int, len(rows[0]))
	for i, col := range rows[0] {
		col = strings.TrimSpace(col)
		idx, ok := colIndex[col]
		if !ok {
			idx = len(m.Header)
			colIndex[col] = idx
			m.Header = append(m.Header, col)
		}
		fileCols[i] = idx
	}

	for _, record := range rows[1:] {
		row := make([]string, len(m.Header))
		row[0] = dataset
		row[1] = region
		for i, value := range record {
			if i >= len(fileCols) {
				break
			}
			row[fileCols[i]] = value
		}
		m.Rows = append(m.Rows, row)
		m.sources = append(m.sources, name)
	}
	m.Files++
	return nil
}

// WriteCSV writes the merged rows to path in canonical CSV form.
func (m *Merged) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(m.Header); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(m.Rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Upload ships a merged artifact through the configured blob store and
// returns its URI.
func Upload(ctx context.Context, store storage.BlobStore, localPath, objectName string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close() //nolint:errcheck

	uri, err := store.PutObject(ctx, objectName, "text/csv", f)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	return uri, nil
}
