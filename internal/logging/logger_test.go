package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsBothModes(t *testing.T) {
	t.Parallel()

	dev, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, dev)

	prod, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, prod)
}

func TestNewRunLoggerWritesTimestampedFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "logs")
	now := time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC)

	logger, path, err := NewRunLogger(dir, false, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "logs-2024-05-01_12-30-45.txt"), path)

	logger.Info("harvest started")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "harvest started")
}

func TestNewRunLoggerSeparateFilesPerInvocation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, first, err := NewRunLogger(dir, true, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, second, err := NewRunLogger(dir, true, time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
