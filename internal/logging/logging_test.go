package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()

	assert.Equal(t, "scout.log", filepath.Base(path))
	assert.Contains(t, path, filepath.Join(".scout", "logs"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "warn", cfg.Level)
	assert.Empty(t, cfg.FilePath)
	assert.True(t, cfg.WriteToStderr)

	debug := DebugConfig()
	assert.Equal(t, "debug", debug.Level)
	assert.Equal(t, DefaultLogPath(), debug.FilePath)
}

func TestSetup_WritesJSONToFileAndStderr(t *testing.T) {
	// Given: a file logger that also writes to a captured stderr
	path := filepath.Join(t.TempDir(), "logs", "scout.log")
	var stderr bytes.Buffer
	logger, cleanup, err := setup(Config{Level: "info", FilePath: path, WriteToStderr: true}, &stderr)
	require.NoError(t, err)

	// When: logging below and at the level
	logger.Debug("hidden")
	logger.Info("index_rebuilt", slog.String("index", "articles"))
	cleanup()

	// Then: one JSON line reaches both outputs
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, out := range []string{string(data), stderr.String()} {
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 1)
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		assert.Equal(t, "index_rebuilt", entry["msg"])
		assert.Equal(t, "articles", entry["index"])
	}
}

func TestSetup_WithoutFileFallsBackToStderr(t *testing.T) {
	var stderr bytes.Buffer
	logger, cleanup, err := setup(Config{Level: "warn"}, &stderr)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("quiet")
	logger.Warn("loud")

	assert.NotContains(t, stderr.String(), "quiet")
	assert.Contains(t, stderr.String(), "loud")
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromString(tt.in))
		})
	}
}

func TestFindLogFile(t *testing.T) {
	_, err := FindLogFile("/nonexistent/scout.log")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "explicit.log")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	found, err := FindLogFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestRotatingWriter_Rotation(t *testing.T) {
	// Given: a writer with a 1MB limit and two kept files
	path := filepath.Join(t.TempDir(), "scout.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer w.Close()

	// When: writing four chunks just over half the limit each
	chunk := bytes.Repeat([]byte("x"), 600*1024)
	for i := 0; i < 4; i++ {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}

	// Then: the current file plus at most two rotated files exist
	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "scout.log"), 1, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.NoError(t, w.Sync())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scout.log")
	w, err := NewRotatingWriter(path, 10, 2)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = fmt.Fprintf(w, "writer %d line %d\n", i, j)
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 400)
}
