package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepClock(t *testing.T) {
	t.Helper()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := now
	now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	t.Cleanup(func() { now = prev })
}

func TestBackup_MissingFile(t *testing.T) {
	path, err := Backup(filepath.Join(t.TempDir(), "config.yaml"))

	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBackup_KeepsNewestCopies(t *testing.T) {
	// Given: a config file
	stepClock(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "version: 1\n")

	// When: backing it up more often than MaxBackups
	var made []string
	for i := 0; i < MaxBackups+2; i++ {
		b, err := Backup(path)
		require.NoError(t, err)
		made = append(made, b)
	}

	// Then: only the newest MaxBackups remain, newest first
	backups, err := ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, MaxBackups)
	assert.Equal(t, made[len(made)-1], backups[0])
	assert.NoFileExists(t, made[0])
}

func TestWriteWithBackup_AndRestore(t *testing.T) {
	// Given: an existing config
	stepClock(t)
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "index:\n  cache_size: 2\n")

	// When: overwriting it with a new config
	cfg := NewConfig()
	cfg.Index.CacheSize = 9
	backup, err := cfg.WriteWithBackup(path)
	require.NoError(t, err)
	require.NotEmpty(t, backup)

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.Index.CacheSize)

	// Then: restoring the backup brings the old value back
	require.NoError(t, Restore(path, backup))
	restored, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Index.CacheSize)
}

func TestRestore_MissingBackup(t *testing.T) {
	err := Restore(filepath.Join(t.TempDir(), "config.yaml"), "/nonexistent/backup")
	assert.Error(t, err)
}

func TestListBackups_MissingDir(t *testing.T) {
	backups, err := ListBackups(filepath.Join(t.TempDir(), "missing", "config.yaml"))
	require.NoError(t, err)
	assert.Empty(t, backups)
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, os.IsNotExist(statErr))
}
