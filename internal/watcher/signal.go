package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Signal is a marker file whose modification time is the last time the
// indexes it covers changed.
type Signal struct {
	path string
	now  func() time.Time
}

// NewSignal creates a signal backed by the file at path.
func NewSignal(path string) *Signal {
	return &Signal{path: path, now: time.Now}
}

// Path returns the marker file path.
func (s *Signal) Path() string {
	return s.path
}

// Touch records a change now.
func (s *Signal) Touch() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create signal directory: %w", err)
	}
	now := s.now()
	if err := os.WriteFile(s.path, []byte(strconv.FormatInt(now.UnixNano(), 10)), 0644); err != nil {
		return fmt.Errorf("failed to write signal: %w", err)
	}
	if err := os.Chtimes(s.path, now, now); err != nil {
		return fmt.Errorf("failed to stamp signal: %w", err)
	}
	return nil
}

// Changed returns the time of the last change, or the zero time if the
// marker does not exist yet.
func (s *Signal) Changed() (time.Time, error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat signal: %w", err)
	}
	return info.ModTime(), nil
}
