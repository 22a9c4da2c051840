package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/aouyang1/popbadge/util"
)

const settingsFileName = "config.txt"

// SettingsStore persists the slide interval as a single decimal line of milliseconds
type SettingsStore struct {
	path string

	mu         sync.RWMutex
	intervalMs int
}

func NewSettingsStore(root string) *SettingsStore {
	return &SettingsStore{
		path:       filepath.Join(root, settingsFileName),
		intervalMs: util.DefaultIntervalMs,
	}
}

// Load reads the persisted interval. A missing, unreadable or out of range value
// falls back to the compiled-in default and is never an error.
func (s *SettingsStore) Load() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.intervalMs = util.DefaultIntervalMs

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("unable to read settings, using default", "path", s.path, "error", err, "default", util.DefaultIntervalMs)
		}
		return s.intervalMs
	}

	line, _, _ := strings.Cut(string(data), "\n")
	ms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || !util.ValidInterval(ms) {
		slog.Warn("invalid persisted interval, using default", "value", strings.TrimSpace(line), "default", util.DefaultIntervalMs)
		return s.intervalMs
	}

	s.intervalMs = ms
	return s.intervalMs
}

// Interval is the last loaded or saved value
func (s *SettingsStore) Interval() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.intervalMs
}

// Save writes ms; range checks belong to the caller
func (s *SettingsStore) Save(ms int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpPath := s.path + tempSuffix
	if err := os.WriteFile(tmpPath, []byte(strconv.Itoa(ms)+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to commit settings: %w", err)
	}

	s.intervalMs = ms
	return nil
}
