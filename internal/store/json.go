package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vthunder/chronos/internal/types"
)

// DataFilename is the file the JSON backend writes inside the data directory
const DataFilename = "time_server_data.json"

// JSONBackend keeps the snapshot in one indented JSON file
type JSONBackend struct {
	path string
}

// NewJSONBackend returns a backend writing DataFilename under dataDir
func NewJSONBackend(dataDir string) *JSONBackend {
	return &JSONBackend{path: filepath.Join(dataDir, DataFilename)}
}

func (b *JSONBackend) Name() string     { return BackendJSON }
func (b *JSONBackend) Location() string { return b.path }
func (b *JSONBackend) Close() error     { return nil }

// Load reads the data file. A missing file is an empty snapshot.
func (b *JSONBackend) Load() (Snapshot, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return emptySnapshot(), nil
	}
	if err != nil {
		return emptySnapshot(), fmt.Errorf("failed to read data file: %w", err)
	}

	snap := emptySnapshot()
	if err := json.Unmarshal(data, &snap); err != nil {
		return emptySnapshot(), fmt.Errorf("failed to parse data file: %w", err)
	}
	if snap.ActivityLogs == nil {
		snap.ActivityLogs = []types.ActivityLog{}
	}
	if snap.Reminders == nil {
		snap.Reminders = []types.Reminder{}
	}
	return snap, nil
}

// Save rewrites the data file through a temp file and rename so a crash
// mid-write leaves the previous contents intact.
func (b *JSONBackend) Save(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, DataFilename+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}
