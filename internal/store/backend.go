package store

import (
	"errors"
	"strings"

	"github.com/vthunder/chronos/internal/apperr"
	"github.com/vthunder/chronos/internal/types"
)

// Snapshot is the full persisted state: both collections, in insertion order
type Snapshot struct {
	ActivityLogs []types.ActivityLog `json:"activityLogs"`
	Reminders    []types.Reminder    `json:"reminders"`
}

func emptySnapshot() Snapshot {
	return Snapshot{
		ActivityLogs: []types.ActivityLog{},
		Reminders:    []types.Reminder{},
	}
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		ActivityLogs: make([]types.ActivityLog, len(s.ActivityLogs)),
		Reminders:    make([]types.Reminder, len(s.Reminders)),
	}
	for i := range s.ActivityLogs {
		out.ActivityLogs[i] = s.ActivityLogs[i].Clone()
	}
	copy(out.Reminders, s.Reminders)
	return out
}

// Backend persists a whole Snapshot at once. Load on a backend with nothing
// stored yet returns an empty snapshot and no error.
type Backend interface {
	Name() string
	Location() string
	Load() (Snapshot, error)
	Save(Snapshot) error
	Close() error
}

// Backend kinds
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// NewBackend opens the named backend kind inside dataDir
func NewBackend(kind, dataDir string) (Backend, error) {
	switch strings.ToLower(kind) {
	case "", BackendJSON:
		return NewJSONBackend(dataDir), nil
	case BackendSQLite:
		return OpenSQLiteBackend(dataDir)
	default:
		return nil, apperr.New(apperr.KindConfiguration,
			"unknown storage backend %q (expected %s or %s)", kind, BackendJSON, BackendSQLite)
	}
}

// NewBackendReadOnly opens the named backend kind inside dataDir for
// inspection. Nothing is created on disk and every Save fails.
func NewBackendReadOnly(kind, dataDir string) (Backend, error) {
	switch strings.ToLower(kind) {
	case "", BackendJSON:
		return readOnly{NewJSONBackend(dataDir)}, nil
	case BackendSQLite:
		return OpenSQLiteBackendReadOnly(dataDir), nil
	default:
		return nil, apperr.New(apperr.KindConfiguration,
			"unknown storage backend %q (expected %s or %s)", kind, BackendJSON, BackendSQLite)
	}
}

var errReadOnly = errors.New("backend is read-only")

type readOnly struct {
	Backend
}

func (readOnly) Save(Snapshot) error { return errReadOnly }

func persistError(b Backend, err error) error {
	return apperr.Wrap(apperr.KindStorage, err, "failed to save data to %s", b.Location())
}
