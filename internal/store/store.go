// Package store holds activity logs and reminders in memory and persists the
// whole collection through a Backend on every mutation.
package store

import (
	"errors"
	"log"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/vthunder/chronos/internal/apperr"
	"github.com/vthunder/chronos/internal/observability"
	"github.com/vthunder/chronos/internal/timemath"
	"github.com/vthunder/chronos/internal/types"
)

// Store is the single owner of the persisted records. Mutations hold the
// write lock across the backend save so writers never interleave.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	data    Snapshot
	now     func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithNow replaces the wall clock used for reminder windows (tests)
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open creates dataDir if needed, opens the backend kind inside it and loads it
func Open(dataDir, backendKind string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, err, "failed to create data directory %s", dataDir)
	}
	b, err := NewBackend(backendKind, dataDir)
	if err != nil {
		return nil, err
	}
	return New(b, opts...), nil
}

// OpenReadOnly loads the backend in dataDir without creating the directory or
// any store file. Mutations on the returned store fail with a storage error.
func OpenReadOnly(dataDir, backendKind string, opts ...Option) (*Store, error) {
	b, err := NewBackendReadOnly(backendKind, dataDir)
	if err != nil {
		return nil, err
	}
	return New(b, opts...), nil
}

// New loads a store from b. Unreadable or corrupt contents are logged and the
// store starts empty.
func New(b Backend, opts ...Option) *Store {
	s := &Store{backend: b, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	snap, err := b.Load()
	if err != nil {
		log.Printf("[store] Could not load %s, starting empty: %v", b.Location(), err)
		snap = emptySnapshot()
	}
	s.data = snap
	s.recordSizes()
	log.Printf("[store] Loaded %d activity logs, %d reminders from %s",
		len(snap.ActivityLogs), len(snap.Reminders), b.Location())
	return s
}

// Backend returns the persistence backend
func (s *Store) Backend() Backend {
	return s.backend
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// persistLocked saves the current data, calling undo and returning a storage
// error if the backend fails. Caller holds s.mu.
func (s *Store) persistLocked(undo func()) error {
	if err := s.backend.Save(s.data.clone()); err != nil {
		undo()
		observability.RecordPersistFailure(s.backend.Name())
		log.Printf("[store] Save to %s failed, change rolled back: %v", s.backend.Location(), err)
		return persistError(s.backend, err)
	}
	s.recordSizes()
	return nil
}

func (s *Store) recordSizes() {
	observability.SetStoreRecords("activity_logs", len(s.data.ActivityLogs))
	observability.SetStoreRecords("reminders", len(s.data.Reminders))
}

// ErrDuplicateID is wrapped by Add* when a record with the same id exists
var ErrDuplicateID = errors.New("duplicate id")

// AddActivityLog appends a log and persists. A log whose id is already taken
// is rejected with an error wrapping ErrDuplicateID.
func (s *Store) AddActivityLog(l types.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.ActivityLogs {
		if s.data.ActivityLogs[i].ActivityID == l.ActivityID {
			return apperr.Wrap(apperr.KindInvalidState, ErrDuplicateID, "activity log with ID %s already exists", l.ActivityID)
		}
	}
	n := len(s.data.ActivityLogs)
	s.data.ActivityLogs = append(s.data.ActivityLogs, l.Clone())
	return s.persistLocked(func() { s.data.ActivityLogs = s.data.ActivityLogs[:n] })
}

// AddReminder appends a reminder and persists. Duplicate ids are rejected
// like AddActivityLog.
func (s *Store) AddReminder(r types.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Reminders {
		if s.data.Reminders[i].ReminderID == r.ReminderID {
			return apperr.Wrap(apperr.KindInvalidState, ErrDuplicateID, "reminder with ID %s already exists", r.ReminderID)
		}
	}
	n := len(s.data.Reminders)
	s.data.Reminders = append(s.data.Reminders, r)
	return s.persistLocked(func() { s.data.Reminders = s.data.Reminders[:n] })
}

// ActivityLogChanges lists fields to overwrite. Nil fields are left alone.
type ActivityLogChanges struct {
	ActivityType    *string
	TaskScope       *types.TaskScope
	Description     *string
	Tags            []string
	EndTime         *string
	Duration        *string
	DurationSeconds *int64
	Result          *string
	Notes           *string
	Status          *types.ActivityStatus
}

func (c ActivityLogChanges) apply(l *types.ActivityLog) {
	if c.ActivityType != nil {
		l.ActivityType = *c.ActivityType
	}
	if c.TaskScope != nil {
		l.TaskScope = *c.TaskScope
	}
	if c.Description != nil {
		l.Description = *c.Description
	}
	if c.Tags != nil {
		l.Tags = append([]string(nil), c.Tags...)
	}
	if c.EndTime != nil {
		l.EndTime = *c.EndTime
	}
	if c.Duration != nil {
		l.Duration = *c.Duration
	}
	if c.DurationSeconds != nil {
		d := *c.DurationSeconds
		l.DurationSeconds = &d
	}
	if c.Result != nil {
		l.Result = *c.Result
	}
	if c.Notes != nil {
		l.Notes = *c.Notes
	}
	if c.Status != nil {
		l.Status = *c.Status
	}
}

// UpdateActivityLog merges changes into the log with id and persists.
// It reports false, with no error, when no such log exists.
func (s *Store) UpdateActivityLog(id string, changes ActivityLogChanges) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.ActivityLogs {
		if s.data.ActivityLogs[i].ActivityID != id {
			continue
		}
		prev := s.data.ActivityLogs[i].Clone()
		changes.apply(&s.data.ActivityLogs[i])
		return true, s.persistLocked(func() { s.data.ActivityLogs[i] = prev })
	}
	return false, nil
}

// ModifyActivityLog runs decide on a copy of the log with id and applies the
// changes it returns, all under the write lock, so the decision and the write
// cannot interleave with another mutation. An error from decide leaves the log
// untouched and is returned as is. found is false when no such log exists.
func (s *Store) ModifyActivityLog(id string, decide func(types.ActivityLog) (ActivityLogChanges, error)) (updated types.ActivityLog, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.ActivityLogs {
		if s.data.ActivityLogs[i].ActivityID != id {
			continue
		}
		prev := s.data.ActivityLogs[i].Clone()
		changes, err := decide(prev.Clone())
		if err != nil {
			return types.ActivityLog{}, true, err
		}
		changes.apply(&s.data.ActivityLogs[i])
		if err := s.persistLocked(func() { s.data.ActivityLogs[i] = prev }); err != nil {
			return types.ActivityLog{}, true, err
		}
		return s.data.ActivityLogs[i].Clone(), true, nil
	}
	return types.ActivityLog{}, false, nil
}

// ReminderChanges lists reminder fields to overwrite. Nil fields are left alone.
type ReminderChanges struct {
	ReminderTime  *string
	Message       *string
	RelatedTaskID *string
	Status        *types.ReminderStatus
}

func (c ReminderChanges) apply(r *types.Reminder) {
	if c.ReminderTime != nil {
		r.ReminderTime = *c.ReminderTime
	}
	if c.Message != nil {
		r.Message = *c.Message
	}
	if c.RelatedTaskID != nil {
		r.RelatedTaskID = *c.RelatedTaskID
	}
	if c.Status != nil {
		r.Status = *c.Status
	}
}

// UpdateReminder merges changes into the reminder with id and persists.
// It reports false, with no error, when no such reminder exists.
func (s *Store) UpdateReminder(id string, changes ReminderChanges) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Reminders {
		if s.data.Reminders[i].ReminderID != id {
			continue
		}
		prev := s.data.Reminders[i]
		changes.apply(&s.data.Reminders[i])
		return true, s.persistLocked(func() { s.data.Reminders[i] = prev })
	}
	return false, nil
}

// GetActivityLog returns a copy of the log with id
func (s *Store) GetActivityLog(id string) (types.ActivityLog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.ActivityLogs {
		if s.data.ActivityLogs[i].ActivityID == id {
			return s.data.ActivityLogs[i].Clone(), true
		}
	}
	return types.ActivityLog{}, false
}

// Filter narrows GetActivityLogs. Zero values match everything; all set
// fields must match.
type Filter struct {
	ActivityType string
	TaskScope    types.TaskScope
	Start        *time.Time // inclusive, compared against startTime
	End          *time.Time // inclusive
	Limit        int        // 0 means no limit
}

// GetActivityLogs returns the logs matching f, most recent startTime first,
// capped at f.Limit.
func (s *Store) GetActivityLogs(f Filter) []types.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		log   types.ActivityLog
		start time.Time
	}
	var matched []entry
	for _, l := range s.data.ActivityLogs {
		if f.ActivityType != "" && l.ActivityType != f.ActivityType {
			continue
		}
		if f.TaskScope != "" && l.TaskScope != f.TaskScope {
			continue
		}
		start, err := timemath.ParseISO(l.StartTime)
		if err != nil && (f.Start != nil || f.End != nil) {
			continue
		}
		if f.Start != nil && start.Before(*f.Start) {
			continue
		}
		if f.End != nil && start.After(*f.End) {
			continue
		}
		matched = append(matched, entry{log: l.Clone(), start: start})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].start.After(matched[j].start)
	})
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	result := make([]types.ActivityLog, len(matched))
	for i, e := range matched {
		result[i] = e.log
	}
	return result
}

// GetReminders returns pending reminders due at or before now+withinMinutes,
// in insertion order. Reminders already past due are included.
func (s *Store) GetReminders(withinMinutes int) []types.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unbounded, cutoff := windowCutoff(s.now(), withinMinutes)
	result := []types.Reminder{}
	for _, r := range s.data.Reminders {
		if r.Status != types.ReminderPending {
			continue
		}
		due, err := timemath.ParseISO(r.ReminderTime)
		if err != nil {
			log.Printf("[store] Skipping reminder %s with unreadable time %q", r.ReminderID, r.ReminderTime)
			continue
		}
		if unbounded || !due.After(cutoff) {
			result = append(result, r)
		}
	}
	return result
}

// maxWindowMinutes is the largest window expressible as a time.Duration
const maxWindowMinutes = math.MaxInt64 / int64(time.Minute)

// windowCutoff returns now+minutes. Windows beyond what a Duration can hold
// are unbounded forwards and clamped backwards.
func windowCutoff(now time.Time, minutes int) (unbounded bool, cutoff time.Time) {
	m := int64(minutes)
	switch {
	case m > maxWindowMinutes:
		return true, time.Time{}
	case m < -maxWindowMinutes:
		m = -maxWindowMinutes
	}
	return false, now.Add(time.Duration(m) * time.Minute)
}

// Reminders returns every reminder in insertion order
func (s *Store) Reminders() []types.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]types.Reminder, len(s.data.Reminders))
	copy(result, s.data.Reminders)
	return result
}

// Stats summarises the store contents
type Stats struct {
	Backend          string `json:"backend"`
	Location         string `json:"location"`
	ActivityLogs     int    `json:"activity_logs"`
	OngoingLogs      int    `json:"ongoing_logs"`
	Reminders        int    `json:"reminders"`
	PendingReminders int    `json:"pending_reminders"`
}

// Stats counts records by collection and status
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Backend:      s.backend.Name(),
		Location:     s.backend.Location(),
		ActivityLogs: len(s.data.ActivityLogs),
		Reminders:    len(s.data.Reminders),
	}
	for _, l := range s.data.ActivityLogs {
		if !l.Completed() {
			st.OngoingLogs++
		}
	}
	for _, r := range s.data.Reminders {
		if r.Status == types.ReminderPending {
			st.PendingReminders++
		}
	}
	return st
}
