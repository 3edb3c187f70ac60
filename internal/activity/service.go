// Package activity implements the activity-log and reminder lifecycle on top
// of the record store.
package activity

import (
	"errors"
	"strings"
	"time"

	"github.com/vthunder/chronos/internal/apperr"
	"github.com/vthunder/chronos/internal/store"
	"github.com/vthunder/chronos/internal/timemath"
	"github.com/vthunder/chronos/internal/types"
)

// IDSource hands out record identifiers
type IDSource interface {
	Generate() string
}

// Service owns the activity and reminder business rules
type Service struct {
	store *store.Store
	ids   IDSource
	now   func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithNow replaces the wall clock (tests)
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the service to its store and id source
func NewService(st *store.Store, ids IDSource, opts ...Option) *Service {
	s := &Service{store: st, ids: ids, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) stamp() string {
	return timemath.FormatUTC(s.now())
}

// maxIDAttempts bounds id regeneration when a generated id is already taken
const maxIDAttempts = 5

// insertWithFreshID calls add with newly generated ids until one is not taken
func (s *Service) insertWithFreshID(add func(id string) error) (string, error) {
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.ids.Generate()
		if err = add(id); !errors.Is(err, store.ErrDuplicateID) {
			return id, err
		}
	}
	return "", apperr.Wrap(apperr.KindOperationFailed, err, "could not generate an unused ID after %d attempts", maxIDAttempts)
}

// StartActivityLog opens a new log stamped with the current UTC time
func (s *Service) StartActivityLog(activityType string, scope types.TaskScope, description string, tags []string) (types.ActivityLog, error) {
	l := types.ActivityLog{
		ActivityType: activityType,
		TaskScope:    scope,
		Description:  description,
		StartTime:    s.stamp(),
		Status:       types.ActivityStarted,
	}
	if tags != nil {
		l.Tags = append([]string(nil), tags...)
	}
	id, err := s.insertWithFreshID(func(id string) error {
		l.ActivityID = id
		return s.store.AddActivityLog(l)
	})
	if err != nil {
		return types.ActivityLog{}, err
	}
	l.ActivityID = id
	return l, nil
}

func (s *Service) lookup(id string) (types.ActivityLog, error) {
	l, ok := s.store.GetActivityLog(id)
	if !ok {
		return types.ActivityLog{}, apperr.New(apperr.KindNotFound, "Activity log with ID %s not found", id)
	}
	return l, nil
}

func elapsedSeconds(from, to time.Time) int64 {
	return int64(to.Sub(from) / time.Second)
}

// EndActivityLog completes a started log. result and notes are only written
// when non-nil. The status check and the write happen atomically, so a log
// is completed at most once even when calls overlap.
func (s *Service) EndActivityLog(id string, result, notes *string) (types.ActivityLog, error) {
	end := s.now().Truncate(time.Second)

	updated, found, err := s.store.ModifyActivityLog(id, func(l types.ActivityLog) (store.ActivityLogChanges, error) {
		if l.Completed() {
			return store.ActivityLogChanges{}, apperr.New(apperr.KindInvalidState, "Activity log with ID %s is already completed", id)
		}
		start, err := timemath.ParseISO(l.StartTime)
		if err != nil {
			return store.ActivityLogChanges{}, apperr.Wrap(apperr.KindOperationFailed, err, "Activity log %s has an unreadable start time", id)
		}

		endTime := timemath.FormatUTC(end)
		secs := elapsedSeconds(start, end)
		duration := timemath.FormatDuration(secs)
		status := types.ActivityCompleted
		return store.ActivityLogChanges{
			EndTime:         &endTime,
			Duration:        &duration,
			DurationSeconds: &secs,
			Result:          result,
			Notes:           notes,
			Status:          &status,
		}, nil
	})
	if err != nil {
		return types.ActivityLog{}, err
	}
	if !found {
		return types.ActivityLog{}, apperr.New(apperr.KindNotFound, "Activity log with ID %s not found", id)
	}
	return updated, nil
}

func (s *Service) applyChanges(id string, changes store.ActivityLogChanges) (types.ActivityLog, error) {
	found, err := s.store.UpdateActivityLog(id, changes)
	if err != nil {
		return types.ActivityLog{}, err
	}
	if !found {
		return types.ActivityLog{}, apperr.New(apperr.KindNotFound, "Activity log with ID %s not found", id)
	}
	return s.lookup(id)
}

// Elapsed statuses reported by GetElapsedTime
const (
	ElapsedCompleted = "completed"
	ElapsedOngoing   = "ongoing"
)

// ElapsedTime summarises how long an activity has run
type ElapsedTime struct {
	ActivityID     string `json:"activityId"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime,omitempty"`
	CurrentTime    string `json:"currentTime,omitempty"`
	ElapsedTime    string `json:"elapsedTime"`
	ElapsedSeconds int64  `json:"elapsedSeconds"`
	Status         string `json:"status"`
}

// GetElapsedTime measures a completed log from start to end, an ongoing one
// from start to now.
func (s *Service) GetElapsedTime(id string) (ElapsedTime, error) {
	l, err := s.lookup(id)
	if err != nil {
		return ElapsedTime{}, err
	}
	start, err := timemath.ParseISO(l.StartTime)
	if err != nil {
		return ElapsedTime{}, apperr.Wrap(apperr.KindOperationFailed, err, "Activity log %s has an unreadable start time", id)
	}

	out := ElapsedTime{ActivityID: id, StartTime: l.StartTime}
	var until time.Time
	if l.Completed() {
		until, err = timemath.ParseISO(l.EndTime)
		if err != nil {
			return ElapsedTime{}, apperr.Wrap(apperr.KindOperationFailed, err, "Activity log %s has an unreadable end time", id)
		}
		out.EndTime = l.EndTime
		out.Status = ElapsedCompleted
	} else {
		until = s.now()
		out.CurrentTime = timemath.FormatUTC(until)
		out.Status = ElapsedOngoing
	}

	out.ElapsedSeconds = elapsedSeconds(start, until)
	out.ElapsedTime = timemath.FormatDuration(out.ElapsedSeconds)
	return out, nil
}

// Update lists caller-editable fields. Nil means "leave as is".
type Update struct {
	ActivityType *string
	TaskScope    *types.TaskScope
	Description  *string
	Tags         []string
	Result       *string
	Notes        *string
}

// UpdateActivityLog merges the non-nil fields of u into the log
func (s *Service) UpdateActivityLog(id string, u Update) (types.ActivityLog, error) {
	if _, err := s.lookup(id); err != nil {
		return types.ActivityLog{}, err
	}
	return s.applyChanges(id, store.ActivityLogChanges{
		ActivityType: u.ActivityType,
		TaskScope:    u.TaskScope,
		Description:  u.Description,
		Tags:         u.Tags,
		Result:       u.Result,
		Notes:        u.Notes,
	})
}

// CreateTimeReminder schedules a pending reminder. reminderTime is stored as
// given once it parses.
func (s *Service) CreateTimeReminder(reminderTime, message, relatedTaskID string) (types.Reminder, error) {
	if _, err := timemath.ParseISO(reminderTime); err != nil {
		return types.Reminder{}, apperr.Wrap(apperr.KindInvalidArgument, err, "Invalid reminder time format. Expected ISO 8601 format")
	}

	r := types.Reminder{
		ReminderTime:  strings.TrimSpace(reminderTime),
		Message:       message,
		RelatedTaskID: relatedTaskID,
		Status:        types.ReminderPending,
		CreatedTime:   s.stamp(),
	}
	id, err := s.insertWithFreshID(func(id string) error {
		r.ReminderID = id
		return s.store.AddReminder(r)
	})
	if err != nil {
		return types.Reminder{}, err
	}
	r.ReminderID = id
	return r, nil
}

// DefaultReminderWindow is the look-ahead used when none is given, in minutes
const DefaultReminderWindow = 60

// CheckTimeReminders returns pending reminders due within the next minutes
func (s *Service) CheckTimeReminders(minutes int) []types.Reminder {
	return s.store.GetReminders(minutes)
}

// LogQuery is the caller-facing form of a log filter; dates are ISO-8601
type LogQuery struct {
	ActivityType string
	TaskScope    types.TaskScope
	StartDate    string
	EndDate      string
	Limit        int
}

// GetActivityLogs returns logs matching q, most recent first
func (s *Service) GetActivityLogs(q LogQuery) ([]types.ActivityLog, error) {
	f := store.Filter{
		ActivityType: q.ActivityType,
		TaskScope:    q.TaskScope,
		Limit:        q.Limit,
	}
	if q.StartDate != "" {
		t, err := timemath.ParseISO(q.StartDate)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidArgument, err, "Invalid startDate")
		}
		f.Start = &t
	}
	if q.EndDate != "" {
		t, err := timemath.ParseISO(q.EndDate)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidArgument, err, "Invalid endDate")
		}
		f.End = &t
	}
	return s.store.GetActivityLogs(f), nil
}
