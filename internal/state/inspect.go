// Package state inspects a chronos data directory. Stores opened with
// store.OpenReadOnly are never created or repaired by inspection.
package state

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/vthunder/chronos/internal/journal"
	"github.com/vthunder/chronos/internal/store"
	"github.com/vthunder/chronos/internal/timemath"
	"github.com/vthunder/chronos/internal/types"
)

// Thresholds used by Health
const (
	maxOngoingActivities = 10
	maxJournalEntries    = 10000
)

// Inspector provides state introspection capabilities
type Inspector struct {
	dataDir string
	store   *store.Store
	journal *journal.Journal
	now     func() time.Time
}

// NewInspector creates a new state inspector. j may be nil when the call
// journal is disabled.
func NewInspector(dataDir string, st *store.Store, j *journal.Journal) *Inspector {
	return &Inspector{dataDir: dataDir, store: st, journal: j, now: time.Now}
}

// StateSummary holds summary of all state
type StateSummary struct {
	DataDir string      `json:"data_dir"`
	Store   store.Stats `json:"store"`
	Calls   int         `json:"tool_calls"`
}

// HealthReport holds health check results
type HealthReport struct {
	Status          string   `json:"status"` // "healthy", "warnings"
	Warnings        []string `json:"warnings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Summary returns a summary of all state components
func (i *Inspector) Summary() (*StateSummary, error) {
	return &StateSummary{
		DataDir: i.dataDir,
		Store:   i.store.Stats(),
		Calls:   countJSONL(i.journal.Path()),
	}, nil
}

// Health runs health checks and returns a report
func (i *Inspector) Health() (*HealthReport, error) {
	report := &HealthReport{Status: "healthy"}
	summary, _ := i.Summary()

	b := i.store.Backend()
	if _, err := os.Stat(b.Location()); os.IsNotExist(err) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("No store at %s", b.Location()))
		report.Recommendations = append(report.Recommendations, "Check data_dir and storage_mode point at the server's data")
	} else if _, err := b.Load(); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Store unreadable: %v", err))
		report.Recommendations = append(report.Recommendations, "The server will start empty and overwrite it on the next write; back the file up first")
	}

	if summary.Store.OngoingLogs > maxOngoingActivities {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Many open activities: %d", summary.Store.OngoingLogs))
		report.Recommendations = append(report.Recommendations, "End stale activities with end_activity_log")
	}

	if overdue := len(i.Overdue()); overdue > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Overdue pending reminders: %d", overdue))
		report.Recommendations = append(report.Recommendations, "Reminders are never completed automatically; run check_time_reminders")
	}

	if summary.Calls > maxJournalEntries {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Large call journal: %d entries", summary.Calls))
		report.Recommendations = append(report.Recommendations, "Consider rotating "+journal.Filename)
	}

	if len(report.Warnings) > 0 {
		report.Status = "warnings"
	}
	return report, nil
}

// Overdue returns pending reminders whose time has passed
func (i *Inspector) Overdue() []types.Reminder {
	now := i.now()
	var out []types.Reminder
	for _, r := range i.store.Reminders() {
		if r.Status != types.ReminderPending {
			continue
		}
		due, err := timemath.ParseISO(r.ReminderTime)
		if err == nil && due.Before(now) {
			out = append(out, r)
		}
	}
	return out
}

// Activities lists logs most recent first, optionally narrowed to one scope
func (i *Inspector) Activities(limit int, scope types.TaskScope) []types.ActivityLog {
	return i.store.GetActivityLogs(store.Filter{TaskScope: scope, Limit: limit})
}

// Reminders lists pending reminders due within the next minutes
func (i *Inspector) Reminders(within int) []types.Reminder {
	return i.store.GetReminders(within)
}

// Calls returns the last n journal entries
func (i *Inspector) Calls(n int) ([]journal.Entry, error) {
	return i.journal.Recent(n)
}

// CallsToday returns journal entries logged since local midnight
func (i *Inspector) CallsToday() ([]journal.Entry, error) {
	return i.journal.Today()
}

func countJSONL(path string) int {
	if path == "" {
		return 0
	}
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	return count
}
