package types

import (
	"strings"

	"github.com/vthunder/chronos/internal/apperr"
)

// TaskScope classifies the kind of work an activity log represents
type TaskScope string

const (
	ScopeEpicPlanning            TaskScope = "epic-planning"
	ScopeFeatureImplementation   TaskScope = "feature-implementation"
	ScopeComponentImplementation TaskScope = "component-implementation"
	ScopeDebugging               TaskScope = "debugging"
	ScopeIntegrationTasks        TaskScope = "integration-tasks"
	ScopeOptimizationTasks       TaskScope = "optimization-tasks"
	ScopeSetupTasks              TaskScope = "setup-tasks"
	ScopeTestingTasks            TaskScope = "testing-tasks"
)

// TaskScopes lists every valid scope in catalogue order
var TaskScopes = []TaskScope{
	ScopeEpicPlanning,
	ScopeFeatureImplementation,
	ScopeComponentImplementation,
	ScopeDebugging,
	ScopeIntegrationTasks,
	ScopeOptimizationTasks,
	ScopeSetupTasks,
	ScopeTestingTasks,
}

// ParseTaskScope converts a raw string into a TaskScope, rejecting anything
// outside the closed set.
func ParseTaskScope(s string) (TaskScope, error) {
	for _, scope := range TaskScopes {
		if string(scope) == s {
			return scope, nil
		}
	}
	return "", apperr.New(apperr.KindInvalidArgument, "Invalid task_scope '%s'. Must be one of: %s", s, strings.Join(TaskScopeStrings(), ", "))
}

// TaskScopeStrings returns the scopes as plain strings (for schemas and messages)
func TaskScopeStrings() []string {
	out := make([]string, len(TaskScopes))
	for i, s := range TaskScopes {
		out[i] = string(s)
	}
	return out
}

// ActivityStatus is the lifecycle state of an activity log
type ActivityStatus string

const (
	ActivityStarted   ActivityStatus = "started"
	ActivityCompleted ActivityStatus = "completed"
)

// ReminderStatus is the lifecycle state of a reminder
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderCompleted ReminderStatus = "completed"
)

// ActivityLog is a tracked unit of work with a start and an optional end.
// Timestamps are ISO-8601 strings so that files written by other tools
// (including zone-less values) load without loss.
type ActivityLog struct {
	ActivityID      string         `json:"activityId"`
	ActivityType    string         `json:"activityType"`
	TaskScope       TaskScope      `json:"task_scope"`
	Description     string         `json:"description,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	StartTime       string         `json:"startTime"`
	EndTime         string         `json:"endTime,omitempty"`
	Duration        string         `json:"duration,omitempty"`
	DurationSeconds *int64         `json:"durationSeconds,omitempty"` // pointer: 0s is a valid duration
	Result          string         `json:"result,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	Status          ActivityStatus `json:"status"`
}

// Clone returns a deep copy so callers can't mutate store-owned slices
func (l ActivityLog) Clone() ActivityLog {
	if l.Tags != nil {
		l.Tags = append([]string(nil), l.Tags...)
	}
	if l.DurationSeconds != nil {
		d := *l.DurationSeconds
		l.DurationSeconds = &d
	}
	return l
}

// Completed reports whether the log has been ended
func (l ActivityLog) Completed() bool {
	return l.Status == ActivityCompleted
}

// Reminder is a one-shot scheduled notice
type Reminder struct {
	ReminderID    string         `json:"reminderId"`
	ReminderTime  string         `json:"reminderTime"` // as supplied by the caller, explicit offset expected
	Message       string         `json:"message"`
	RelatedTaskID string         `json:"relatedTaskId,omitempty"` // free text, not checked against activity ids
	Status        ReminderStatus `json:"status"`
	CreatedTime   string         `json:"createdTime"`
}
