package tools

import (
	"context"
	"fmt"

	"github.com/vthunder/chronos/internal/activity"
	"github.com/vthunder/chronos/internal/apperr"
	"github.com/vthunder/chronos/internal/mcp"
	"github.com/vthunder/chronos/internal/timemath"
	"github.com/vthunder/chronos/internal/types"
	"github.com/vthunder/chronos/internal/validate"
)

// Tool names
const (
	GetCurrentTime     = "get_current_time"
	ConvertTime        = "convert_time"
	StartActivityLog   = "start_activity_log"
	EndActivityLog     = "end_activity_log"
	GetElapsedTime     = "get_elapsed_time"
	GetActivityLogs    = "get_activity_logs"
	UpdateActivityLog  = "update_activity_log"
	CreateTimeReminder = "create_time_reminder"
	CheckTimeReminders = "check_time_reminders"
)

// RegisterAll registers the full catalogue with the given server
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	registerTimeTools(server, deps)
	registerActivityTools(server, deps)
	registerReminderTools(server, deps)
}

func zoneHelp(deps *Dependencies) string {
	if deps.LocalZone == "" {
		return "the host timezone"
	}
	return deps.LocalZone
}

func registerTimeTools(server *mcp.Server, deps *Dependencies) {
	local := zoneHelp(deps)

	server.RegisterTool(GetCurrentTime, mcp.ToolDef{
		Description: "Get current time (defaults to system time, supports any timezone)",
		Properties: map[string]mcp.PropDef{
			"timezone": {Type: "string", Description: fmt.Sprintf("Timezone to display. Use 'system' or 'local' for user's local time (%s). Use IANA names like 'America/New_York', 'Europe/London', or 'UTC' for other timezones. System time is the default and most practical choice.", local)},
		},
		Required: []string{"timezone"},
	}, func(args map[string]any) (mcp.Call, error) {
		tz, err := validate.Timezone(args["timezone"])
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return deps.Clock.CurrentTime(tz)
		}, nil
	})

	server.RegisterTool(ConvertTime, mcp.ToolDef{
		Description: "Convert time between timezones (defaults to system time for source/target)",
		Properties: map[string]mcp.PropDef{
			"source_timezone": {Type: "string", Description: fmt.Sprintf("Source timezone. Use 'system' or 'local' for user's local time (%s), or IANA names like 'America/New_York', 'UTC'. System time is the most practical default.", local)},
			"time":            {Type: "string", Description: "Time to convert in 24-hour format (HH:MM)"},
			"target_timezone": {Type: "string", Description: fmt.Sprintf("Target timezone. Use 'system' or 'local' for user's local time (%s), or IANA names like 'Asia/Tokyo', 'UTC'. System time is the most practical default.", local)},
		},
		Required: []string{"source_timezone", "time", "target_timezone"},
	}, func(args map[string]any) (mcp.Call, error) {
		source, err := validate.Timezone(args["source_timezone"])
		if err != nil {
			return nil, err
		}
		target, err := validate.Timezone(args["target_timezone"])
		if err != nil {
			return nil, err
		}
		hhmm, err := validate.TimeFormat(args["time"])
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return deps.Clock.Convert(source, hhmm, target)
		}, nil
	})
}

func registerActivityTools(server *mcp.Server, deps *Dependencies) {
	scopes := types.TaskScopeStrings()

	server.RegisterTool(StartActivityLog, mcp.ToolDef{
		Description: "Start a new activity log with system timestamp and unique Time ID",
		Properties: map[string]mcp.PropDef{
			"activityType": {Type: "string", Description: "Type of activity being performed (e.g., 'code_review', 'debugging', 'planning')"},
			"task_scope":   {Type: "string", Enum: scopes, Description: "Scope of the task"},
			"description":  {Type: "string", Description: "Detailed description of the activity"},
			"tags":         {Type: "array", Items: "string", Description: "Tags for categorizing the activity"},
		},
		Required: []string{"activityType", "task_scope"},
	}, func(args map[string]any) (mcp.Call, error) {
		activityType, err := String(args, "activityType")
		if err != nil {
			return nil, err
		}
		scope, err := OptScope(args, "task_scope")
		if err != nil {
			return nil, err
		}
		description, err := OptString(args, "description")
		if err != nil {
			return nil, err
		}
		tags, err := OptStrings(args, "tags")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return deps.Activity.StartActivityLog(activityType, *scope, deref(description), tags)
		}, nil
	})

	server.RegisterTool(EndActivityLog, mcp.ToolDef{
		Description: "End an activity log with system timestamp and calculate duration",
		Properties: map[string]mcp.PropDef{
			"activityId": {Type: "string", Description: "Unique identifier of the activity log to end"},
			"result":     {Type: "string", Description: "Result or outcome of the activity"},
			"notes":      {Type: "string", Description: "Detailed notes for traceability and session continuity. Include: what was accomplished, key decisions made, challenges encountered, solutions implemented, and any critical context for future reference. This enables other AI agents to understand your work, backtrack steps if issues arise, and continue development effectively. Be specific about code changes, architectural decisions, and debugging insights."},
		},
		Required: []string{"activityId"},
	}, func(args map[string]any) (mcp.Call, error) {
		id, err := String(args, "activityId")
		if err != nil {
			return nil, err
		}
		result, err := OptString(args, "result")
		if err != nil {
			return nil, err
		}
		notes, err := OptString(args, "notes")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return deps.Activity.EndActivityLog(id, result, notes)
		}, nil
	})

	server.RegisterTool(GetElapsedTime, mcp.ToolDef{
		Description: "Get the elapsed time for an ongoing or completed activity",
		Properties: map[string]mcp.PropDef{
			"activityId": {Type: "string", Description: "Unique identifier of the activity log"},
		},
		Required: []string{"activityId"},
	}, func(args map[string]any) (mcp.Call, error) {
		id, err := String(args, "activityId")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return deps.Activity.GetElapsedTime(id)
		}, nil
	})

	server.RegisterTool(GetActivityLogs, mcp.ToolDef{
		Description: "Retrieve activity logs with optional filtering",
		Properties: map[string]mcp.PropDef{
			"activityType": {Type: "string", Description: "Filter by activity type"},
			"task_scope":   {Type: "string", Enum: scopes, Description: "Filter by task scope"},
			"startDate":    {Type: "string", Description: "Filter by start date (ISO 8601 format)"},
			"endDate":      {Type: "string", Description: "Filter by end date (ISO 8601 format)"},
			"limit":        {Type: "integer", Description: "Maximum number of logs to return"},
		},
	}, func(args map[string]any) (mcp.Call, error) {
		var q activity.LogQuery

		activityType, err := OptString(args, "activityType")
		if err != nil {
			return nil, err
		}
		q.ActivityType = deref(activityType)

		scope, err := OptScope(args, "task_scope")
		if err != nil {
			return nil, err
		}
		if scope != nil {
			q.TaskScope = *scope
		}

		if q.StartDate, err = OptTimestamp(args, "startDate"); err != nil {
			return nil, err
		}
		if q.EndDate, err = OptTimestamp(args, "endDate"); err != nil {
			return nil, err
		}

		limit, err := OptInt(args, "limit")
		if err != nil {
			return nil, err
		}
		if limit != nil {
			if *limit <= 0 {
				return nil, apperr.New(apperr.KindInvalidArgument, "limit must be a positive integer, got %d", *limit)
			}
			q.Limit = *limit
		}

		return func(ctx context.Context) (any, error) {
			return deps.Activity.GetActivityLogs(q)
		}, nil
	})

	server.RegisterTool(UpdateActivityLog, mcp.ToolDef{
		Description: "Update an existing activity log",
		Properties: map[string]mcp.PropDef{
			"activityId":   {Type: "string", Description: "Unique identifier of the activity log to update"},
			"activityType": {Type: "string", Description: "Updated activity type"},
			"task_scope":   {Type: "string", Enum: scopes, Description: "Updated task scope"},
			"description":  {Type: "string", Description: "Updated description"},
			"tags":         {Type: "array", Items: "string", Description: "Updated tags"},
			"result":       {Type: "string", Description: "Updated result"},
			"notes":        {Type: "string", Description: "Updated traceability notes for session continuity and auditability. Document progress, changes in approach, new findings, or corrections made. Include specific details about what was modified, why changes were needed, and any insights gained. This ensures other AI agents can follow your thought process, understand context, and continue work seamlessly without losing critical information."},
		},
		Required: []string{"activityId"},
	}, func(args map[string]any) (mcp.Call, error) {
		id, err := String(args, "activityId")
		if err != nil {
			return nil, err
		}

		var u activity.Update
		if u.ActivityType, err = OptString(args, "activityType"); err != nil {
			return nil, err
		}
		if u.TaskScope, err = OptScope(args, "task_scope"); err != nil {
			return nil, err
		}
		if u.Description, err = OptString(args, "description"); err != nil {
			return nil, err
		}
		if u.Tags, err = OptStrings(args, "tags"); err != nil {
			return nil, err
		}
		if u.Result, err = OptString(args, "result"); err != nil {
			return nil, err
		}
		if u.Notes, err = OptString(args, "notes"); err != nil {
			return nil, err
		}

		return func(ctx context.Context) (any, error) {
			return deps.Activity.UpdateActivityLog(id, u)
		}, nil
	})
}

func registerReminderTools(server *mcp.Server, deps *Dependencies) {
	server.RegisterTool(CreateTimeReminder, mcp.ToolDef{
		Description: "Create a time-based reminder using system time for scheduling",
		Properties: map[string]mcp.PropDef{
			"reminderTime":  {Type: "string", Description: "Time for the reminder (ISO 8601 format with explicit timezone offset, e.g., '2025-09-11T14:00:00+08:00' for local time or '2025-09-11T14:00:00+00:00' for UTC)"},
			"message":       {Type: "string", Description: "Reminder message"},
			"relatedTaskId": {Type: "string", Description: "ID of related task or activity"},
		},
		Required: []string{"reminderTime", "message"},
	}, func(args map[string]any) (mcp.Call, error) {
		reminderTime, err := String(args, "reminderTime")
		if err != nil {
			return nil, err
		}
		if _, err := timemath.ParseISO(reminderTime); err != nil {
			return nil, apperr.New(apperr.KindInvalidArgument, "Invalid reminder time format. Expected ISO 8601 format")
		}
		message, err := String(args, "message")
		if err != nil {
			return nil, err
		}
		related, err := OptString(args, "relatedTaskId")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return deps.Activity.CreateTimeReminder(reminderTime, message, deref(related))
		}, nil
	})

	server.RegisterTool(CheckTimeReminders, mcp.ToolDef{
		Description: "Check for due or upcoming time reminders",
		Properties: map[string]mcp.PropDef{
			"upcomingMinutes": {Type: "integer", Description: "Check for reminders due within this many minutes (default: 60)"},
		},
	}, func(args map[string]any) (mcp.Call, error) {
		minutes := activity.DefaultReminderWindow
		n, err := OptInt(args, "upcomingMinutes")
		if err != nil {
			return nil, err
		}
		if n != nil {
			minutes = *n
		}
		return func(ctx context.Context) (any, error) {
			return deps.Activity.CheckTimeReminders(minutes), nil
		}, nil
	})
}
