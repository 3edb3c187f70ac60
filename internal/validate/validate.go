// Package validate checks the shape of tool inputs before they reach the
// time and activity services.
package validate

import (
	"strconv"

	"github.com/vthunder/chronos/internal/apperr"
	"github.com/vthunder/chronos/internal/timemath"
)

// Timezone accepts the "system"/"local" sentinels or any resolvable IANA name
func Timezone(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", apperr.New(apperr.KindInvalidArgument, "Timezone must be a string")
	}
	if s == timemath.ZoneSystem || s == timemath.ZoneLocal {
		return s, nil
	}
	if _, err := timemath.LoadZone(s); err != nil {
		return "", apperr.Wrap(apperr.KindInvalidTimezone, err,
			"Invalid timezone '%s'. Supported formats: 'system', 'local', or IANA names like "+
				"'America/New_York', 'Europe/London', 'Asia/Tokyo', 'UTC'", s)
	}
	return s, nil
}

// TimeFormat accepts an HH:MM 24-hour wall-clock time
func TimeFormat(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", apperr.New(apperr.KindInvalidArgument, "Time must be a string")
	}
	if len(s) != 5 || s[2] != ':' || !digits(s[:2]) || !digits(s[3:]) {
		return "", apperr.New(apperr.KindInvalidArgument,
			"Invalid time format '%s'. Expected 24-hour format HH:MM (00:00-23:59)", s)
	}

	hours, _ := strconv.Atoi(s[:2])
	minutes, _ := strconv.Atoi(s[3:])
	if hours > 23 {
		return "", apperr.New(apperr.KindInvalidArgument, "Hours must be between 00-23, got %02d", hours)
	}
	if minutes > 59 {
		return "", apperr.New(apperr.KindInvalidArgument, "Minutes must be between 00-59, got %02d", minutes)
	}
	return s, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
