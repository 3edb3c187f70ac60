package timemath

import (
	"fmt"
	"strings"
	"time"

	"github.com/vthunder/chronos/internal/apperr"
)

const (
	isoLayout   = "2006-01-02T15:04:05-07:00"
	humanLayout = "January 02, 2006 at 03:04:05 PM"
)

// FormatISO renders t to whole seconds with an explicit offset (+00:00 for UTC)
func FormatISO(t time.Time) string {
	return t.Truncate(time.Second).Format(isoLayout)
}

// FormatUTC renders t in UTC, the form used for stored timestamps
func FormatUTC(t time.Time) string {
	return FormatISO(t.UTC())
}

// layouts accepted by ParseISO, tried in order
var isoLayouts = []struct {
	layout string
	naive  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05.999999999-0700", false},
	{"2006-01-02T15:04Z07:00", false},
	{"2006-01-02 15:04:05.999999999Z07:00", false},
	{"2006-01-02T15:04:05.999999999", true},
	{"2006-01-02 15:04:05.999999999", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02", true},
}

// ParseISO parses an ISO-8601 timestamp. A trailing Z means UTC; values with
// no offset at all are also taken as UTC.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if l.naive {
			t, err = time.ParseInLocation(l.layout, s, time.UTC)
		} else {
			t, err = time.Parse(l.layout, s)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.New(apperr.KindInvalidArgument, "invalid ISO 8601 timestamp %q", s)
}

// FormatDuration renders whole seconds as "42s", "3m 7s" or "2h 0m 13s"
func FormatDuration(seconds int64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh %dm %ds", seconds/3600, (seconds%3600)/60, seconds%60)
	}
}

// FormatHourDifference renders an offset difference in seconds as signed hours:
// whole hours keep one decimal ("+1.0h"), fractional ones up to two ("+5.75h").
func FormatHourDifference(offsetSeconds int) string {
	if offsetSeconds%3600 == 0 {
		return fmt.Sprintf("%+.1fh", float64(offsetSeconds)/3600)
	}
	s := fmt.Sprintf("%+.2f", float64(offsetSeconds)/3600)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s + "h"
}
