package timemath

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vthunder/chronos/internal/apperr"
)

func fixedClock(t *testing.T, now time.Time, local string) *Clock {
	t.Helper()
	return New(local, WithNow(func() time.Time { return now }))
}

func TestCurrentTime_IANAZone(t *testing.T) {
	now := time.Date(2026, 1, 15, 14, 30, 45, 123456789, time.UTC)
	c := fixedClock(t, now, "UTC")

	for _, zone := range []string{"America/New_York", "Europe/London", "Asia/Tokyo", "Asia/Kathmandu"} {
		res, err := c.CurrentTime(zone)
		if err != nil {
			t.Fatalf("CurrentTime(%s): %v", zone, err)
		}
		if res.Timezone != zone {
			t.Errorf("timezone: got %q, want %q", res.Timezone, zone)
		}
		parsed, err := time.Parse(time.RFC3339, res.Datetime)
		if err != nil {
			t.Fatalf("datetime %q not RFC3339: %v", res.Datetime, err)
		}
		if parsed.Weekday().String() != res.DayOfWeek {
			t.Errorf("%s: day_of_week %q does not match %s", zone, res.DayOfWeek, parsed.Weekday())
		}
		if !parsed.Equal(now.Truncate(time.Second)) {
			t.Errorf("%s: instant %v, want %v", zone, parsed, now.Truncate(time.Second))
		}
		if !strings.HasSuffix(res.FormattedTimezone, " ("+zone+")") {
			t.Errorf("formatted_timezone %q missing zone annotation", res.FormattedTimezone)
		}
	}
}

func TestCurrentTime_Formatting(t *testing.T) {
	now := time.Date(2026, 3, 5, 9, 7, 3, 0, time.UTC)
	c := fixedClock(t, now, "Europe/Berlin")

	res, err := c.CurrentTime("UTC")
	if err != nil {
		t.Fatalf("CurrentTime: %v", err)
	}
	if res.Datetime != "2026-03-05T09:07:03+00:00" {
		t.Errorf("datetime: got %q", res.Datetime)
	}
	if res.FormattedTimezone != "March 05, 2026 at 09:07:03 AM UTC" {
		t.Errorf("formatted: got %q", res.FormattedTimezone)
	}
	if res.DayOfWeek != "Thursday" {
		t.Errorf("day_of_week: got %q", res.DayOfWeek)
	}
	if res.IsDST {
		t.Error("UTC should never be DST")
	}
}

func TestCurrentTime_SystemSentinel(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	c := fixedClock(t, now, "Europe/Berlin")

	for _, spec := range []string{"system", "local"} {
		res, err := c.CurrentTime(spec)
		if err != nil {
			t.Fatalf("CurrentTime(%s): %v", spec, err)
		}
		if res.Timezone != "Europe/Berlin" {
			t.Errorf("timezone: got %q", res.Timezone)
		}
		if res.Datetime != "2026-07-01T14:00:00+02:00" {
			t.Errorf("datetime: got %q", res.Datetime)
		}
		if !strings.HasSuffix(res.FormattedTimezone, "(System Time - Europe/Berlin)") {
			t.Errorf("formatted: got %q", res.FormattedTimezone)
		}
		if !res.IsDST {
			t.Error("Berlin in July should be DST")
		}
	}
}

func TestCurrentTime_InvalidZone(t *testing.T) {
	c := fixedClock(t, time.Now(), "UTC")
	_, err := c.CurrentTime("Not/AZone")
	if err == nil {
		t.Fatal("expected error")
	}
	if apperr.KindOf(err) != apperr.KindInvalidTimezone {
		t.Errorf("kind: got %s", apperr.KindOf(err))
	}
	if !apperr.KindOf(err).IsInvalidArgument() {
		t.Error("invalid timezone should be an invalid argument")
	}
}

func TestLocalZone_DetectedOnce(t *testing.T) {
	calls := 0
	c := New("", WithDetector(func() (string, error) {
		calls++
		return "Asia/Tokyo", nil
	}))

	for i := 0; i < 3; i++ {
		name, _, err := c.LocalZone()
		if err != nil {
			t.Fatalf("LocalZone: %v", err)
		}
		if name != "Asia/Tokyo" {
			t.Errorf("name: got %q", name)
		}
	}
	if calls != 1 {
		t.Errorf("detector called %d times, want 1", calls)
	}
}

func TestLocalZone_Undiscoverable(t *testing.T) {
	c := New("", WithDetector(func() (string, error) {
		return "", apperr.New(apperr.KindConfiguration, "no zone")
	}))

	_, err := c.CurrentTime("system")
	if !errors.Is(err, apperr.Configuration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	// An explicit IANA zone does not need the host zone
	if _, err := c.CurrentTime("UTC"); err != nil {
		t.Errorf("CurrentTime(UTC): %v", err)
	}
}

func TestLocalZone_OverrideSkipsDetection(t *testing.T) {
	c := New("America/Chicago", WithDetector(func() (string, error) {
		t.Fatal("detector should not run with an override")
		return "", nil
	}))
	name, _, err := c.LocalZone()
	if err != nil || name != "America/Chicago" {
		t.Errorf("LocalZone: got %q, %v", name, err)
	}
}

func TestConvert_SameZone(t *testing.T) {
	c := fixedClock(t, time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC), "UTC")

	res, err := c.Convert("Europe/Paris", "14:45", "Europe/Paris")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.TimeDifference != "+0.0h" {
		t.Errorf("difference: got %q", res.TimeDifference)
	}
	if res.Source.Datetime != res.Target.Datetime {
		t.Errorf("source %q != target %q", res.Source.Datetime, res.Target.Datetime)
	}
	if !strings.Contains(res.Target.Datetime, "T14:45:00") {
		t.Errorf("target wall clock: got %q", res.Target.Datetime)
	}
}

func TestConvert_AnchoredToToday(t *testing.T) {
	// London is UTC+0 in winter and UTC+1 in summer
	winter := fixedClock(t, time.Date(2026, 1, 20, 6, 0, 0, 0, time.UTC), "UTC")
	res, err := winter.Convert("UTC", "09:15", "Europe/London")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.TimeDifference != "+0.0h" {
		t.Errorf("winter difference: got %q", res.TimeDifference)
	}
	if res.Target.Datetime != "2026-01-20T09:15:00+00:00" {
		t.Errorf("winter target: got %q", res.Target.Datetime)
	}

	summer := fixedClock(t, time.Date(2026, 7, 20, 6, 0, 0, 0, time.UTC), "UTC")
	res, err = summer.Convert("UTC", "09:15", "Europe/London")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.TimeDifference != "+1.0h" {
		t.Errorf("summer difference: got %q", res.TimeDifference)
	}
	if res.Target.Datetime != "2026-07-20T10:15:00+01:00" {
		t.Errorf("summer target: got %q", res.Target.Datetime)
	}
	if !res.Target.IsDST {
		t.Error("London in July should be DST")
	}
}

func TestConvert_FractionalOffset(t *testing.T) {
	c := fixedClock(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), "UTC")

	res, err := c.Convert("UTC", "12:00", "Asia/Kathmandu")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.TimeDifference != "+5.75h" {
		t.Errorf("difference: got %q", res.TimeDifference)
	}

	res, err = c.Convert("Asia/Kolkata", "12:00", "UTC")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.TimeDifference != "-5.5h" {
		t.Errorf("difference: got %q", res.TimeDifference)
	}
}

func TestConvert_SystemSource(t *testing.T) {
	c := fixedClock(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), "Asia/Tokyo")

	res, err := c.Convert("local", "09:00", "UTC")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.Source.Timezone != "Asia/Tokyo" {
		t.Errorf("source timezone: got %q", res.Source.Timezone)
	}
	if res.Target.Datetime != "2026-02-01T00:00:00+00:00" {
		t.Errorf("target: got %q", res.Target.Datetime)
	}
	if res.TimeDifference != "-9.0h" {
		t.Errorf("difference: got %q", res.TimeDifference)
	}
}

func TestConvert_InvalidZones(t *testing.T) {
	c := fixedClock(t, time.Now(), "UTC")
	if _, err := c.Convert("Bad/Zone", "10:00", "UTC"); apperr.KindOf(err) != apperr.KindInvalidTimezone {
		t.Errorf("source: got %v", err)
	}
	if _, err := c.Convert("UTC", "10:00", "Bad/Zone"); apperr.KindOf(err) != apperr.KindInvalidTimezone {
		t.Errorf("target: got %v", err)
	}
}
