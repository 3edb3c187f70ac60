// Package timemath computes timezone-aware current times and wall-clock
// conversions. It holds no state beyond the cached local zone.
package timemath

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vthunder/chronos/internal/apperr"
)

// TimeResult describes an instant as seen from one zone
type TimeResult struct {
	Timezone          string `json:"timezone"`
	Datetime          string `json:"datetime"`
	FormattedTimezone string `json:"formatted_timezone"`
	DayOfWeek         string `json:"day_of_week"`
	IsDST             bool   `json:"is_dst"`
}

// TimeConversionResult is a wall-clock time converted between two zones
type TimeConversionResult struct {
	Source         TimeResult `json:"source"`
	Target         TimeResult `json:"target"`
	TimeDifference string     `json:"time_difference"`
}

// Clock resolves zones and computes times. The host zone is looked up at most
// once per Clock.
type Clock struct {
	override string
	now      func() time.Time
	detect   func() (string, error)

	once      sync.Once
	localName string
	localLoc  *time.Location
	localErr  error
}

// Option configures a Clock
type Option func(*Clock)

// WithNow replaces the wall clock (tests)
func WithNow(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

// WithDetector replaces host zone discovery (tests)
func WithDetector(detect func() (string, error)) Option {
	return func(c *Clock) { c.detect = detect }
}

// New creates a Clock. localOverride, when non-empty, replaces host zone discovery.
func New(localOverride string, opts ...Option) *Clock {
	c := &Clock{
		override: localOverride,
		now:      time.Now,
		detect:   DetectLocalZone,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the current instant
func (c *Clock) Now() time.Time {
	return c.now()
}

// LocalZone returns the host zone name and location
func (c *Clock) LocalZone() (string, *time.Location, error) {
	c.once.Do(func() {
		name := c.override
		if name == "" {
			name, c.localErr = c.detect()
			if c.localErr != nil {
				return
			}
		}
		loc, err := LoadZone(name)
		if err != nil {
			c.localErr = apperr.Wrap(apperr.KindConfiguration, err, "Local timezone %q is not usable", name)
			return
		}
		c.localName, c.localLoc = name, loc
	})
	return c.localName, c.localLoc, c.localErr
}

// resolve turns a zone spec into a zone name and location
func (c *Clock) resolve(spec string) (string, *time.Location, error) {
	if IsSentinel(spec) {
		return c.LocalZone()
	}
	loc, err := LoadZone(spec)
	if err != nil {
		return "", nil, err
	}
	return spec, loc, nil
}

// CurrentTime returns the current time in the zone named by spec
func (c *Clock) CurrentTime(spec string) (TimeResult, error) {
	name, loc, err := c.resolve(spec)
	if err != nil {
		return TimeResult{}, err
	}
	now := c.now().In(loc).Truncate(time.Second)
	return describe(spec, name, now), nil
}

// Convert interprets hhmm as a wall-clock time today in the source zone and
// returns the same instant in the target zone.
func (c *Clock) Convert(sourceSpec, hhmm, targetSpec string) (TimeConversionResult, error) {
	sourceName, sourceLoc, err := c.resolve(sourceSpec)
	if err != nil {
		return TimeConversionResult{}, err
	}
	targetName, targetLoc, err := c.resolve(targetSpec)
	if err != nil {
		return TimeConversionResult{}, err
	}

	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return TimeConversionResult{}, apperr.New(apperr.KindInvalidArgument, "Invalid time format. Expected HH:MM [24-hour format]")
	}

	today := c.now().In(sourceLoc)
	sourceTime := time.Date(today.Year(), today.Month(), today.Day(), parsed.Hour(), parsed.Minute(), 0, 0, sourceLoc)
	targetTime := sourceTime.In(targetLoc)

	_, sourceOffset := sourceTime.Zone()
	_, targetOffset := targetTime.Zone()

	return TimeConversionResult{
		Source:         describe(sourceSpec, sourceName, sourceTime),
		Target:         describe(targetSpec, targetName, targetTime),
		TimeDifference: FormatHourDifference(targetOffset - sourceOffset),
	}, nil
}

// describe builds a TimeResult. spec is what the caller asked for, name the
// zone it resolved to.
func describe(spec, name string, t time.Time) TimeResult {
	formatted := t.Format(humanLayout)
	switch {
	case strings.EqualFold(spec, "utc"):
		formatted += " UTC"
	case IsSentinel(spec):
		formatted += fmt.Sprintf(" (System Time - %s)", name)
	default:
		formatted += fmt.Sprintf(" (%s)", spec)
	}

	return TimeResult{
		Timezone:          name,
		Datetime:          FormatISO(t),
		FormattedTimezone: formatted,
		DayOfWeek:         t.Weekday().String(),
		IsDST:             t.IsDST(),
	}
}
