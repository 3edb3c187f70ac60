// Package ids generates record identifiers for activity logs and reminders.
package ids

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"github.com/vthunder/chronos/internal/apperr"
)

// Format selects how identifiers are rendered
type Format string

const (
	FormatShort  Format = "short"
	FormatUUID   Format = "uuid"
	FormatCustom Format = "custom"
)

const (
	// ShortLength is the length of a full short id
	ShortLength = 22
	// DefaultCustomLength is used when a custom length is not set
	DefaultCustomLength = 12
)

// ParseFormat accepts short, uuid or custom (case-insensitive)
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatShort, FormatUUID, FormatCustom:
		return f, nil
	case "":
		return FormatShort, nil
	}
	return "", apperr.New(apperr.KindConfiguration, "unknown id format %q (expected short, uuid or custom)", s)
}

// Generator produces unique ids in one format
type Generator struct {
	format Format
	length int
}

// NewGenerator builds a generator. customLength only applies to FormatCustom;
// zero or negative means DefaultCustomLength.
func NewGenerator(format Format, customLength int) (*Generator, error) {
	if format == "" {
		format = FormatShort
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if customLength <= 0 {
		customLength = DefaultCustomLength
	}
	if format == FormatCustom && customLength > ShortLength {
		return nil, apperr.New(apperr.KindConfiguration,
			"custom id length %d exceeds %d", customLength, ShortLength)
	}
	return &Generator{format: format, length: customLength}, nil
}

// Format returns the generator's format
func (g *Generator) Format() Format {
	return g.format
}

// Generate returns a new id
func (g *Generator) Generate() string {
	switch g.format {
	case FormatUUID:
		return uuid.NewString()
	case FormatCustom:
		return shortuuid.New()[:g.length]
	default:
		return shortuuid.New()
	}
}
