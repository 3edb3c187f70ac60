// Package logging adds subsystem-tagged helpers over the standard logger.
// Output goes wherever log is pointed; the servers point it at stderr.
package logging

import (
	"encoding/json"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

var debugEnabled atomic.Bool

func init() {
	debugEnabled.Store(os.Getenv("DEBUG") == "true")
}

// SetDebug turns debug output on or off
func SetDebug(on bool) {
	debugEnabled.Store(on)
}

// DebugEnabled reports whether Debug messages are emitted
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Info logs an informational message (always shown)
func Info(subsystem, format string, args ...any) {
	log.Printf("[%s] "+format, append([]any{subsystem}, args...)...)
}

// Warn logs a problem that did not stop the operation
func Warn(subsystem, format string, args ...any) {
	log.Printf("[%s] Warning: "+format, append([]any{subsystem}, args...)...)
}

// Debug logs a debug message (only shown if DEBUG=true)
func Debug(subsystem, format string, args ...any) {
	if debugEnabled.Load() {
		log.Printf("[%s] "+format, append([]any{subsystem}, args...)...)
	}
}

// Truncate truncates a string to maxLen and adds ellipsis
func Truncate(s string, maxLen int) string {
	// Replace newlines with spaces for one-line logs
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Preview renders v as compact JSON truncated to maxLen, for logging tool arguments
func Preview(v any, maxLen int) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "<unprintable>"
	}
	return Truncate(string(data), maxLen)
}
