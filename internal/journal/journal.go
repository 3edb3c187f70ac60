// Package journal appends one JSON line per handled tool call to
// tool_calls.jsonl in the data directory.
package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Filename is the journal file inside the data directory
const Filename = "tool_calls.jsonl"

// Outcome is the terminal state of a call
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimedOut  Outcome = "timed_out"
)

// Phase is where a failed call stopped
type Phase string

const (
	PhaseValidating Phase = "validating"
	PhaseExecuting  Phase = "executing"
)

// Entry is one tool call
type Entry struct {
	Timestamp  time.Time `json:"ts"`
	Tool       string    `json:"tool"`
	Outcome    Outcome   `json:"outcome"`
	Phase      Phase     `json:"phase,omitempty"` // only for failures
	Code       int       `json:"code,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Journal appends entries to the call log. A nil *Journal discards entries.
type Journal struct {
	path string
	mu   sync.Mutex
}

// New creates a journal writer under dataDir
func New(dataDir string) *Journal {
	return &Journal{
		path: filepath.Join(dataDir, Filename),
	}
}

// Path returns the journal file location
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Log writes an entry to the journal
func (j *Journal) Log(entry Entry) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// Recent returns the last n entries from the journal
func (j *Journal) Recent(n int) ([]Entry, error) {
	if j == nil {
		return nil, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, line := range splitLines(data) {
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue // skip malformed entries
		}
		entries = append(entries, entry)
	}

	if n <= 0 || n >= len(entries) {
		return entries, nil
	}
	return entries[len(entries)-n:], nil
}

// Today returns entries logged since local midnight
func (j *Journal) Today() ([]Entry, error) {
	entries, err := j.Recent(0)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var todayEntries []Entry
	for _, e := range entries {
		if !e.Timestamp.Before(today) {
			todayEntries = append(todayEntries, e)
		}
	}
	return todayEntries, nil
}

// ToolStats counts calls to one tool by outcome
type ToolStats struct {
	Tool      string `json:"tool"`
	Calls     int    `json:"calls"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	TimedOut  int    `json:"timed_out"`
}

// Summarize groups entries per tool, sorted by tool name
func Summarize(entries []Entry) []ToolStats {
	byTool := make(map[string]*ToolStats)
	for _, e := range entries {
		st, ok := byTool[e.Tool]
		if !ok {
			st = &ToolStats{Tool: e.Tool}
			byTool[e.Tool] = st
		}
		st.Calls++
		switch e.Outcome {
		case OutcomeSucceeded:
			st.Succeeded++
		case OutcomeFailed:
			st.Failed++
		case OutcomeTimedOut:
			st.TimedOut++
		}
	}

	out := make([]ToolStats, 0, len(byTool))
	for _, st := range byTool {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Tool < out[k].Tool })
	return out
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
