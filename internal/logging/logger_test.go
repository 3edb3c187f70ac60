package logging

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"  padded\n", 10, "padded"},
		{"line one\nline two", 100, "line one line two"},
		{"abcdefghij", 4, "abcd..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestPreview(t *testing.T) {
	got := Preview(map[string]any{"timezone": "UTC"}, 100)
	if got != `{"timezone":"UTC"}` {
		t.Errorf("Preview: got %q", got)
	}
	if got := Preview(make(chan int), 10); got != "<unprintable>" {
		t.Errorf("Preview(chan): got %q", got)
	}
}

func TestDebugGate(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	was := DebugEnabled()
	t.Cleanup(func() { SetDebug(was) })

	SetDebug(false)
	Debug("test", "hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("debug output while disabled: %q", buf.String())
	}

	SetDebug(true)
	Debug("test", "shown %d", 2)
	Info("test", "always")
	Warn("test", "careful")
	out := buf.String()
	for _, want := range []string{"[test] shown 2", "[test] always", "[test] Warning: careful"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}
