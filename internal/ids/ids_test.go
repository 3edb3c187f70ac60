package ids

import (
	"strings"
	"testing"
)

func TestGenerate_Short(t *testing.T) {
	g, err := NewGenerator(FormatShort, 0)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id := g.Generate()
		if len(id) != ShortLength {
			t.Fatalf("short id %q has length %d", id, len(id))
		}
		if strings.ContainsAny(id, "-_0OIl") {
			t.Errorf("short id %q contains characters outside the alphabet", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestGenerate_UUID(t *testing.T) {
	g, err := NewGenerator(FormatUUID, 0)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	id := g.Generate()
	if len(id) != 36 || strings.Count(id, "-") != 4 {
		t.Errorf("uuid id %q is not hyphenated", id)
	}
}

func TestGenerate_Custom(t *testing.T) {
	g, err := NewGenerator(FormatCustom, 8)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if id := g.Generate(); len(id) != 8 {
		t.Errorf("custom id %q has length %d", id, len(id))
	}

	g, err = NewGenerator(FormatCustom, 0)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if id := g.Generate(); len(id) != DefaultCustomLength {
		t.Errorf("default custom id %q has length %d", id, len(id))
	}

	if _, err := NewGenerator(FormatCustom, 23); err == nil {
		t.Error("expected error for length beyond a short id")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"short", FormatShort, true},
		{"UUID", FormatUUID, true},
		{" custom ", FormatCustom, true},
		{"", FormatShort, true},
		{"base64", "", false},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseFormat(%q): err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
