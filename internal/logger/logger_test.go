package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestZerologAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.DebugLevel)

	log.Info("deconv", "run complete", map[string]interface{}{"width": 64})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if entry["component"] != "deconv" || entry["message"] != "run complete" || entry["level"] != "info" {
		t.Errorf("entry = %v", entry)
	}
	if entry["width"] != float64(64) {
		t.Errorf("width = %v, want 64", entry["width"])
	}
}

func TestZerologAdapterLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.WarnLevel)

	log.Debug("x", "hidden", nil)
	log.Info("x", "hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("below-level output: %q", buf.String())
	}

	log.Warning("x", "shown", nil)
	log.Error("x", errors.New("boom"), nil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], `"error":"boom"`) {
		t.Errorf("error line = %s", lines[1])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"WARNING", zerolog.WarnLevel, false},
		{" error ", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNopDiscards(t *testing.T) {
	// Must not panic with nil fields.
	Nop().Error("x", errors.New("ignored"), nil)
}
