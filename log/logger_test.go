package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(Session{Camera: "front", SessionID: "sess-1"}, zapcore.DebugLevel, &buf)

	l.Warn("pose requested but not computed", map[string]any{"fiducial_id": 7})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	entry := lines[0]

	for key, want := range map[string]string{
		"level":      "warn",
		"message":    "pose requested but not computed",
		"camera":     "front",
		"session_id": "sess-1",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %q", key, entry[key], want)
		}
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("missing timestamp")
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["fiducial_id"] != float64(7) {
		t.Errorf("fields = %v, want fiducial_id 7", entry["fields"])
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(Session{}, zapcore.WarnLevel, &buf)

	l.Debug("dropped", nil)
	l.Info("dropped", nil)
	l.Warn("kept", nil)
	l.Sugar().Errorf("kept %d", 2)

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[1]["message"] != "kept 2" {
		t.Errorf("message = %v, want %q", lines[1]["message"], "kept 2")
	}
	if _, ok := lines[0]["camera"]; ok {
		t.Error("empty camera should not be logged")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
