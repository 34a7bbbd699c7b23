package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "provider", "defillama")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if rec["msg"] != "shown" || rec["provider"] != "defillama" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewTextAndErrors(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "debug", "text")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("unexpected text output: %q", buf.String())
	}

	if _, err := New(&buf, "loud", "json"); err == nil {
		t.Fatal("expected level error")
	}
	if _, err := New(&buf, "info", "xml"); err == nil {
		t.Fatal("expected format error")
	}
	if lvl, _ := ParseLevel("WARNING"); lvl != slog.LevelWarn {
		t.Fatalf("unexpected level: %v", lvl)
	}
}
