package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"
	"testing"
)

func TestStructuredLoggerJSONMode(t *testing.T) {
	var buf bytes.Buffer
	s := NewStructuredLogger(log.New(&buf, "", 0), "console", true)
	s.Info("sync complete", map[string]interface{}{"vms": 3})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry.Level != "INFO" || entry.Component != "console" || entry.Message != "sync complete" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Fields["vms"] != float64(3) {
		t.Errorf("fields = %v, want vms=3", entry.Fields)
	}
}

func TestStructuredLoggerHumanMode(t *testing.T) {
	var buf bytes.Buffer
	s := NewStructuredLogger(log.New(&buf, "", 0), "console", false)
	s.WithWorkspace("lab").Warn("slow response", map[string]interface{}{"ms": 900})

	got := buf.String()
	for _, part := range []string{"[console]", "[ws:lab]", "slow response", "ms=900"} {
		if !strings.Contains(got, part) {
			t.Errorf("human output %q missing %q", got, part)
		}
	}
	if strings.Contains(got, "{") {
		t.Errorf("human mode must not emit JSON: %q", got)
	}
}

func TestStructuredLoggerWithComponent(t *testing.T) {
	var buf bytes.Buffer
	s := NewStructuredLogger(log.New(&buf, "", 0), "console", true)
	s.WithComponent("store").Error("open failed")

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry.Component != "store" || entry.Level != "ERROR" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}
