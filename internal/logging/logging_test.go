package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown", "bucket", "workshop-data")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "workshop-data") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "chatty", Output: &buf})

	logger.Debug("debug")
	logger.Info("info")

	if strings.Contains(buf.String(), "debug") {
		t.Error("debug should be filtered at info level")
	}
	if !strings.Contains(buf.String(), "info") {
		t.Error("info should be logged")
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", JSON: true, Output: &buf})
	logger.Info("uploaded", "key", "csv/beers.csv")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "uploaded" || entry["key"] != "csv/beers.csv" {
		t.Errorf("entry = %v", entry)
	}
}
