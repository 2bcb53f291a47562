package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "debug", "text")
	if err != nil {
		t.Fatalf("NewWithWriter failed: %v", err)
	}

	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("level: got %s, want debug", logger.GetLevel())
	}

	Component(logger, "extract").WithField("path", "scan.png").Debug("loaded")

	out := buf.String()
	for _, want := range []string{"component=extract", "path=scan.png", "msg=loaded"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "info", "json")
	if err != nil {
		t.Fatalf("NewWithWriter failed: %v", err)
	}

	logger.WithField("fragments", 3).Info("text extracted")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "text extracted" {
		t.Errorf("msg: got %v", entry["msg"])
	}
	if entry["fragments"] != float64(3) {
		t.Errorf("fragments: got %v", entry["fragments"])
	}
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "warn", "text")
	if err != nil {
		t.Fatalf("NewWithWriter failed: %v", err)
	}

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn message missing")
	}
}

func TestNewWithWriter_Errors(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewWithWriter(&buf, "loud", "text"); err == nil {
		t.Error("invalid level should fail")
	}
	if _, err := NewWithWriter(&buf, "info", "xml"); err == nil {
		t.Error("invalid format should fail")
	}
}

func TestNew(t *testing.T) {
	logger, err := New("error", "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if logger.GetLevel() != logrus.ErrorLevel {
		t.Errorf("level: got %s", logger.GetLevel())
	}
}
