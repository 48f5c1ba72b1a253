package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("chatty", "text", &buf)
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level=%v want info", log.GetLevel())
	}
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line leaked: %q", buf.String())
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("debug", "JSON", &buf)
	log.WithField("dialect", "macro").Info("conversion done")

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("not json: %v (%q)", err, buf.String())
	}
	if entry["dialect"] != "macro" || entry["msg"] != "conversion done" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
