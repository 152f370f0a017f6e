package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriterFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "not-a-level")

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug output should be suppressed at info, got %q", buf.String())
	}

	logger.Info("visible", "customer_id", 1000)
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "visible" || entry["service"] != "customer-accounts" {
		t.Fatalf("unexpected entry %v", entry)
	}
}
