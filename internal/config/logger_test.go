package config

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger_Production(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("production", &buf)

	logger.Debug("hidden")
	logger.Info("match completed", slog.Int("matches", 2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}

	if entry["msg"] != "match completed" {
		t.Errorf("msg = %v, want match completed", entry["msg"])
	}
	if entry["service"] != serviceName {
		t.Errorf("service = %v, want %s", entry["service"], serviceName)
	}
	if _, ok := entry["source"]; ok {
		t.Errorf("source should not be set outside development")
	}
}

func TestNewLogger_Development(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("development", &buf)

	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("debug level should be enabled in development")
	}

	logger.Debug("pooled embeddings", slog.Int("count", 3))

	out := buf.String()
	if !strings.Contains(out, "msg=\"pooled embeddings\"") {
		t.Errorf("expected text output, got %q", out)
	}
	if !strings.Contains(out, "source=") {
		t.Errorf("expected source attribute in development, got %q", out)
	}
}

func TestNewLogger_LambdaUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("lambda", &buf)

	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("debug level should be disabled in lambda")
	}

	logger.Info("ready")
	if !json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}
