package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "json", "warn")
	if err != nil {
		t.Fatalf("expected logger, got %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept", "zip", "23451")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q", buf.String())
	}
	if entry["msg"] != "kept" || entry["zip"] != "23451" {
		t.Fatalf("unexpected entry %v", entry)
	}

	buf.Reset()
	logger, err = NewWithWriter(&buf, "TEXT", "")
	if err != nil {
		t.Fatalf("expected logger, got %v", err)
	}
	logger.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("expected text output, got %q", buf.String())
	}

	if _, err := NewWithWriter(&buf, "xml", "info"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := NewWithWriter(&buf, "json", "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) != nil {
		t.Fatal("expected no logger in empty context")
	}
	logger := slog.Default()
	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected stored logger")
	}
	if got := ContextWithLogger(ctx, nil); got != ctx {
		t.Fatal("expected nil logger to leave context unchanged")
	}
}
