package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/exterminus/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctxLogger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := logging.ContextWithLogger(context.Background(), ctxLogger)

	serviceLogger(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), "JobService", "MoveJob", "job_id", 7).Info("moved")

	out := buf.String()
	for _, want := range []string{"service=JobService", "operation=MoveJob", "job_id=7"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"":                nil,
		"unauthorized":    ErrUnauthorized,
		"not_found":       ErrNotFound,
		"locked":          ErrLocked,
		"session_expired": ErrSessionExpired,
		"validation":      newValidationError("bad"),
		"unexpected":      errors.New("boom"),
	}
	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("expected %q for %v, got %q", want, err, got)
		}
	}
}
