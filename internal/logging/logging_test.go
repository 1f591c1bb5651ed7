package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureLogOutput redirects the logger to a buffer for the duration of f.
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	f()
	defaultLogger = oldLogger

	return buf.String()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if got := ParseFormat("json"); got != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, want FormatJSON", got)
	}
	if got := ParseFormat("text"); got != FormatText {
		t.Errorf("ParseFormat(text) = %v, want FormatText", got)
	}
	if got := ParseFormat("bogus"); got != FormatText {
		t.Errorf("ParseFormat(bogus) = %v, want FormatText", got)
	}
}

func TestRunIDContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	if got := GetRunID(ctx); got != "run-123" {
		t.Errorf("GetRunID() = %q, want %q", got, "run-123")
	}
	if got := GetRunID(context.Background()); got != "" {
		t.Errorf("GetRunID() on empty context = %q, want empty", got)
	}
}

func TestDocumentEvent(t *testing.T) {
	out := captureLogOutput(func() {
		DocumentEvent("labeled", "moby", "spans", 42)
	})
	for _, want := range []string{"labeled", "moby", "42"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestDocumentError(t *testing.T) {
	out := captureLogOutput(func() {
		DocumentError("moby", "load", errors.New("boom"))
	})
	for _, want := range []string{"moby", "load", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestHTTPRequest(t *testing.T) {
	out := captureLogOutput(func() {
		HTTPRequest("GET", "/api/v1/runs", "127.0.0.1:1234", 200, 5*time.Millisecond)
	})
	for _, want := range []string{"GET", "/api/v1/runs", "200"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestWebSocketEvent(t *testing.T) {
	out := captureLogOutput(func() {
		WebSocketEvent("client_connected", 3)
	})
	if !strings.Contains(out, "client_connected") || !strings.Contains(out, "3") {
		t.Errorf("output missing event fields: %s", out)
	}
}
