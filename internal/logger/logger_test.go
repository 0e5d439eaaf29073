package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.Info("tree opened", "tree", "players")

	output := buf.String()
	if !strings.Contains(output, `"msg":"tree opened"`) {
		t.Fatalf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, `"tree":"players"`) {
		t.Fatalf("expected tree attribute in output, got: %s", output)
	}
}

func TestTextLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Text(&buf, slog.LevelWarn)
	log.Info("should not appear")
	log.Debug("also should not appear")

	if buf.Len() > 0 {
		t.Fatalf("expected no output below warn, got: %s", buf.String())
	}

	log.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn message in output, got: %s", buf.String())
	}
}

func TestWith(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Text(&buf, slog.LevelInfo).With("component", "storage")
	log.Info("opened")

	if !strings.Contains(buf.String(), "component=storage") {
		t.Fatalf("expected component attribute, got: %s", buf.String())
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	Build(&buf, "JSON", "debug").Debug("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected JSON output, got: %s", buf.String())
	}

	buf.Reset()
	Build(&buf, "", "info").Debug("hidden")
	if buf.Len() > 0 {
		t.Fatalf("expected debug to be filtered, got: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	// Should not panic
	log := Discard()
	log.Error("dropped")
}

func TestContext(t *testing.T) {
	t.Parallel()
	log := Discard()
	ctx := WithContext(context.Background(), log)
	if FromContext(ctx) != log {
		t.Fatal("expected stored logger")
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("expected default logger")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
