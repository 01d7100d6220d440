package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestComponentLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(&buf, LevelWarn)
	defer SetDefault(nil, LevelInfo)

	logger := NewComponentLogger("test")
	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line %d", 1)
	logger.Error("error line")

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Fatalf("expected debug/info to be filtered, got: %s", out)
	}
	if !strings.Contains(out, "warn line 1") || !strings.Contains(out, "error line") {
		t.Fatalf("expected warn/error lines, got: %s", out)
	}
	if !strings.Contains(out, "[test]") {
		t.Fatalf("expected component tag in output, got: %s", out)
	}
}

func TestWithLogIDPrefixesLines(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(&buf, LevelDebug)
	defer SetDefault(nil, LevelInfo)

	logger := WithLogID(NewComponentLogger("req"), "abc123")
	logger.Info("hello %s", "world")

	if !strings.Contains(buf.String(), "log_id=abc123 hello world") {
		t.Fatalf("expected log id prefix, got: %s", buf.String())
	}
}

func TestOrNopHandlesNil(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	var typed *logIDLogger
	if OrNop(typed) == nil {
		t.Fatal("OrNop(typed nil) returned nil")
	}
	// Must not panic.
	OrNop(nil).Info("ignored")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
