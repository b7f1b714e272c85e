package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newPlainHandler(buf *bytes.Buffer, level slog.Level) *TerminalHandler {
	h := newTerminalHandler(buf, &slog.HandlerOptions{Level: level})
	h.color = false
	return h
}

func TestTerminalHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	h := newPlainHandler(&buf, slog.LevelDebug)

	ts := time.Date(2026, 1, 15, 10, 30, 45, 123000000, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "fetched changesets", 0)
	r.AddAttrs(slog.Int64("repository_id", 3), slog.Int("count", 12))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	want := "10:30:45.123 INF fetched changesets repository_id=3 count=12\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTerminalHandler_Levels(t *testing.T) {
	tests := []struct {
		level    slog.Level
		expected string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(newPlainHandler(&buf, slog.LevelDebug))
			logger.Log(context.Background(), tt.level, "msg")
			if !strings.Contains(buf.String(), " "+tt.expected+" ") {
				t.Errorf("expected %s in %q", tt.expected, buf.String())
			}
		})
	}
}

func TestTerminalHandler_ColourCodes(t *testing.T) {
	var buf bytes.Buffer
	h := newTerminalHandler(&buf, nil)
	h.color = true
	slog.New(h).Error("fetch failed", slog.Any("error", errors.New("boom")))

	output := buf.String()
	if !strings.Contains(output, ansiRed+"ERR"+ansiReset) {
		t.Errorf("expected red level label, got %q", output)
	}
	if !strings.Contains(output, ansiRed+"boom"+ansiReset) {
		t.Errorf("expected red error value, got %q", output)
	}
}

func TestTerminalHandler_NoColour(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	slog.New(newTerminalHandler(&buf, nil)).Warn("slow", slog.String("error", "x"))

	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("expected no escape codes, got %q", buf.String())
	}
}

func TestTerminalHandler_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPlainHandler(&buf, slog.LevelWarn))

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestTerminalHandler_DefaultLevel(t *testing.T) {
	h := newTerminalHandler(&bytes.Buffer{}, nil)
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug to be disabled by default")
	}
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be enabled by default")
	}
}

func TestTerminalHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPlainHandler(&buf, slog.LevelInfo)).
		With(slog.String("scm", "git")).
		WithGroup("fetch").
		With(slog.Int("batch", 2))

	logger.Info("done", slog.Int("count", 5))

	output := buf.String()
	for _, want := range []string{"scm=git", "fetch.batch=2", "fetch.count=5"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in %q", want, output)
		}
	}
}

func TestTerminalHandler_EmptyGroup(t *testing.T) {
	h := newPlainHandler(&bytes.Buffer{}, slog.LevelInfo)
	if h.WithGroup("") != h {
		t.Error("expected empty group to return the same handler")
	}
}

func TestTerminalHandler_GroupAttr(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newPlainHandler(&buf, slog.LevelInfo)).Info("x",
		slog.Group("change", slog.String("action", "M"), slog.String("path", "/a")))

	if !strings.Contains(buf.String(), "change.action=M change.path=/a") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestFormatAttrValue(t *testing.T) {
	tests := []struct {
		name  string
		value slog.Value
		want  string
	}{
		{"plain", slog.StringValue("abc"), "abc"},
		{"spaces", slog.StringValue("a b"), `"a b"`},
		{"empty", slog.StringValue(""), `""`},
		{"equals", slog.StringValue("k=v"), `"k=v"`},
		{"int", slog.IntValue(7), "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAttrValue(tt.value); got != tt.want {
				t.Errorf("formatAttrValue() = %q, want %q", got, tt.want)
			}
		})
	}
}
