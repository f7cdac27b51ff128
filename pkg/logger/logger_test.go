package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"vkcommands/pkg/config"
)

func TestLoggerJSONEntryShape(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "info"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.With("component", "gateway.service").Info("Command dispatched", "request_id", "42", "peer_id", int64(-45), "channel", "vk", "command", "ping", "ok", true)

	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry LogEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}

	if entry.Level != "info" {
		t.Fatalf("level = %q, want %q", entry.Level, "info")
	}
	if entry.Message != "Command dispatched" {
		t.Fatalf("message = %q, want %q", entry.Message, "Command dispatched")
	}
	if entry.Component != "gateway.service" {
		t.Fatalf("component = %q, want %q", entry.Component, "gateway.service")
	}
	if entry.Timestamp == "" {
		t.Fatal("expected timestamp")
	}
	if entry.RequestID != "42" {
		t.Fatalf("request_id = %q, want %q", entry.RequestID, "42")
	}
	if entry.PeerID != -45 {
		t.Fatalf("peer_id = %d, want -45", entry.PeerID)
	}
	if entry.Channel != "vk" {
		t.Fatalf("channel = %q, want %q", entry.Channel, "vk")
	}
	if _, ok := entry.Fields["peer_id"]; ok {
		t.Fatal("peer_id should be promoted out of fields")
	}
	if got := entry.Fields["command"]; got != "ping" {
		t.Fatalf("fields.command = %v, want %q", got, "ping")
	}
	if got := entry.Fields["ok"]; got != true {
		t.Fatalf("fields.ok = %v, want true", got)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Info("Ignored")
	if got := strings.TrimSpace(out.String()); got != "" {
		t.Fatalf("expected no output for info, got %q", got)
	}

	log.Error("Kept")
	if got := strings.TrimSpace(out.String()); got == "" {
		t.Fatal("expected output for error")
	}
}

func TestLoggerEnvironmentOverrides(t *testing.T) {
	t.Setenv("VKCOMMANDS_LOG_LEVEL", "debug")
	t.Setenv("VKCOMMANDS_LOG_FORMAT", "text")
	defer unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Debug("Debug enabled", "component", "test")
	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected debug output with env override")
	}
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected text format override, got %q", line)
	}
}

func TestLoggerDefaultsToTextFormat(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Info("Default format")
	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected log output")
	}
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected text format by default, got %q", line)
	}
}

func TestLoggerJSONGroupsAndErrors(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.With("component", "command.service").WithGroup("cmd").Warn("Hook failed", "name", "ping", "error", errors.New("boom"), "took", 1500*time.Millisecond)

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}

	if entry.Component != "command.service" {
		t.Fatalf("component = %q, want %q", entry.Component, "command.service")
	}
	if got := entry.Fields["cmd.name"]; got != "ping" {
		t.Fatalf("fields[cmd.name] = %v, want %q", got, "ping")
	}
	if got := entry.Fields["cmd.error"]; got != "boom" {
		t.Fatalf("fields[cmd.error] = %v, want %q", got, "boom")
	}
	if got := entry.Fields["cmd.took"]; got != "1.5s" {
		t.Fatalf("fields[cmd.took] = %v, want %q", got, "1.5s")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "info+2", want: slog.LevelInfo + 2},
	}

	for _, tt := range tests {
		got, err := parseLevel(tt.input)
		if err != nil {
			t.Fatalf("parseLevel(%q) error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if _, err := parseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoggerRejectsBadAddSource(t *testing.T) {
	unsetLoggingEnv(t)
	t.Setenv("VKCOMMANDS_LOG_ADD_SOURCE", "maybe")
	defer unsetLoggingEnv(t)

	if _, err := newWithWriter(config.LoggingConfig{}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for invalid VKCOMMANDS_LOG_ADD_SOURCE")
	}
}

func unsetLoggingEnv(t *testing.T) {
	t.Helper()
	_ = os.Unsetenv("VKCOMMANDS_LOG_LEVEL")
	_ = os.Unsetenv("VKCOMMANDS_LOG_FORMAT")
	_ = os.Unsetenv("VKCOMMANDS_LOG_ADD_SOURCE")
}
