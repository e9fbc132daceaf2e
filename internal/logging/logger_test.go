package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetupLoggerLevels(t *testing.T) {
	originalLogger := defaultLogger
	defer func() { defaultLogger = originalLogger }()

	testCases := []struct {
		name        string
		level       LogLevel
		wantDebug   bool
		wantWarn    bool
	}{
		{name: "debug passes everything", level: LevelDebug, wantDebug: true, wantWarn: true},
		{name: "info drops debug", level: LevelInfo, wantDebug: false, wantWarn: true},
		{name: "error drops warn", level: LevelError, wantDebug: false, wantWarn: false},
		{name: "unknown defaults to info", level: LogLevel("verbose"), wantDebug: false, wantWarn: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetupLogger(&buf, tc.level)

			Debug("debug entry")
			if got := strings.Contains(buf.String(), "debug entry"); got != tc.wantDebug {
				t.Errorf("debug logged = %v, want %v (output: %s)", got, tc.wantDebug, buf.String())
			}

			buf.Reset()
			Warn("warn entry")
			if got := strings.Contains(buf.String(), "warn entry"); got != tc.wantWarn {
				t.Errorf("warn logged = %v, want %v (output: %s)", got, tc.wantWarn, buf.String())
			}
		})
	}
}

func TestLoggingIncludesKeyValues(t *testing.T) {
	originalLogger := defaultLogger
	defer func() { defaultLogger = originalLogger }()

	var buf bytes.Buffer
	SetupLogger(&buf, LevelInfo)

	Info("analysis created", "id", "a-1", "proposals", 3)

	output := buf.String()
	for _, want := range []string{"INFO", "analysis created", "id=a-1", "proposals=3"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestGetLogger(t *testing.T) {
	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil")
	}
}

func TestMaskSensitive(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: "<not set>"},
		{name: "too short to sample", input: "abcd", expected: "<set>"},
		{name: "api token", input: "ATATT3xFfGF0abcdef", expected: "ATAT...***"},
		{name: "anthropic key", input: "sk-ant-api03-xyz", expected: "sk-a...***"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaskSensitive(tc.input); got != tc.expected {
				t.Errorf("MaskSensitive(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}
