package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggingBeforeInit(t *testing.T) {
	defaultLogger = nil
	// Must not panic without a configured logger.
	Debug("debug %d", 1)
	Info("info %s", "x")
	Warn("warn")
	Error("error")
	Sync()
}

func TestInitFormats(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		Init("debug", format)
		if defaultLogger == nil {
			t.Fatalf("Expected logger after Init(%q)", format)
		}
		Info("initialized with %s", format)
	}
}
