package ports

import "testing"

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"quiet", LevelQuiet},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestLogLevel_String(t *testing.T) {
	for _, name := range LogLevelNames() {
		if got := ParseLogLevel(name).String(); got != name {
			t.Errorf("expected %s, got %s", name, got)
		}
	}
	if got := LogLevel(42).String(); got != "unknown" {
		t.Errorf("expected unknown, got %s", got)
	}
}
