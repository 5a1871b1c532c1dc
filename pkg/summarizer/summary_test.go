package summarizer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/user/h264session/pkg/settings"
)

func testSummary() *Summary {
	return NewBuilder().
		WithBackend("passthrough").
		WithSource("screencast", "https://example.com").
		WithSettings(settings.Defaults()).
		WithRun(RunInfo{
			Frames:          100,
			Results:         map[string]int{"submitted": 95, "locked": 5},
			ChangesApplied:  2,
			ChangesRejected: 1,
			Elapsed:         4 * time.Second,
			LastStatus:      "ok",
		}).
		WithOutput(OutputInfo{
			Dir:       "/tmp/out",
			Segments:  []string{"out.mp4", "out-1.mp4"},
			Fragments: 4,
			Samples:   95,
			Bytes:     1024 * 1024,
		}).
		Build()
}

func TestBuilder(t *testing.T) {
	s := testSummary()

	if s.GeneratedAt.IsZero() {
		t.Error("expected GeneratedAt to be set")
	}
	if s.Backend != "passthrough" {
		t.Errorf("expected backend passthrough, got %s", s.Backend)
	}
	if s.Source.Detail != "https://example.com" {
		t.Errorf("expected source detail, got %q", s.Source.Detail)
	}
	if got := s.Run.FramesPerSecond(); got != 25 {
		t.Errorf("expected 25 fps, got %v", got)
	}
	if got := (RunInfo{Frames: 3}).FramesPerSecond(); got != 0 {
		t.Errorf("expected 0 fps without elapsed time, got %v", got)
	}
}

func TestMarkdownFormatter_Format(t *testing.T) {
	result := NewMarkdownFormatter().Format(testSummary())

	checks := []string{
		"# Encoding Summary",
		"| Backend | passthrough |",
		"screencast (https://example.com)",
		"| Frames | 100 |",
		"25.0 fps",
		"| locked | 5 |",
		"| submitted | 95 |",
		"2 applied, 1 rejected",
		"| width | 480 |",
		"| profileLevel | H264_Main_AutoLevel |",
		"1.00 MB",
		"- `out-1.mp4`",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}

	// Result rows are sorted by name.
	if strings.Index(result, "| locked |") > strings.Index(result, "| submitted |") {
		t.Error("expected results in name order")
	}
}

func TestMarkdownFormatter_Minimal(t *testing.T) {
	result := NewMarkdownFormatter().Format(&Summary{})

	if strings.Contains(result, "Changes") {
		t.Error("expected no changes row without changes")
	}
	if strings.Contains(result, "Dropped Samples") {
		t.Error("expected no dropped row without drops")
	}
	if !strings.Contains(result, "| Total Size | 0 B |") {
		t.Errorf("expected zero size row, got:\n%s", result)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "summary.md")
	w := NewWriter(FormatFunc(func(s *Summary) string { return "backend=" + s.Backend }))

	if err := w.Write(path, testSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "backend=passthrough" {
		t.Errorf("expected backend=passthrough, got %q", data)
	}
}

func TestWriter_WriteTo(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(NewMarkdownFormatter()).WriteTo(&buf, testSummary()); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "# Encoding Summary") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
