package promobserver

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/user/h264session/pkg/ports"
)

func TestObserver_Counters(t *testing.T) {
	o := New()

	o.SessionCreated("passthrough")
	o.SessionCreated("passthrough")
	o.SessionCreateFailed("videotoolbox")
	o.SessionInvalidated("rebuild")
	o.FrameSubmitted(true)
	o.FrameSubmitted(false)
	o.FrameSubmitted(false)
	o.FrameDropped("locked")
	o.PropertyFailed(ports.PropertyAverageBitRate)
	o.SampleEmitted(1000, true)
	o.SampleEmitted(200, false)
	o.FormatChanged()

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"sessions created", testutil.ToFloat64(o.sessionsCreated.WithLabelValues("passthrough")), 2},
		{"create failures", testutil.ToFloat64(o.sessionCreateFailed.WithLabelValues("videotoolbox")), 1},
		{"invalidated", testutil.ToFloat64(o.sessionsInvalidated.WithLabelValues("rebuild")), 1},
		{"forced frames", testutil.ToFloat64(o.framesSubmitted.WithLabelValues("true")), 1},
		{"plain frames", testutil.ToFloat64(o.framesSubmitted.WithLabelValues("false")), 2},
		{"dropped", testutil.ToFloat64(o.framesDropped.WithLabelValues("locked")), 1},
		{"property failures", testutil.ToFloat64(o.propertyFailures.WithLabelValues(string(ports.PropertyAverageBitRate))), 1},
		{"keyframe samples", testutil.ToFloat64(o.samplesEmitted.WithLabelValues("true")), 1},
		{"sample bytes", testutil.ToFloat64(o.sampleBytes), 1200},
		{"format changes", testutil.ToFloat64(o.formatChanges), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, tt.got)
		}
	}

	if count := testutil.CollectAndCount(o.sampleSize); count != 1 {
		t.Errorf("expected 1 histogram series, got %d", count)
	}
}

func TestObserver_Handler(t *testing.T) {
	o := New()
	o.FormatChanged()

	srv := httptest.NewServer(o.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "h264session_format_changes_total") {
		t.Error("expected format change counter in exposition")
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("expected Go runtime metrics in exposition")
	}
}
