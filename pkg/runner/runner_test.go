package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/h264session/pkg/adapters/logger"
	"github.com/user/h264session/pkg/mocks"
	"github.com/user/h264session/pkg/ports"
	"github.com/user/h264session/pkg/session"
)

func TestParseChange(t *testing.T) {
	tests := []struct {
		in      string
		want    Change
		wantErr bool
	}{
		{in: "120:width=640", want: Change{Frame: 120, Action: ActionSet, Name: "width", Value: "640"}},
		{in: " 5 : bitrate = 500000 ", want: Change{Frame: 5, Action: ActionSet, Name: "bitrate", Value: "500000"}},
		{in: "30:suspend", want: Change{Frame: 30, Action: ActionSuspend}},
		{in: "40:Resume", want: Change{Frame: 40, Action: ActionResume}},
		{in: "0:invalidate", want: Change{Frame: 0, Action: ActionInvalidate}},
		{in: "width=640", wantErr: true},
		{in: "x:width=640", wantErr: true},
		{in: "-1:suspend", wantErr: true},
		{in: "3:=1", wantErr: true},
		{in: "3:explode", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseChange(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidChange) {
				t.Errorf("%q: expected ErrInvalidChange, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: expected %+v, got %+v", tt.in, tt.want, got)
		}
	}
}

func TestParseChanges_Ordered(t *testing.T) {
	changes, err := ParseChanges([]string{"20:resume", "10:width=320", "20:height=240", "10:suspend"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"10:width=320", "10:suspend", "20:resume", "20:height=240"}
	if len(changes) != len(want) {
		t.Fatalf("expected %d changes, got %d", len(want), len(changes))
	}
	for i, c := range changes {
		if c.String() != want[i] {
			t.Errorf("change %d: expected %s, got %s", i, want[i], c)
		}
	}
}

func newManager(t *testing.T) (*session.Manager, *mocks.CompressionService) {
	t.Helper()
	svc := &mocks.CompressionService{}
	m := session.New(svc, nil, logger.NewNoop(), session.Options{})
	m.SetDelegate(&mocks.Delegate{})
	t.Cleanup(m.Stop)
	return m, svc
}

func TestRunner_SubmitsAllFrames(t *testing.T) {
	m, svc := newManager(t)
	m.Start()

	src := &mocks.FrameSource{Count: 12, Interval: 40 * time.Millisecond}
	r := New(m, logger.NewNoop(), Options{})
	stats, err := r.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Frames != 12 {
		t.Errorf("expected 12 frames, got %d", stats.Frames)
	}
	if stats.Results[session.ResultSubmitted] != 12 {
		t.Errorf("expected 12 submitted, got %v", stats.Results)
	}
	if stats.LastFrame != 11*40*time.Millisecond {
		t.Errorf("expected last frame at 440ms, got %v", stats.LastFrame)
	}
	sessions := svc.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if n := len(sessions[0].Frames()); n != 12 {
		t.Errorf("expected 12 encoded frames, got %d", n)
	}
}

func TestRunner_MaxFrames(t *testing.T) {
	m, _ := newManager(t)
	m.Start()

	src := &mocks.FrameSource{Count: 50, Interval: time.Millisecond}
	stats, err := New(m, logger.NewNoop(), Options{MaxFrames: 7}).Run(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Frames != 7 {
		t.Errorf("expected 7 frames, got %d", stats.Frames)
	}
}

func TestRunner_AppliesChanges(t *testing.T) {
	m, svc := newManager(t)
	m.Start()

	changes, err := ParseChanges([]string{
		"4:width=320",
		"6:suspend",
		"8:resume",
		"9:bogus=1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src := &mocks.FrameSource{Count: 10, Interval: 10 * time.Millisecond}
	stats, err := New(m, logger.NewNoop(), Options{Changes: changes}).Run(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Changes != 3 {
		t.Errorf("expected 3 applied changes, got %d", stats.Changes)
	}
	if stats.Rejected != 1 {
		t.Errorf("expected 1 rejected change, got %d", stats.Rejected)
	}
	if stats.Results[session.ResultLocked] != 2 {
		t.Errorf("expected 2 locked frames, got %v", stats.Results)
	}
	if stats.Results[session.ResultSubmitted] != 8 {
		t.Errorf("expected 8 submitted frames, got %v", stats.Results)
	}

	specs := svc.Specs()
	if len(specs) != 2 {
		t.Fatalf("expected 2 sessions after width change, got %d", len(specs))
	}
	if specs[1].Width != 320 {
		t.Errorf("expected rebuilt width 320, got %d", specs[1].Width)
	}
	if m.Settings().Width != 320 {
		t.Errorf("expected settings width 320, got %d", m.Settings().Width)
	}
}

func TestRunner_NotRunning(t *testing.T) {
	m, _ := newManager(t)

	src := &mocks.FrameSource{Count: 3}
	stats, err := New(m, logger.NewNoop(), Options{}).Run(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Results[session.ResultNotRunning] != 3 {
		t.Errorf("expected 3 not-running results, got %v", stats.Results)
	}
}

func TestRunner_SourceError(t *testing.T) {
	m, _ := newManager(t)
	boom := errors.New("boom")
	src := &mocks.FrameSource{
		FramesFunc: func(ctx context.Context) (<-chan ports.Frame, error) {
			return nil, boom
		},
	}
	_, err := New(m, logger.NewNoop(), Options{}).Run(context.Background(), src)
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestRunner_ContextCancel(t *testing.T) {
	m, _ := newManager(t)
	m.Start()

	ctx, cancel := context.WithCancel(context.Background())
	src := &mocks.FrameSource{
		FramesFunc: func(ctx context.Context) (<-chan ports.Frame, error) {
			return make(chan ports.Frame), nil
		},
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := New(m, logger.NewNoop(), Options{}).Run(ctx, src); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop on cancel")
	}
}
