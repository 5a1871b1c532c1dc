package settings

import (
	"testing"
	"time"

	"github.com/user/h264session/pkg/ports"
)

func TestDiffNoChange(t *testing.T) {
	plan := Diff(Defaults(), Defaults())
	if !plan.Empty() || len(plan.Changed) != 0 {
		t.Errorf("Diff(same) = %+v, want empty", plan)
	}
}

func TestDiffRebuild(t *testing.T) {
	for _, name := range []Name{Width, Height, ProfileLevelName, EnabledHardwareEncoder, ScalingModeName} {
		t.Run(string(name), func(t *testing.T) {
			next := Defaults()
			switch name {
			case Width:
				next.Width = 640
			case Height:
				next.Height = 360
			case ProfileLevelName:
				next.ProfileLevel = ProfileHighAutoLevel
			case EnabledHardwareEncoder:
				next.EnabledHardwareEncoder = false
			case ScalingModeName:
				next.ScalingMode = ScalingLetterbox
			}
			plan := Diff(Defaults(), next)
			if !plan.Rebuild {
				t.Fatal("Rebuild = false")
			}
			if len(plan.RebuildCauses) != 1 || plan.RebuildCauses[0] != name {
				t.Errorf("RebuildCauses = %v", plan.RebuildCauses)
			}
		})
	}
}

func TestDiffLive(t *testing.T) {
	next := Defaults()
	next.Bitrate = 800000
	next.MaxKeyFrameIntervalDuration = 1
	next.ExpectedFrameRate = 60

	plan := Diff(Defaults(), next)
	if plan.Rebuild {
		t.Fatal("Rebuild = true for live-only changes")
	}
	want := []ports.PropertyKey{
		ports.PropertyAverageBitRate,
		ports.PropertyMaxKeyFrameIntervalDuration,
		ports.PropertyExpectedFrameRate,
	}
	if len(plan.Live) != len(want) {
		t.Fatalf("Live = %+v", plan.Live)
	}
	for i, k := range want {
		if plan.Live[i].Key != k {
			t.Errorf("Live[%d].Key = %s, want %s", i, plan.Live[i].Key, k)
		}
	}
	if plan.Live[0].Value != 800000 {
		t.Errorf("bitrate value = %v", plan.Live[0].Value)
	}
}

func TestDiffRebuildDropsLive(t *testing.T) {
	next := Defaults()
	next.Width = 640
	next.Bitrate = 800000
	plan := Diff(Defaults(), next)
	if !plan.Rebuild || len(plan.Live) != 0 {
		t.Errorf("plan = %+v, want rebuild without live updates", plan)
	}
	if len(plan.Changed) != 2 {
		t.Errorf("Changed = %v", plan.Changed)
	}
}

func TestDiffDataRateLimits(t *testing.T) {
	limited := Defaults()
	limited.DataRateLimits = DataRateLimits{Bytes: 1000, Window: time.Second}

	plan := Diff(Defaults(), limited)
	if plan.Rebuild || len(plan.Live) != 1 {
		t.Fatalf("set limits: plan = %+v, want one live update", plan)
	}
	v, ok := plan.Live[0].Value.([]float64)
	if !ok || v[0] != 1000 || v[1] != 1 {
		t.Errorf("value = %v", plan.Live[0].Value)
	}

	plan = Diff(limited, Defaults())
	if !plan.Rebuild {
		t.Errorf("reset limits: plan = %+v, want rebuild", plan)
	}
}

func TestDiffMutedOnly(t *testing.T) {
	next := Defaults()
	next.Muted = true
	plan := Diff(Defaults(), next)
	if !plan.Empty() {
		t.Errorf("plan = %+v, want no session action", plan)
	}
	if len(plan.Changed) != 1 || plan.Changed[0] != Muted {
		t.Errorf("Changed = %v", plan.Changed)
	}
}
