package mp4probe

import (
	"errors"
	"testing"
)

func TestProbeBytes_Invalid(t *testing.T) {
	if _, err := ProbeBytes([]byte("not an mp4 file")); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestProbeFile_Missing(t *testing.T) {
	_, err := ProbeFile(t.TempDir() + "/missing.mp4")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrNoVideoTrack) {
		t.Errorf("expected open error, got %v", err)
	}
}
