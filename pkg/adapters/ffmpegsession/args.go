package ffmpegsession

import (
	"fmt"
	"math"
	"strings"
)

// encodeConfig is the staged configuration of a session before ffmpeg starts.
type encodeConfig struct {
	width, height int
	realTime      bool
	profileLevel  string
	entropy       string
	keyInterval   int
	keyDuration   float64
	bitrate       int
	frameRate     float64
	limits        []float64
}

func defaultConfig(width, height int) encodeConfig {
	return encodeConfig{
		width:     width,
		height:    height,
		realTime:  true,
		frameRate: 30,
		bitrate:   160 * 1024,
	}
}

// gopLength returns the key frame interval in frames. The tighter of the
// frame count and the duration limit wins.
func (c encodeConfig) gopLength() int {
	gop := c.keyInterval
	if c.keyDuration > 0 && c.frameRate > 0 {
		byDuration := int(math.Round(c.keyDuration * c.frameRate))
		if byDuration < 1 {
			byDuration = 1
		}
		if gop == 0 || byDuration < gop {
			gop = byDuration
		}
	}
	if gop == 0 {
		gop = 250
	}
	return gop
}

// profileArgs maps a profile/level identifier such as "H264_Main_4_1" to
// libx264 options.
func profileArgs(profileLevel string) []string {
	parts := strings.Split(profileLevel, "_")
	if len(parts) < 2 {
		return nil
	}
	var args []string
	switch strings.ToLower(parts[1]) {
	case "baseline":
		args = append(args, "-profile:v", "baseline")
	case "main":
		args = append(args, "-profile:v", "main")
	case "high":
		args = append(args, "-profile:v", "high")
	default:
		return nil
	}
	if len(parts) == 4 {
		args = append(args, "-level", parts[2]+"."+parts[3])
	}
	return args
}

// buildArgs returns the ffmpeg command line: raw RGBA frames on stdin, an
// Annex-B elementary stream with access unit delimiters on stdout.
func buildArgs(c encodeConfig) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", c.width, c.height),
		"-r", fmt.Sprintf("%g", c.frameRate),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-preset", "veryfast",
	}
	if c.realTime {
		args = append(args, "-tune", "zerolatency")
	}
	args = append(args, profileArgs(c.profileLevel)...)

	x264 := []string{"aud=1"}
	if c.entropy == "CAVLC" {
		x264 = append(x264, "cabac=0")
	}

	args = append(args,
		"-b:v", fmt.Sprintf("%d", c.bitrate),
		"-g", fmt.Sprintf("%d", c.gopLength()),
		"-bf", "0",
	)
	if len(c.limits) == 2 && c.limits[0] > 0 && c.limits[1] > 0 {
		maxrate := int(c.limits[0] * 8 / c.limits[1])
		args = append(args,
			"-maxrate", fmt.Sprintf("%d", maxrate),
			"-bufsize", fmt.Sprintf("%d", int(c.limits[0]*8)),
		)
	}
	args = append(args,
		"-x264-params", strings.Join(x264, ":"),
		"-pix_fmt", "yuv420p",
		"-f", "h264",
		"pipe:1",
	)
	return args
}
