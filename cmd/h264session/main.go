// Package main provides the CLI entry point for h264session.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/h264session/pkg/adapters/backend"
	"github.com/user/h264session/pkg/adapters/lifecycle"
	"github.com/user/h264session/pkg/adapters/logger"
	"github.com/user/h264session/pkg/adapters/mp4probe"
	"github.com/user/h264session/pkg/adapters/mp4writer"
	"github.com/user/h264session/pkg/adapters/osfilesystem"
	"github.com/user/h264session/pkg/adapters/promobserver"
	"github.com/user/h264session/pkg/adapters/screencast"
	"github.com/user/h264session/pkg/adapters/testpattern"
	"github.com/user/h264session/pkg/config"
	"github.com/user/h264session/pkg/ports"
	"github.com/user/h264session/pkg/runner"
	"github.com/user/h264session/pkg/session"
	"github.com/user/h264session/pkg/settings"
	"github.com/user/h264session/pkg/summarizer"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "h264session",
		Usage:   l10n.T("Drive an H.264 compression session from a frame source"),
		Version: version,
		Commands: []*cli.Command{
			encodeCommand(),
			propertiesCommand(),
			settingsCommand(),
			probeCommand(),
			versionCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    l10n.T("YAML configuration file"),
			Category: l10n.T("Configuration"),
		},
		&cli.StringFlag{
			Name:     "backend",
			Aliases:  []string{"b"},
			Usage:    l10n.T("Compression backend (auto, videotoolbox, ffmpeg, passthrough)"),
			Category: l10n.T("Backend"),
		},
		&cli.StringFlag{
			Name:     "ffmpeg-path",
			Usage:    l10n.T("Path to ffmpeg executable"),
			EnvVars:  []string{"FFMPEG_PATH"},
			Category: l10n.T("Backend"),
		},
		&cli.BoolFlag{
			Name:     "allow-passthrough",
			Usage:    l10n.T("Fall back to the passthrough backend when no encoder is available"),
			Category: l10n.T("Backend"),
		},
		&cli.StringSliceFlag{
			Name:     "set",
			Aliases:  []string{"s"},
			Usage:    l10n.T("Encoder setting as name=value (repeatable)"),
			Category: l10n.T("Encoder"),
		},
		&cli.StringFlag{
			Name:     "log-level",
			Aliases:  []string{"l"},
			Usage:    l10n.T("Log level (debug, info, warn, error)"),
			Category: l10n.T("Logging"),
		},
		&cli.BoolFlag{
			Name:     "quiet",
			Aliases:  []string{"Q"},
			Usage:    l10n.T("Suppress all log output"),
			Category: l10n.T("Logging"),
		},
	}
}

func encodeCommand() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:     "source",
			Usage:    l10n.T("Frame source (testpattern, screencast)"),
			Category: l10n.T("Source"),
		},
		&cli.StringFlag{
			Name:     "url",
			Aliases:  []string{"u"},
			Usage:    l10n.T("URL to record with the screencast source"),
			Category: l10n.T("Source"),
		},
		&cli.StringFlag{
			Name:     "chrome-path",
			Usage:    l10n.T("Path to Chrome executable"),
			Category: l10n.T("Source"),
		},
		&cli.IntFlag{
			Name:     "frames",
			Aliases:  []string{"n"},
			Usage:    l10n.T("Number of frames to encode (0 = until the source ends)"),
			Category: l10n.T("Source"),
		},
		&cli.DurationFlag{
			Name:     "duration",
			Usage:    l10n.T("Screencast recording duration"),
			Category: l10n.T("Source"),
		},
		&cli.BoolFlag{
			Name:     "realtime",
			Usage:    l10n.T("Pace test pattern frames in real time"),
			Category: l10n.T("Source"),
		},
		&cli.StringSliceFlag{
			Name:     "change",
			Usage:    l10n.T("Scheduled change as frame:name=value, frame:suspend, frame:resume or frame:invalidate (repeatable)"),
			Category: l10n.T("Session"),
		},
		&cli.StringFlag{
			Name:     "timestamps",
			Usage:    l10n.T("Timestamp policy (synthetic, caller)"),
			Category: l10n.T("Session"),
		},
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Usage:    l10n.T("Output directory for MP4 segments"),
			Category: l10n.T("Output"),
		},
		&cli.StringFlag{
			Name:     "summary",
			Usage:    l10n.T("Write a run summary to this file (Markdown format)"),
			Category: l10n.T("Output"),
		},
		&cli.StringFlag{
			Name:     "metrics-addr",
			Usage:    l10n.T("Serve Prometheus metrics on this address (e.g., :9090)"),
			Category: l10n.T("Output"),
		},
	)

	return &cli.Command{
		Name:   "encode",
		Usage:  l10n.T("Encode frames from a source into fragmented MP4 segments"),
		Flags:  flags,
		Action: runEncode,
	}
}

func propertiesCommand() *cli.Command {
	return &cli.Command{
		Name:   "properties",
		Usage:  l10n.T("List the session properties supported by a backend"),
		Flags:  commonFlags(),
		Action: runProperties,
	}
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:   "settings",
		Usage:  l10n.T("List encoder settings with their class and value"),
		Flags:  commonFlags(),
		Action: runSettings,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Summarize fragmented MP4 segments"),
		ArgsUsage: "FILE...",
		Action:    runProbe,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Println(l10n.F("h264session version %s", version))
			return nil
		},
	}
}

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("allow-passthrough") {
		cfg.AllowPassthrough = c.Bool("allow-passthrough")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	for _, kv := range c.StringSlice("set") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return cfg, fmt.Errorf("%s: %s", l10n.T("expected name=value"), kv)
		}
		cfg.SetEncoder(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if c.IsSet("source") {
		cfg.Source.Kind = c.String("source")
	}
	if c.IsSet("url") {
		cfg.Source.URL = c.String("url")
		if !c.IsSet("source") {
			cfg.Source.Kind = "screencast"
		}
	}
	if c.IsSet("chrome-path") {
		cfg.Source.ChromePath = c.String("chrome-path")
	}
	if c.IsSet("frames") {
		cfg.Source.Frames = c.Int("frames")
	}
	if c.IsSet("duration") {
		cfg.Source.Duration = c.Duration("duration")
	}
	if c.IsSet("realtime") {
		cfg.Source.Realtime = c.Bool("realtime")
	}
	if c.IsSet("change") {
		cfg.Changes = append(cfg.Changes, c.StringSlice("change")...)
	}
	if c.IsSet("timestamps") {
		cfg.Session.Timestamps = c.String("timestamps")
	}
	if c.IsSet("output") {
		cfg.Output.Dir = c.String("output")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}

	return cfg, nil
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
}

func selectBackend(cfg config.Config, log ports.Logger) (ports.CompressionService, error) {
	kind, err := backend.ParseKind(cfg.Backend)
	if err != nil {
		return nil, err
	}
	svc, info, err := backend.Select(kind, backend.Options{
		FFmpegPath:       cfg.FFmpegPath,
		AllowPassthrough: cfg.AllowPassthrough,
		Logger:           log,
	})
	if err != nil {
		return nil, err
	}
	log.Info("Using %s backend", info.Backend)
	return svc, nil
}

func newSource(cfg config.Config, s settings.EncoderSettings, log ports.Logger) (ports.FrameSource, error) {
	switch cfg.Source.Kind {
	case "testpattern", "":
		return testpattern.New(testpattern.Options{
			Width:     s.Width,
			Height:    s.Height,
			FrameRate: cfg.Source.FPS,
			Count:     cfg.Source.Frames,
			Realtime:  cfg.Source.Realtime,
			FontPath:  cfg.Source.FontPath,
		}, log), nil
	case "screencast":
		if cfg.Source.URL == "" {
			return nil, errors.New(l10n.T("URL is required for the screencast source"))
		}
		return screencast.New(screencast.Options{
			URL:        cfg.Source.URL,
			ChromePath: cfg.Source.ChromePath,
			Width:      s.Width,
			Height:     s.Height,
			Quality:    cfg.Source.Quality,
			Headless:   cfg.Source.Headless,
			Duration:   cfg.Source.Duration,
		}, log), nil
	default:
		return nil, fmt.Errorf("%s: %q", l10n.T("unknown source"), cfg.Source.Kind)
	}
}

func runEncode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)
	if cl, ok := log.(*logger.ConsoleLogger); ok {
		defer cl.Flush()
	}

	opts, err := cfg.ToManagerOptions()
	if err != nil {
		return err
	}
	changes, err := runner.ParseChanges(cfg.Changes)
	if err != nil {
		return err
	}

	svc, err := selectBackend(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	observer := promobserver.New()
	opts.Metrics = observer
	if cfg.MetricsAddr != "" {
		go func() {
			if err := observer.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Warn("Metrics server stopped: %v", err)
			}
		}()
		log.Info("Serving metrics on %s", cfg.MetricsAddr)
	}

	events := lifecycle.NewBroadcaster()
	events.RelaySignals(ctx, lifecycle.DefaultSignals())

	store := osfilesystem.New(cfg.Output.Dir)
	writer := mp4writer.New(store, cfg.Output.Base, log)

	mgr := session.New(svc, events, log, opts)
	mgr.SetDelegate(writer)

	src, err := newSource(cfg, opts.Settings, log)
	if err != nil {
		return err
	}
	defer src.Close()

	log.Info("Encoding %dx%d at %d bps", opts.Settings.Width, opts.Settings.Height, opts.Settings.Bitrate)

	mgr.Start()
	stats, runErr := runner.New(mgr, log, runner.Options{
		Changes:   changes,
		MaxFrames: cfg.Source.Frames,
	}).Run(ctx, src)
	mgr.Stop()

	if err := writer.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if c.Context.Err() != nil {
		log.Warn("Interrupted, shutting down...")
	}

	ws := writer.Stats()
	printSummary(stats, ws, store)

	if path := c.String("summary"); path != "" {
		summary := buildSummary(cfg, svc.Name(), mgr, stats, ws)
		if err := summarizer.NewWriter(summarizer.NewMarkdownFormatter()).Write(path, summary); err != nil {
			log.Warn("Failed to write summary: %v", err)
		} else {
			log.Info("Summary saved to %s", path)
		}
	}
	return runErr
}

func buildSummary(cfg config.Config, backendName string, mgr *session.Manager, stats runner.Stats, ws mp4writer.Stats) *summarizer.Summary {
	results := make(map[string]int, len(stats.Results))
	for r, n := range stats.Results {
		results[r.String()] = n
	}

	return summarizer.NewBuilder().
		WithBackend(backendName).
		WithSource(cfg.Source.Kind, cfg.Source.URL).
		WithSettings(mgr.Settings()).
		WithRun(summarizer.RunInfo{
			Frames:          stats.Frames,
			Results:         results,
			ChangesApplied:  stats.Changes,
			ChangesRejected: stats.Rejected,
			Elapsed:         stats.Elapsed,
			LastStatus:      mgr.LastStatus().String(),
		}).
		WithOutput(summarizer.OutputInfo{
			Dir:       cfg.Output.Dir,
			Segments:  ws.Names,
			Fragments: ws.Fragments,
			Samples:   ws.Samples,
			Bytes:     ws.Bytes,
			Dropped:   ws.Dropped,
		}).
		Build()
}

func printSummary(stats runner.Stats, ws mp4writer.Stats, store *osfilesystem.Store) {
	fmt.Println(l10n.F("Frames: %d in %s", stats.Frames, stats.Elapsed.Round(time.Millisecond)))

	results := make([]session.Result, 0, len(stats.Results))
	for r := range stats.Results {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for _, r := range results {
		fmt.Printf("  %-20s %d\n", r, stats.Results[r])
	}
	if stats.Changes+stats.Rejected > 0 {
		fmt.Println(l10n.F("Changes: %d applied, %d rejected", stats.Changes, stats.Rejected))
	}

	fmt.Println(l10n.F("Segments: %d, Fragments: %d, Samples: %d, Bytes: %d", ws.Segments, ws.Fragments, ws.Samples, ws.Bytes))
	for _, name := range ws.Names {
		fmt.Printf("  %s\n", store.Path(name))
	}
}

func runProperties(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	opts, err := cfg.ToManagerOptions()
	if err != nil {
		return err
	}
	svc, err := selectBackend(cfg, log)
	if err != nil {
		return err
	}

	mgr := session.New(svc, nil, log, opts)
	mgr.SetDelegate(ports.DelegateFuncs{})
	mgr.Start()
	defer mgr.Stop()

	src := testpattern.New(testpattern.Options{Width: opts.Settings.Width, Height: opts.Settings.Height, Count: 1}, log)
	frame := src.Draw(0)
	if res := mgr.SubmitFrame(frame, 0, 0); res != session.ResultSubmitted {
		return fmt.Errorf("%s: %s (%s)", l10n.T("could not open a session"), res, mgr.LastStatus())
	}

	fmt.Println(l10n.F("Backend: %s", svc.Name()))
	for _, key := range mgr.SupportedProperties() {
		fmt.Printf("  %s\n", key)
	}
	return nil
}

func runSettings(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, err := cfg.ToSettings()
	if err != nil {
		return err
	}

	for _, name := range settings.Names() {
		class, err := settings.Classify(name, s)
		if err != nil {
			return err
		}
		value, _ := s.Get(name)
		fmt.Printf("%-28s %-8s %v\n", name, class, value)
	}
	return nil
}

func runProbe(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New(l10n.T("at least one file is required"))
	}

	for _, path := range c.Args().Slice() {
		res, err := mp4probe.ProbeFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Println(path)
		if res.Format != nil {
			fmt.Printf("  %s %dx%d\n", res.Format.CodecString(), res.Format.Width, res.Format.Height)
		}
		fmt.Println(l10n.F("  Fragments: %d, Samples: %d, Keyframes: %d", res.Fragments, res.Samples, res.Keyframes))
		fmt.Println(l10n.F("  Duration: %s, Bytes: %d", res.Duration.Round(time.Millisecond), res.Bytes))
		if !res.FragmentsStartWithKeyframe {
			fmt.Println(l10n.T("  Warning: a fragment does not start with a keyframe"))
		}
	}
	return nil
}
