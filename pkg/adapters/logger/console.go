// Package logger provides logging implementations.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/user/h264session/pkg/ports"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// DefaultRepeatWindow is how long identical messages are folded together.
const DefaultRepeatWindow = time.Second

// ConsoleLogger logs messages to the console with color support.
//
// Per-frame messages such as encoder drops arrive at the frame rate, so a
// message key that repeats from the same component within the repeat window
// is printed once and then folded into a "repeated N times" line.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	out       *output
}

// output is shared by a logger and every component logger derived from it.
type output struct {
	mu       sync.Mutex
	stdout   io.Writer
	stderr   io.Writer
	color    bool
	window   time.Duration
	now      func() time.Time
	last     repeatKey
	lastAt   time.Time
	repeated int
}

type repeatKey struct {
	level     ports.LogLevel
	component string
	msg       string
}

// NewConsole creates a new console logger with the specified level.
// Color output is automatically enabled when stdout is a terminal.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	return NewConsoleWriter(level, os.Stdout, os.Stderr)
}

// NewConsoleWriter creates a console logger writing debug and info lines to
// stdout and warnings and errors to stderr. Color is enabled only when stdout
// is a terminal.
func NewConsoleWriter(level ports.LogLevel, stdout, stderr io.Writer) *ConsoleLogger {
	return &ConsoleLogger{
		level: level,
		out: &output{
			stdout: stdout,
			stderr: stderr,
			color:  isTerminal(stdout),
			window: DefaultRepeatWindow,
			now:    time.Now,
		},
	}
}

// SetRepeatWindow changes how long repeated messages are folded. Zero
// disables folding. It affects every logger sharing this output.
func (l *ConsoleLogger) SetRepeatWindow(d time.Duration) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.window = d
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Debug logs a debug message.
func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	l.log(ports.LevelDebug, msg, args...)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	l.log(ports.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	l.log(ports.LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	l.log(ports.LevelError, msg, args...)
}

// WithComponent returns a logger for a component. Components nest, so a
// "ffmpeg" logger derived from a "session" logger prints [session/ffmpeg].
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	if l.component != "" {
		component = l.component + "/" + component
	}
	return &ConsoleLogger{
		level:     l.level,
		component: component,
		out:       l.out,
	}
}

// Flush prints a pending repeat count.
func (l *ConsoleLogger) Flush() {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.flushRepeatLocked()
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args ...interface{}) {
	if level < l.level {
		return
	}

	o := l.out
	o.mu.Lock()
	defer o.mu.Unlock()

	key := repeatKey{level: level, component: l.component, msg: msg}
	now := o.now()
	if o.window > 0 && key == o.last && now.Sub(o.lastAt) < o.window {
		o.repeated++
		return
	}
	o.flushRepeatLocked()
	o.last, o.lastAt = key, now

	o.writeLocked(level, l.component, l10n.F(msg, args...))
}

func (o *output) flushRepeatLocked() {
	if o.repeated == 0 {
		return
	}
	n := o.repeated
	o.repeated = 0
	o.writeLocked(o.last.level, o.last.component, l10n.F("Last message repeated %d times", n))
}

func (o *output) writeLocked(level ports.LogLevel, component, text string) {
	line := text
	if component != "" {
		if o.color {
			line = fmt.Sprintf("%s[%s]%s %s", colorCyan, component, colorReset, text)
		} else {
			line = fmt.Sprintf("[%s] %s", component, text)
		}
	}

	if o.color {
		switch level {
		case ports.LevelDebug:
			line = colorGray + line + colorReset
		case ports.LevelWarn:
			line = colorYellow + line + colorReset
		case ports.LevelError:
			line = colorRed + line + colorReset
		}
	}

	if level >= ports.LevelWarn {
		fmt.Fprintln(o.stderr, line)
	} else {
		fmt.Fprintln(o.stdout, line)
	}
}

// Ensure ConsoleLogger implements ports.Logger
var _ ports.Logger = (*ConsoleLogger)(nil)
