package ports

import "strings"

// LogLevel is the severity of a log message.
type LogLevel int

const (
	// LevelDebug is for per-session and per-frame detail: session creation,
	// property application, format changes.
	LevelDebug LogLevel = iota
	// LevelInfo is for run-level progress.
	LevelInfo
	// LevelWarn is for soft failures the manager recovers from.
	LevelWarn
	// LevelError is for failures that end a run.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

var levelNames = []string{"debug", "info", "warn", "error", "quiet"}

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelQuiet {
		return "unknown"
	}
	return levelNames[l]
}

// LogLevelNames lists the accepted level names in severity order.
func LogLevelNames() []string {
	return append([]string(nil), levelNames...)
}

// ParseLogLevel parses a level name, ignoring case. "warning" is accepted
// for warn. Unknown names give LevelInfo.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return LevelWarn
	}
	for i, name := range levelNames {
		if s == name {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

// Logger is the logging port. Messages are translation keys formatted with
// args, so the same key must always be used with the same verbs.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with the
	// component name.
	WithComponent(component string) Logger
}
