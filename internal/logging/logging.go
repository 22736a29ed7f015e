package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// LevelFromString maps a LOG_LEVEL value to a zerolog level. Unknown values
// fall back to info.
func LevelFromString(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return zerolog.ErrorLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "info", "":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	case "trace":
		return zerolog.TraceLevel
	}
	return zerolog.InfoLevel
}

func sink(format string, w io.Writer, color bool) io.Writer {
	if strings.ToLower(format) == FormatJSON {
		return w
	}
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime, NoColor: !color}
}

// New builds the process logger writing to w.
func New(level, format string, w io.Writer) zerolog.Logger {
	return zerolog.New(sink(format, w, true)).
		Level(LevelFromString(level)).
		With().Timestamp().Logger()
}

// NewTee builds a logger writing to w and, uncoloured, to run. Server mode
// uses it to capture a run's log lines for streaming.
func NewTee(level, format string, w, run io.Writer) zerolog.Logger {
	out := zerolog.MultiLevelWriter(sink(format, w, true), sink(format, run, false))
	return zerolog.New(out).
		Level(LevelFromString(level)).
		With().Timestamp().Logger()
}
