// Package log wraps a zerolog logger shared by the checks and daemons.
package log

import (
	"io"
	"os"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/journald"
	"github.com/rs/zerolog/log"
)

var Logger zerolog.Logger

func init() {
	// Console output goes to stderr; stdout belongs to the plugin status line.
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}
	setOutput(output, zerolog.InfoLevel)
}

func setOutput(w io.Writer, level zerolog.Level) {
	Logger = zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
	log.Logger = Logger
}

// Info logs an info message.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Error logs an error message.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Warn logs a warning message.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Debug logs a debug message.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Fatal logs a fatal message and exits.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// SetDebugMode switches the logger to debug level.
func SetDebugMode() {
	Logger = Logger.Level(zerolog.DebugLevel)
	log.Logger = Logger
}

// SetLevel sets the level by name ("debug", "info", "warn", ...).
// Unparseable names leave the level unchanged and return the error.
func SetLevel(name string) error {
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return err
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	Logger = Logger.Level(level)
	log.Logger = Logger
	return nil
}

// UseJournal redirects output to journald when the journal socket is
// available. It reports whether the switch happened.
func UseJournal() bool {
	if !journal.Enabled() {
		return false
	}
	setOutput(journald.NewJournalDWriter(), Logger.GetLevel())
	return true
}
