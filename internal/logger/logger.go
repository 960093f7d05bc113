// Package logger provides a centralized, leveled logging facility shared by
// the solvers, the HTTP server and the command-line harness.
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Output goes through a single logrus logger writing text with full
// timestamps to standard error, so diagnostics never mix with the report
// written to standard output.
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("solving %d scenarios", n)
//	logger.Tracef("iter=%d sigma=%f", i, sigma)
package logger

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs only failures.
	Info               // Info logs high-level progress.
	Debug              // Debug logs solver results and request details.
	Trace              // Trace logs every solver iteration.
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// toLogrus maps a verbosity level onto the logrus level that admits it.
func toLogrus(l Level) logrus.Level {
	switch {
	case l <= Error:
		return logrus.ErrorLevel
	case l == Info:
		return logrus.InfoLevel
	case l == Debug:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// SetVerbosity sets the global logging verbosity.
// Typically called once during startup after the configuration is loaded.
func SetVerbosity(v int) {
	log.SetLevel(toLogrus(Level(v)))
}

// SetLevel sets verbosity by name ("error", "warn", "info", "debug", "trace")
// or by number (0 = Error .. 3 = Trace). Unknown names fall back to info.
func SetLevel(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if v, err := strconv.Atoi(name); err == nil {
		SetVerbosity(v)
		return
	}
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
}

// Enabled reports whether messages at level l are currently written.
// Use it to skip building expensive log arguments.
func Enabled(l Level) bool {
	return log.IsLevelEnabled(toLogrus(l))
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields map[string]any) *logrus.Entry {
	return log.WithFields(logrus.Fields(fields))
}

// Errorf logs an error-level message.
func Errorf(format string, args ...any) {
	log.Errorf(format, args...)
}

// Warnf logs a warning. Warnings are shown at Info verbosity and above.
func Warnf(format string, args ...any) {
	log.Warnf(format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	log.Infof(format, args...)
}

// Debugf logs debugging information.
func Debugf(format string, args ...any) {
	log.Debugf(format, args...)
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	log.Tracef(format, args...)
}
