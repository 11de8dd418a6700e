package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger
var Log = New(os.Getenv("LOG_LEVEL"))

// New builds a logrus logger writing text to stderr at the given level.
// Unknown or empty levels fall back to info.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	return l
}

// SetLevel changes the level of Log, ignoring unknown level names
func SetLevel(level string) {
	if parsed, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		Log.SetLevel(parsed)
	}
}
