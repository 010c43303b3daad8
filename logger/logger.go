package logger

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

const appName = "metronome"

var (
	projectLogger *logrus.Logger
	once          sync.Once
)

// GetProjectLogger returns the process-wide logger, tagged with the app name.
func GetProjectLogger() *logrus.Entry {
	return logrus.NewEntry(base()).WithField("app", appName)
}

func base() *logrus.Logger {
	once.Do(func() {
		projectLogger = logrus.New()
		projectLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		projectLogger.SetLevel(logrus.InfoLevel)
	})
	return projectLogger
}

// SetLevel parses level (e.g. "debug", "warn") and applies it to the project logger.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	base().SetLevel(lvl)
	return nil
}

// SetOutput redirects the project logger. The TUI uses this to keep logs off the terminal.
func SetOutput(w io.Writer) {
	base().SetOutput(w)
}

// Discard returns an entry that drops everything. Handy in tests.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
