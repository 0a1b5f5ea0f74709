package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// SetupLogging builds the shared logger. Verbose drops the level to debug.
// Log lines go to stderr so report output on stdout stays machine readable.
func SetupLogging(verbose bool) *logrus.Logger {
	level := logrus.WarnLevel
	if verbose {
		level = logrus.DebugLevel
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)

	return logger
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
