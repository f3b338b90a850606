// Package logger contains system loggers.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/sirupsen/logrus"
)

// Default console logger.
type consoleLogger struct {
	logger *logrus.Logger
}

// NewConsoleLogger constructs a new console logger.
func NewConsoleLogger(level string) common.ILoggerProvider {
	return newConsoleLogger(os.Stdout, level)
}

// Constructs a logger writing into the provided output.
func newConsoleLogger(out io.Writer, level string) *consoleLogger {
	l := logrus.New()
	l.Out = out
	l.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "Jan _2 15:04:05.000",
	}
	l.Level = getLogLevel(level)
	return &consoleLogger{logger: l}
}

// Debug prints debug level message.
func (p *consoleLogger) Debug(msg string, fields ...string) {
	p.logger.WithFields(withFields(fields...)).Debug(msg)
}

// Info prints info level message.
func (p *consoleLogger) Info(msg string, fields ...string) {
	p.logger.WithFields(withFields(fields...)).Info(msg)
}

// Warn prints warning level message.
func (p *consoleLogger) Warn(msg string, fields ...string) {
	p.logger.WithFields(withFields(fields...)).Warn(msg)
}

// Error prints error level message.
func (p *consoleLogger) Error(msg string, err error, fields ...string) {
	p.logger.WithFields(withFields(fields...)).WithError(err).Error(msg)
}

// Fatal prints fatal level message and exits.
func (p *consoleLogger) Fatal(msg string, err error, fields ...string) {
	p.logger.WithFields(withFields(fields...)).WithError(err).Fatal(msg)
}

// Helper method to add generic fields to the output.
func withFields(fields ...string) logrus.Fields {
	fLen := len(fields)
	result := make(logrus.Fields, int(fLen/2))
	for ii := 0; ii < fLen; ii += 2 {
		if ii+1 >= fLen {
			break
		}

		result[fields[ii]] = fields[ii+1]
	}

	return result
}

// Converts configured level into logrus one.
// Unknown levels fall back to info.
func getLogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug", "dbg":
		return logrus.DebugLevel
	case "warning", "warn":
		return logrus.WarnLevel
	case "error", "err":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
