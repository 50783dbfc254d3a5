// Package logger provides leveled, structured logging for docshift.
//
// Messages go through a single logrus instance. Component loggers
// (Migration, DB, CLI, HTTP) tag every line with a "component" field so
// output from the runner, the store and the API can be told apart.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging surface used across the module.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
}

// Level mirrors the logrus levels docshift exposes.
type Level = logrus.Level

const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

var std = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	return l
}

type entry struct {
	e *logrus.Entry
}

func (l entry) Debug(args ...interface{})                 { l.e.Debug(args...) }
func (l entry) Debugf(format string, args ...interface{}) { l.e.Debugf(format, args...) }
func (l entry) Info(args ...interface{})                  { l.e.Info(args...) }
func (l entry) Infof(format string, args ...interface{})  { l.e.Infof(format, args...) }
func (l entry) Warn(args ...interface{})                  { l.e.Warn(args...) }
func (l entry) Warnf(format string, args ...interface{})  { l.e.Warnf(format, args...) }
func (l entry) Error(args ...interface{})                 { l.e.Error(args...) }
func (l entry) Errorf(format string, args ...interface{}) { l.e.Errorf(format, args...) }

func (l entry) WithField(key string, value interface{}) Logger {
	return entry{e: l.e.WithField(key, value)}
}

func (l entry) WithFields(fields map[string]interface{}) Logger {
	return entry{e: l.e.WithFields(logrus.Fields(fields))}
}

func (l entry) WithError(err error) Logger {
	return entry{e: l.e.WithError(err)}
}

func root() Logger {
	return entry{e: logrus.NewEntry(std)}
}

// Configure applies the CLI verbosity flags. --verbose enables debug
// output; --debug adds caller information on top of the default level.
func Configure(debug, verbose bool) {
	switch {
	case verbose:
		std.SetLevel(logrus.DebugLevel)
	default:
		std.SetLevel(logrus.InfoLevel)
	}
	std.SetReportCaller(debug)
}

// SetLevel sets the minimum level that is written.
func SetLevel(level Level) {
	std.SetLevel(level)
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	return std.GetLevel()
}

// SetOutput redirects all log output, mostly useful in tests.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// SetJSON switches between the text and JSON formatters.
func SetJSON(enabled bool) {
	if enabled {
		std.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func Debug(args ...interface{}) { root().Debug(args...) }
func Info(args ...interface{})  { root().Info(args...) }
func Warn(args ...interface{})  { root().Warn(args...) }
func Error(args ...interface{}) { root().Error(args...) }

func Debugf(format string, args ...interface{}) { root().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { root().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { root().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { root().Errorf(format, args...) }

// WithField returns a logger carrying one extra field.
func WithField(key string, value interface{}) Logger {
	return root().WithField(key, value)
}

// WithFields returns a logger carrying the given fields.
func WithFields(fields map[string]interface{}) Logger {
	return root().WithFields(fields)
}

// WithError returns a logger carrying err under the "error" field.
func WithError(err error) Logger {
	return root().WithError(err)
}
