// Package ops provides gracht's structured logging facade, grounded on
// the teacher's flow/ops Logger: a small interface wrapping
// github.com/sirupsen/logrus so that client and server runtimes can log
// with per-component context (connection handle, worker index) without
// depending on logrus directly in their call sites.
package ops

import (
	log "github.com/sirupsen/logrus"
)

// Logger publishes structured log events. Implementations must be safe
// for concurrent use: the client pump, server workers, and the main
// dispatch loop may all log concurrently.
type Logger interface {
	Log(level log.Level, fields log.Fields, message string)
	Level() log.Level
}

// logrusLogger is the default Logger, writing structured fields to
// logrus's standard logger.
type logrusLogger struct {
	entry *log.Entry
}

// NewLogger returns a Logger writing through logrus's standard logger.
func NewLogger() Logger {
	return &logrusLogger{entry: log.NewEntry(log.StandardLogger())}
}

func (l *logrusLogger) Log(level log.Level, fields log.Fields, message string) {
	l.entry.WithFields(fields).Log(level, message)
}

func (l *logrusLogger) Level() log.Level {
	return l.entry.Logger.GetLevel()
}

// withFields decorates a delegate Logger with fields merged into every
// subsequent call, the same way the teacher's NewLoggerWithFields adds
// per-shard context to a shared publisher.
type withFields struct {
	delegate Logger
	add      log.Fields
}

// NewLoggerWithFields returns a Logger that adds the given fields to
// every log event before forwarding to delegate.
func NewLoggerWithFields(delegate Logger, add log.Fields) Logger {
	return &withFields{delegate: delegate, add: add}
}

func (l *withFields) Log(level log.Level, fields log.Fields, message string) {
	merged := make(log.Fields, len(l.add)+len(fields))
	for k, v := range l.add {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	l.delegate.Log(level, merged, message)
}

func (l *withFields) Level() log.Level { return l.delegate.Level() }

// Convenience helpers mirroring logrus's level-named methods.

func Debug(l Logger, fields log.Fields, message string) { l.Log(log.DebugLevel, fields, message) }
func Info(l Logger, fields log.Fields, message string)  { l.Log(log.InfoLevel, fields, message) }
func Warn(l Logger, fields log.Fields, message string)  { l.Log(log.WarnLevel, fields, message) }
func Error(l Logger, fields log.Fields, message string) { l.Log(log.ErrorLevel, fields, message) }
func Trace(l Logger, fields log.Fields, message string) { l.Log(log.TraceLevel, fields, message) }
