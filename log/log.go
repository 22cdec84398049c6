// Package log implements support for structured logging.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// log.DefaultCaller + 2 for this module's leveling wrappers.
const defaultCallerUnwind = 5

// Logger is a structured logger.
type Logger struct {
	base         log.Logger
	logger       log.Logger
	keyvals      []interface{}
	callerUnwind int
	level        Level
	module       string
}

// NewDefaultLogger initializes a new logger instance with default settings.
// For usage outside tests, prefer RootLogger() from package `cmd/common`.
func NewDefaultLogger(module string) *Logger {
	logger, err := NewLogger(module, os.Stdout, FmtJSON, LevelInfo)
	if err != nil {
		// Shouldn't happen as NewLogger can only fail if an invalid format is provided.
		panic(err)
	}
	return logger
}

// NewLogger initializes a new logger instance.
func NewLogger(module string, w io.Writer, format Format, lvl Level) (*Logger, error) {
	var base log.Logger
	switch format {
	case FmtLogfmt:
		base = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case FmtJSON:
		base = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, fmt.Errorf("log: unsupported log format: %v", format)
	}

	l := &Logger{
		base:         base,
		callerUnwind: defaultCallerUnwind,
		level:        lvl,
		module:       module,
	}
	l.build()
	return l, nil
}

func (l *Logger) build() {
	logger := log.WithPrefix(l.base,
		"ts", log.DefaultTimestampUTC,
		"caller", log.Caller(l.callerUnwind),
	)
	l.logger = log.With(logger, l.keyvals...)
}

func (l *Logger) clone() *Logger {
	c := *l
	c.keyvals = append([]interface{}(nil), l.keyvals...)
	return &c
}

func (l *Logger) log(lvl Level, leveled func(log.Logger) log.Logger, msg string, keyvals []interface{}) {
	if l.level > lvl {
		return
	}
	keyvals = append([]interface{}{"module", l.module, "msg", msg}, keyvals...)
	_ = leveled(l.logger).Log(keyvals...)
}

// Debug logs the message and key value pairs at the Debug log level.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.log(LevelDebug, level.Debug, msg, keyvals)
}

// Info logs the message and key value pairs at the Info log level.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.log(LevelInfo, level.Info, msg, keyvals)
}

// Warn logs the message and key value pairs at the Warn log level.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.log(LevelWarn, level.Warn, msg, keyvals)
}

// Error logs the message and key value pairs at the Error log level.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.log(LevelError, level.Error, msg, keyvals)
}

// With returns a clone of the logger with the provided key/value pairs
// added as context for all subsequent logs.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	c := l.clone()
	c.keyvals = append(c.keyvals, keyvals...)
	c.build()
	return c
}

// WithModule returns a clone of the logger with the provided module
// added as context for all subsequent logs.
func (l *Logger) WithModule(module string) *Logger {
	c := l.clone()
	c.module = module
	return c
}

// WithCallerUnwind returns a clone of the logger that reports the caller
// `unwind` frames up the stack. Needed when the logger sits behind an
// adapter such as WriterIntoLogger.
func (l *Logger) WithCallerUnwind(unwind int) *Logger {
	c := l.clone()
	c.callerUnwind = unwind
	c.build()
	return c
}

// Level is the logging level.
func (l *Logger) Level() Level {
	return l.level
}

type writerLogger struct {
	logger *Logger
}

func (w writerLogger) Write(p []byte) (int, error) {
	w.logger.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// WriterIntoLogger returns an io.Writer that logs every write as one Info
// message. It lets libraries that only accept a standard library logger
// write into the structured log.
func WriterIntoLogger(l *Logger) io.Writer {
	return writerLogger{logger: l}
}
