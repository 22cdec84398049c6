// Package common implements common command options.
package common

import (
	"fmt"
	"io"
	stdLog "log"
	"os"

	"github.com/akrylysov/pogreb"

	"github.com/vegaprotocol/amounts/config"
	"github.com/vegaprotocol/amounts/log"
)

var rootLogger = log.NewDefaultLogger("amounts")

// Init initializes the common environment.
func Init(cfg *config.Config) error {
	var w io.Writer = os.Stdout
	format := log.FmtJSON
	level := log.LevelDebug

	if cfg.Log != nil {
		var err error
		if w, err = getLoggingStream(cfg.Log); err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		if err := format.Set(cfg.Log.Format); err != nil {
			return err
		}
		if err := level.Set(cfg.Log.Level); err != nil {
			return err
		}
	}
	logger, err := log.NewLogger("amounts", w, format, level)
	if err != nil {
		return err
	}
	rootLogger = logger

	// Initialize pogreb logging. Unwind past the stdlib logger and the writer
	// adapter to report pogreb's caller.
	pogrebLogger := RootLogger().WithModule("pogreb").WithCallerUnwind(8)
	pogreb.SetLogger(stdLog.New(log.WriterIntoLogger(pogrebLogger), "", 0))

	if cfg.Metrics != nil && cfg.Metrics.PprofEndpoint != "" {
		startPprof(cfg.Metrics.PprofEndpoint)
	}
	return nil
}

// RootLogger returns the logger defined by logging flags.
func RootLogger() *log.Logger {
	return rootLogger
}

func getLoggingStream(cfg *config.LogConfig) (io.Writer, error) {
	if cfg == nil || cfg.File == "" {
		return os.Stdout, nil
	}
	w, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return w, nil
}
