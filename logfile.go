/*
NAME
  logfile.go

DESCRIPTION
  logfile.go provides a ready-made rotating-file logging.Logger for
  callers that want one without wiring gopkg.in/natefinch/lumberjack.v2
  themselves.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ultrasonic

import (
	"io"

	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileLoggerConfig configures NewFileLogger's rotation policy. Only Path
// is required; the remaining fields may be left at their zero value.
type FileLoggerConfig struct {
	Path       string // file to write to; required.
	MaxSizeMB  int    // rotate after the file reaches this size in MB.
	MaxBackups int    // number of rotated files to keep.
	MaxAgeDays int    // days to retain rotated files.
	Level      int8   // one of the logging.Debug..logging.Fatal constants.
	Suppress   bool   // suppress repeated identical log lines.
}

// NewFileLogger builds a logging.Logger backed by a rotating file sink,
// in the manner of cmd/speaker and cmd/looper's
// logging.New(level, io.MultiWriter(fileLog, ...), suppress) construction.
// It is a convenience for callers embedding this module in a long-running
// process (the out-of-scope CLI/server frontends of spec.md §1); the core
// package itself never calls this and never touches the filesystem on its
// own.
func NewFileLogger(cfg FileLoggerConfig, extra ...io.Writer) logging.Logger {
	fileLog := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}

	writers := append([]io.Writer{fileLog}, extra...)
	return logging.New(cfg.Level, io.MultiWriter(writers...), cfg.Suppress)
}
