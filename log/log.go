//
// log.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package log implements structured leveled logging for the OT pool
// actors.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger logs messages with key-value context.
type Logger interface {
	Debugw(msg string, keyvals ...interface{})
	Infow(msg string, keyvals ...interface{})
	Warnw(msg string, keyvals ...interface{})
	Errorw(msg string, keyvals ...interface{})
	With(keyvals ...interface{}) Logger
	Named(name string) Logger
}

// Log levels.
const (
	DebugLevel = int(zapcore.DebugLevel)
	InfoLevel  = int(zapcore.InfoLevel)
	WarnLevel  = int(zapcore.WarnLevel)
	ErrorLevel = int(zapcore.ErrorLevel)
)

type log struct {
	*zap.SugaredLogger
}

func (l *log) With(keyvals ...interface{}) Logger {
	return &log{l.SugaredLogger.With(keyvals...)}
}

func (l *log) Named(name string) Logger {
	return &log{l.SugaredLogger.Named(name)}
}

// New creates a logger that writes console formatted records at or
// above level to output.
func New(output zapcore.WriteSyncer, level int) Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig),
		output, zapcore.Level(level))

	return &log{zap.New(core).Sugar()}
}

// Stderr creates a logger writing to the standard error.
func Stderr(level int) Logger {
	return New(zapcore.Lock(os.Stderr), level)
}

// Nop creates a logger that discards everything.
func Nop() Logger {
	return &log{zap.NewNop().Sugar()}
}
