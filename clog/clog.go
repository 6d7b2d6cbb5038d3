// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

// Package clog provides the leveled, structured logger shared by the
// cs104 client, server and session state machine.
package clog

import (
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// LogProvider is the pluggable backend. Any structured logger (logrus,
// zap, a test spy) can satisfy this by wrapping itself in the four
// methods below.
type LogProvider interface {
	Critical(format string, v ...interface{})
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// Level represents the logging severity.
// Ordering: Off < Critical < Error < Warn < Debug
type Level uint32

const (
	LevelOff Level = iota
	LevelCritical
	LevelError
	LevelWarn
	LevelDebug
)

// Clog is an embeddable leveled logger. Client, Server and Session embed
// one so call sites read as sf.Debug(...), sf.Error(...).
type Clog struct {
	provider LogProvider
	level    uint32
}

// NewLogger returns a Clog backed by logrus, tagged with component and
// any additional structured fields (e.g. peer address). Default level is
// Off so embedding code stays silent unless SetLogLevel is called.
func NewLogger(component string, fields logrus.Fields) Clog {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	// Level filtering is done by Clog itself.
	log.SetLevel(logrus.DebugLevel)

	all := logrus.Fields{"component": component}
	for k, v := range fields {
		all[k] = v
	}
	return Clog{
		provider: logrusProvider{log.WithFields(all)},
		level:    uint32(LevelOff),
	}
}

// SetLogLevel sets the logging level. LevelOff disables all logs.
func (sf *Clog) SetLogLevel(lvl Level) {
	atomic.StoreUint32(&sf.level, uint32(lvl))
}

// SetLogProvider swaps the backend, e.g. to capture logs in tests.
func (sf *Clog) SetLogProvider(p LogProvider) {
	if p != nil {
		sf.provider = p
	}
}

func (sf Clog) allowed(required Level) bool {
	return atomic.LoadUint32(&sf.level) >= uint32(required)
}

// Critical logs a CRITICAL level message.
func (sf Clog) Critical(format string, v ...interface{}) {
	if sf.allowed(LevelCritical) {
		sf.provider.Critical(format, v...)
	}
}

// Error logs an ERROR level message.
func (sf Clog) Error(format string, v ...interface{}) {
	if sf.allowed(LevelError) {
		sf.provider.Error(format, v...)
	}
}

// Warn logs a WARN level message.
func (sf Clog) Warn(format string, v ...interface{}) {
	if sf.allowed(LevelWarn) {
		sf.provider.Warn(format, v...)
	}
}

// Debug logs a DEBUG level message.
func (sf Clog) Debug(format string, v ...interface{}) {
	if sf.allowed(LevelDebug) {
		sf.provider.Debug(format, v...)
	}
}

// logrusProvider adapts a *logrus.Entry to LogProvider.
type logrusProvider struct {
	entry *logrus.Entry
}

func (p logrusProvider) Critical(format string, v ...interface{}) { p.entry.Errorf("[CRIT] "+format, v...) }
func (p logrusProvider) Error(format string, v ...interface{})    { p.entry.Errorf(format, v...) }
func (p logrusProvider) Warn(format string, v ...interface{})     { p.entry.Warnf(format, v...) }
func (p logrusProvider) Debug(format string, v ...interface{})    { p.entry.Debugf(format, v...) }
