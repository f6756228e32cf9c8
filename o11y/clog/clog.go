// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clog provides context aware logging.
// It can store arbitrary labels to each context.
// The main use case is to add run or source file context to each log
// entry automatically.
package clog

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/log"
)

type contextKeyType int

var contextKey contextKeyType

// Options configures a Logger.
type Options struct {
	// Level is the minimum level to output.
	Level log.Level

	// Verbosity is checked by V.
	Verbosity int

	// ReportTimestamp adds timestamp to each entry.
	ReportTimestamp bool
}

// New creates a new Logger writing to w.
func New(w io.Writer, opts Options) *Logger {
	return &Logger{
		logger: log.NewWithOptions(w, log.Options{
			Level:           opts.Level,
			ReportTimestamp: opts.ReportTimestamp,
		}),
		verbosity: opts.Verbosity,
	}
}

var defaultLogger = &Logger{
	logger: log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel}),
}

// NewContext sets the given logger to the context.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey, logger)
}

// NewSpan sets a new sub logger with the given labels to the context.
func NewSpan(ctx context.Context, labels map[string]string) context.Context {
	return NewContext(ctx, FromContext(ctx).Span(labels))
}

// FromContext returns a logger in the context, or the default logger
// (warnings and errors to stderr) if it's not set.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey).(*Logger)
	if !ok {
		return defaultLogger
	}
	return logger
}

// Logger holds arbitrary labels of the context.
type Logger struct {
	logger    *log.Logger
	labels    map[string]string
	verbosity int
}

// Span returns a sub logger that has labels in addition to l's labels.
func (l *Logger) Span(labels map[string]string) *Logger {
	merged := make(map[string]string, len(l.labels)+len(labels))
	for k, v := range l.labels {
		merged[k] = v
	}
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		if _, ok := l.labels[k]; !ok {
			keys = append(keys, k)
		}
		merged[k] = v
	}
	sort.Strings(keys)
	kvs := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		kvs = append(kvs, k, labels[k])
	}
	return &Logger{
		logger:    l.logger.With(kvs...),
		labels:    merged,
		verbosity: l.verbosity,
	}
}

// Labels returns labels attached to the logger.
func (l *Logger) Labels() map[string]string {
	return l.labels
}

// Infof logs at info log level in the manner of fmt.Printf.
func (l *Logger) Infof(format string, args ...any) {
	l.logger.Helper()
	l.logger.Info(fmt.Sprintf(format, args...))
}

// Infof logs at info log level in the manner of fmt.Printf.
func Infof(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.logger.Helper()
	logger.logger.Info(fmt.Sprintf(format, args...))
}

// Warningf logs at warning log level in the manner of fmt.Printf.
func (l *Logger) Warningf(format string, args ...any) {
	l.logger.Helper()
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// Warningf logs at warning log level in the manner of fmt.Printf.
func Warningf(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.logger.Helper()
	logger.logger.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs at error log level in the manner of fmt.Printf.
func (l *Logger) Errorf(format string, args ...any) {
	l.logger.Helper()
	l.logger.Error(fmt.Sprintf(format, args...))
}

// Errorf logs at error log level in the manner of fmt.Printf.
func Errorf(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.logger.Helper()
	logger.logger.Error(fmt.Sprintf(format, args...))
}

// V checks at verbose log level.
func (l *Logger) V(level int) bool {
	return l.verbosity >= level
}

// V checks at verbose log level of the logger in the context.
func V(ctx context.Context, level int) bool {
	return FromContext(ctx).V(level)
}
