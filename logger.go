// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/rendergraph/pool"
	"github.com/gogpu/rendergraph/timing"
)

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// loggerPtr stores the active logger. Accessed atomically for thread safety.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// slogger returns the current package logger.
func slogger() *slog.Logger { return loggerPtr.Load() }

// SetLogger routes the library's diagnostics to the given logger and
// propagates it to the pool and timing packages. The default is silent.
// Passing nil restores the default.
func SetLogger(l *slog.Logger) {
	stored := l
	if stored == nil {
		stored = slog.New(nopHandler{})
	}
	loggerPtr.Store(stored)
	pool.SetLogger(l)
	timing.SetLogger(l)
}
