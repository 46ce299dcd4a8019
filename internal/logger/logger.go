// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger carries a structured logger through a context.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Logger is a [slog.Logger] paired with the level variable controlling it.
type Logger struct {
	*slog.Logger
	Level *slog.LevelVar
}

// New returns a Logger writing text records to w at info level.
func New(w io.Writer) *Logger {
	lvl := new(slog.LevelVar)
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})),
		Level:  lvl,
	}
}

type ctxKey struct{}

// Put returns a copy of ctx carrying l.
func Put(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Get returns the Logger stored in ctx. If there is none, it returns a Logger
// that discards everything.
func Get(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return New(io.Discard)
}
