// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package notify relays human-readable status messages to the bot operator.
package notify

import (
	"context"
	"log/slog"

	"go.astrophena.name/scibot/internal/logger"
)

// Notifier delivers status messages. Delivery is best effort: Notify never
// fails, implementations log what they couldn't deliver.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Func adapts a function to a Notifier.
type Func func(ctx context.Context, text string)

// Notify implements [Notifier].
func (f Func) Notify(ctx context.Context, text string) { f(ctx, text) }

// Log writes messages to the logger carried by the context.
type Log struct{}

// Notify implements [Notifier].
func (Log) Notify(ctx context.Context, text string) {
	logger.Get(ctx).Info("notification", slog.String("text", text))
}

// Discard drops all messages.
var Discard Notifier = Func(func(context.Context, string) {})
