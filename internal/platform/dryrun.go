// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package platform

import (
	"context"
	"log/slog"
)

// DryRun wraps p so that read calls pass through and write calls are only
// logged.
func DryRun(p Platform, logger *slog.Logger) Platform {
	if logger == nil {
		logger = slog.Default()
	}
	return &dryRun{Platform: p, logger: logger}
}

type dryRun struct {
	Platform
	logger *slog.Logger
}

func (d *dryRun) Update(ctx context.Context, text string) error {
	d.logger.Info("dry run: would post", "text", text)
	return nil
}

func (d *dryRun) Repost(ctx context.Context, id string) error {
	d.logger.Info("dry run: would repost", "id", id)
	return nil
}

func (d *dryRun) Unrepost(ctx context.Context, id string) error {
	d.logger.Info("dry run: would undo repost", "id", id)
	return nil
}

func (d *dryRun) Favorite(ctx context.Context, id string) error {
	d.logger.Info("dry run: would favorite", "id", id)
	return nil
}
