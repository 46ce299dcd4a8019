// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestPutGet(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf)
	ctx := Put(context.Background(), l)

	Get(ctx).Debug("hidden")
	Get(ctx).Level.Set(slog.LevelDebug)
	Get(ctx).Debug("shown", "id", "A100")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record logged at info level: %q", out)
	}
	if !strings.Contains(out, "msg=shown id=A100") {
		t.Fatalf("missing debug record: %q", out)
	}
}

func TestGetWithoutLogger(t *testing.T) {
	t.Parallel()

	l := Get(context.Background())
	if l == nil || l.Logger == nil {
		t.Fatal("Get must never return nil")
	}
	l.Info("discarded")
}
