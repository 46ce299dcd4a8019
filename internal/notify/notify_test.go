// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package notify

import (
	"bytes"
	"context"
	"testing"

	"go.astrophena.name/scibot/internal/logger"
)

func TestLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logger.Put(context.Background(), logger.New(&buf))
	Log{}.Notify(ctx, "retweeted 42")
	if !bytes.Contains(buf.Bytes(), []byte(`text="retweeted 42"`)) {
		t.Fatalf("notification not logged: %q", buf.String())
	}
}

func TestFunc(t *testing.T) {
	t.Parallel()

	var got []string
	n := Func(func(_ context.Context, text string) { got = append(got, text) })
	n.Notify(context.Background(), "a")
	Discard.Notify(context.Background(), "b")
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("got %v", got)
	}
}
