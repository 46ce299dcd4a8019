// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package platform_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"go.astrophena.name/scibot/internal/platform"
	"go.astrophena.name/scibot/internal/platform/platformtest"
	"go.astrophena.name/scibot/internal/testutil"
)

func TestCode(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		err      error
		wantCode int
		wantOK   bool
	}{
		"nil":     {err: nil},
		"plain":   {err: errors.New("boom")},
		"direct":  {err: &platform.Error{Code: 327}, wantCode: 327, wantOK: true},
		"wrapped": {err: fmt.Errorf("repost: %w", &platform.Error{Code: 139}), wantCode: 139, wantOK: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			code, ok := platform.Code(tc.err)
			testutil.AssertEqual(t, code, tc.wantCode)
			testutil.AssertEqual(t, ok, tc.wantOK)
		})
	}
}

func TestDryRun(t *testing.T) {
	t.Parallel()

	fake := &platformtest.Fake{
		SearchResults: []*platform.Post{{ID: "1"}},
	}
	p := platform.DryRun(fake, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	posts, err := p.Search(ctx, "q", 10)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, len(posts), 1)

	for _, err := range []error{
		p.Update(ctx, "hello"),
		p.Repost(ctx, "1"),
		p.Unrepost(ctx, "1"),
		p.Favorite(ctx, "1"),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}
	testutil.AssertEqual(t, fake.Calls(), []string{"Search q"})
}
