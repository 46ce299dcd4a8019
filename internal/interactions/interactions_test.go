// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package interactions

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"go.astrophena.name/scibot/internal/testutil"
)

func testTracker(t *testing.T, contents string) *Tracker {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	if contents != "" {
		testutil.WriteFile(t, path, []byte(contents))
	}
	return New(path, false, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestThreshold(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		state string
		want  int
	}{
		"empty":          {state: "", want: 0},
		"only followers": {state: `{"a": {"follower": true, "interactions": 9}}`, want: 0},
		"mean": {
			state: `{"a": {"interactions": 2}, "b": {"interactions": 4}, "c": {"follower": true, "interactions": 100}}`,
			want:  3,
		},
		"half rounds to even down": {
			state: `{"a": {"interactions": 2}, "b": {"interactions": 3}}`,
			want:  2,
		},
		"half rounds to even up": {
			state: `{"a": {"interactions": 3}, "b": {"interactions": 4}}`,
			want:  4,
		},
		"at least one": {
			state: `{"a": {"interactions": 0}, "b": {"interactions": 0}}`,
			want:  1,
		},
		"mean below one half": {
			state: `{"a": {"interactions": 1}, "b": {"interactions": 0}, "c": {"interactions": 0}}`,
			want:  1,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertEqual(t, testTracker(t, tc.state).Threshold(), tc.want)
		})
	}
}

func TestIsOverThreshold(t *testing.T) {
	t.Parallel()

	tr := testTracker(t, `{
		"low":  {"interactions": 1},
		"high": {"interactions": 5},
		"fol":  {"follower": true, "interactions": 10}
	}`)
	// Threshold is round((1+5)/2) = 3.
	testutil.AssertEqual(t, tr.IsOverThreshold("low"), false)
	testutil.AssertEqual(t, tr.IsOverThreshold("high"), true)
	testutil.AssertEqual(t, tr.IsOverThreshold("fol"), true)
	testutil.AssertEqual(t, tr.IsOverThreshold("unseen"), false)
}

func TestRecord(t *testing.T) {
	t.Parallel()

	tr := testTracker(t, "")
	for range 3 {
		if err := tr.Record("a"); err != nil {
			t.Fatal(err)
		}
	}
	if err := tr.Record("b"); err != nil {
		t.Fatal(err)
	}

	got := testutil.UnmarshalJSON[map[string]Account](t, testutil.ReadFile(t, tr.path))
	testutil.AssertEqual(t, got, map[string]Account{
		"a": {Interactions: 3},
		"b": {Interactions: 1},
	})
}

func TestRecordCorruptFile(t *testing.T) {
	t.Parallel()

	tr := testTracker(t, `{"a": {"interac`)
	if err := tr.Record("a"); err == nil {
		t.Fatal("want error on corrupt state")
	}
	// Queries degrade to an empty state.
	testutil.AssertEqual(t, tr.IsOverThreshold("a"), false)
}

func TestReadOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "users.json")
	tr := New(path, true, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := tr.Record("a"); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, tr.Threshold(), 0)
}

func TestSetFollowers(t *testing.T) {
	t.Parallel()

	tr := testTracker(t, `{
		"old":  {"follower": true, "interactions": 1},
		"gone": {"follower": true, "interactions": 2},
		"fan":  {"interactions": 4}
	}`)

	added, err := tr.SetFollowers([]string{"old", "fan", "new", "new"})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, added, []string{"fan", "new"})
	testutil.AssertEqual(t, tr.Followers(), []string{"fan", "new", "old"})
	testutil.AssertEqual(t, tr.IsFollower("gone"), false)
	testutil.AssertEqual(t, tr.IsFollower("fan"), true)

	got := testutil.UnmarshalJSON[map[string]Account](t, testutil.ReadFile(t, tr.path))
	testutil.AssertEqual(t, got["fan"], Account{Follower: true, Interactions: 4})
	testutil.AssertEqual(t, got["gone"], Account{Interactions: 2})

	added, err = tr.SetFollowers([]string{"old", "fan", "new"})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, len(added), 0)
}
