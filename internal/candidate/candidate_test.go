// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package candidate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"go.astrophena.name/scibot/internal/platform"
	"go.astrophena.name/scibot/internal/platform/platformtest"
	"go.astrophena.name/scibot/internal/testutil"
)

var testVocab = Vocabulary{
	Topics:  []string{"Psilocybin", "harmreduction"},
	Exclude: []string{"vape"},
	Watch:   []string{"ketamine"},
}

func testFilter(policy RankPolicy, resolver QuoteResolver) *Filter {
	return NewFilter(testVocab, policy, resolver, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func post(id, text string, reposts, favs int) *platform.Post {
	return &platform.Post{ID: id, Text: text, Reposts: reposts, Favorites: favs}
}

func ids(cs []Candidate) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		posts       []*platform.Post
		wantIDs     []string
		wantWatched []string
	}{
		"on topic": {
			posts:   []*platform.Post{post("1", "new psilocybin trial shows results", 2, 3)},
			wantIDs: []string{"1"},
		},
		"case insensitive": {
			posts:   []*platform.Post{post("1", "#HarmReduction works, says the study", 1, 1)},
			wantIDs: []string{"1"},
		},
		"too few words": {
			posts: []*platform.Post{post("1", "ok", 5, 5)},
		},
		"exactly three words": {
			posts: []*platform.Post{post("1", "psilocybin is great", 5, 5)},
		},
		"low engagement": {
			posts: []*platform.Post{post("1", "new psilocybin trial shows results", 1, 0)},
		},
		"excluded wins over topic": {
			posts: []*platform.Post{post("1", "psilocybin and vape shops everywhere", 10, 10)},
		},
		"off topic": {
			posts: []*platform.Post{post("1", "the weather is nice today", 10, 10)},
		},
		"watched only": {
			posts:       []*platform.Post{post("1", "ketamine clinic opened downtown today", 10, 10)},
			wantWatched: []string{"1"},
		},
		"topic beats watch": {
			posts:   []*platform.Post{post("1", "ketamine and psilocybin compared today", 10, 10)},
			wantIDs: []string{"1"},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			res := testFilter(Engagement, nil).Filter(context.Background(), tc.posts)
			testutil.AssertEqual(t, ids(res.Candidates), tc.wantIDs)
			testutil.AssertEqual(t, ids(res.Watched), tc.wantWatched)
		})
	}
}

func TestFilterQuoted(t *testing.T) {
	t.Parallel()

	fake := &platformtest.Fake{
		Posts: map[string]*platform.Post{
			"q1": post("q1", "psilocybin therapy", 0, 0),
			"q2": post("q2", "vape", 0, 0),
		},
	}
	posts := []*platform.Post{
		{ID: "1", Text: "look at this one", QuotedID: "q1", Reposts: 2, Favorites: 2},
		{ID: "2", Text: "psilocybin, look here", QuotedID: "q2", Reposts: 2, Favorites: 2},
		{ID: "3", Text: "psilocybin paper just dropped", QuotedID: "missing", Reposts: 2, Favorites: 2},
	}

	res := testFilter(Engagement, fake).Filter(context.Background(), posts)
	testutil.AssertEqual(t, ids(res.Candidates), []string{"1", "3"})
	// Candidate text stays the post's own.
	testutil.AssertEqual(t, res.Candidates[0].Text, "look at this one")
}

func TestFilterQuotedLookupError(t *testing.T) {
	t.Parallel()

	fake := &platformtest.Fake{Errs: map[string]error{"Post q": errors.New("boom")}}
	posts := []*platform.Post{
		{ID: "1", Text: "harmreduction saves lives every day", QuotedID: "q", Reposts: 2, Favorites: 2},
	}
	res := testFilter(Engagement, fake).Filter(context.Background(), posts)
	testutil.AssertEqual(t, ids(res.Candidates), []string{"1"})
}

func TestFilterOrder(t *testing.T) {
	t.Parallel()

	posts := []*platform.Post{
		post("b", "psilocybin one two three", 2, 2),
		post("a", "psilocybin one two three", 2, 2),
		post("c", "psilocybin one two three", 1, 9),
		post("d", "psilocybin one two three", 3, 0),
	}

	cases := map[string]struct {
		policy RankPolicy
		want   []string
	}{
		"engagement": {policy: Engagement, want: []string{"c", "a", "b", "d"}},
		"total":      {policy: Total, want: []string{"d", "a", "b", "c"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			res := testFilter(tc.policy, nil).Filter(context.Background(), posts)
			testutil.AssertEqual(t, ids(res.Candidates), tc.want)
		})
	}
}

func TestParseRankPolicy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]RankPolicy{"": Engagement, "engagement": Engagement, "total": Total} {
		got, err := ParseRankPolicy(in)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, got, want)
	}
	if _, err := ParseRankPolicy("random"); err == nil {
		t.Fatal("want error")
	}
}

func TestBuildQuery(t *testing.T) {
	t.Parallel()

	testutil.AssertEqual(t, BuildQuery([]string{"a", "b"}, []string{"x", "y"}), "a OR b -x -y")
	testutil.AssertEqual(t, BuildQuery([]string{"a"}, nil), "a")
	testutil.AssertEqual(t, BuildQuery(nil, []string{"x"}), "-x")
}
