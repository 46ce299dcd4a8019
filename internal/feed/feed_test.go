// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.astrophena.name/scibot/internal/testutil"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>PubMed</title>
  <link>https://pubmed.example.com</link>
  <description>search results</description>
  <item>
    <title>Old   psilocybin trial</title>
    <link>https://pubmed.example.com/1</link>
    <guid>pubmed:1</guid>
    <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Undated note</title>
    <link>https://pubmed.example.com/2</link>
  </item>
</channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>arXiv</title>
  <id>urn:arxiv</id>
  <updated>2024-03-01T00:00:00Z</updated>
  <entry>
    <title>New LSD study released</title>
    <id>http://arxiv.example.com/abs/2403.00001</id>
    <link href="http://arxiv.example.com/abs/2403.00001"/>
    <published>2024-03-01T00:00:00Z</published>
    <updated>2024-03-01T00:00:00Z</updated>
    <author><name>A. Hofmann</name></author>
    <summary>Abstract.</summary>
  </entry>
</feed>`

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func testFetcher(t *testing.T, routes map[string]http.HandlerFunc) *Fetcher {
	mux := http.NewServeMux()
	for pat, h := range routes {
		mux.HandleFunc(pat, h)
	}
	httpc := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, r)
			return w.Result(), nil
		}),
	}
	return NewFetcher(httpc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetchCombinesAndSorts(t *testing.T) {
	t.Parallel()

	f := testFetcher(t, map[string]http.HandlerFunc{
		"GET pubmed.example.com/rss": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(rssFeed))
		},
		"GET arxiv.example.com/api": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(atomFeed))
		},
		"GET broken.example.com/feed": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "I'm a teapot.", http.StatusTeapot)
		},
	})

	items, err := f.Fetch(context.Background(), []string{
		"https://pubmed.example.com/rss",
		"https://broken.example.com/feed",
		"https://arxiv.example.com/api",
	})
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	testutil.AssertEqual(t, ids, []string{
		"http://arxiv.example.com/abs/2403.00001",
		"pubmed:1",
		"https://pubmed.example.com/2",
	})

	testutil.AssertEqual(t, items[0].Title, "New LSD study released")
	testutil.AssertEqual(t, items[0].Authors, []string{"A. Hofmann"})
	testutil.AssertEqual(t, items[1].Title, "Old psilocybin trial")
	if !items[2].Published.IsZero() {
		t.Fatalf("undated item got a date: %v", items[2].Published)
	}
}

func TestFetchNothing(t *testing.T) {
	t.Parallel()

	f := testFetcher(t, nil)
	items, err := f.Fetch(context.Background(), []string{"https://example.com/missing.xml"})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, len(items), 0)
}

func TestFetchCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := testFetcher(t, nil)
	if _, err := f.Fetch(ctx, []string{"https://example.com/feed.xml"}); err == nil {
		t.Fatal("want error for canceled context")
	}
}

func TestFetchManyConcurrently(t *testing.T) {
	t.Parallel()

	const feeds = 3 * fetchConcurrency
	routes := make(map[string]http.HandlerFunc)
	var urls []string
	for i := range feeds {
		host := fmt.Sprintf("feed%d.example.com", i)
		body := rssFeed
		if i%2 == 1 {
			body = atomFeed
		}
		routes["GET "+host+"/rss"] = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}
		urls = append(urls, "https://"+host+"/rss")
	}
	f := testFetcher(t, routes)

	for range 5 {
		items, err := f.Fetch(context.Background(), urls)
		if err != nil {
			t.Fatal(err)
		}
		// Every RSS feed has two items, every Atom feed one.
		testutil.AssertEqual(t, len(items), feeds/2*2+feeds/2)
		testutil.AssertEqual(t, items[0].Title, "New LSD study released")
	}
}
