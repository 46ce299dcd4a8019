// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package feed fetches RSS and Atom feeds and combines their entries into a
// single list of content items, newest first.
package feed

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.astrophena.name/scibot/internal/request"
	"go.astrophena.name/scibot/internal/syncutil"
	"go.astrophena.name/scibot/internal/version"

	"github.com/mmcdole/gofeed"
)

// Item is a single feed entry.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description,omitempty"`
	Authors     []string  `json:"authors,omitempty"`
	Published   time.Time `json:"published,omitzero"`
}

// fetchConcurrency is the number of feeds fetched at once.
const fetchConcurrency = 4

// Fetcher fetches feeds over HTTP.
type Fetcher struct {
	httpc *http.Client
	slog  *slog.Logger
}

// NewFetcher returns a Fetcher. A nil httpc means [request.DefaultClient], a
// nil logger means [slog.Default].
func NewFetcher(httpc *http.Client, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		httpc: cmp.Or(httpc, request.DefaultClient),
		slog:  cmp.Or(logger, slog.Default()),
	}
}

// Fetch fetches every feed in urls and returns their combined items sorted by
// publication time, newest first. Items without a publication time go last.
// A feed that fails to fetch or parse is logged and skipped; Fetch only
// returns an error when ctx is done.
func (f *Fetcher) Fetch(ctx context.Context, urls []string) ([]*Item, error) {
	results := make([][]*Item, len(urls))
	lwg := syncutil.NewLimitedWaitGroup(fetchConcurrency)
	for i, u := range urls {
		lwg.Go(func() {
			feedItems, err := f.fetchOne(ctx, u)
			if err != nil {
				f.slog.Warn("fetching feed failed", "feed", u, "error", err)
				return
			}
			f.slog.Debug("fetched feed", "feed", u, "items", len(feedItems))
			results[i] = feedItems
		})
	}
	lwg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []*Item
	for _, r := range results {
		items = append(items, r...)
	}

	slices.SortStableFunc(items, func(a, b *Item) int {
		switch {
		case a.Published.IsZero() && b.Published.IsZero():
			return 0
		case a.Published.IsZero():
			return 1
		case b.Published.IsZero():
			return -1
		}
		return b.Published.Compare(a.Published)
	})
	return items, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) ([]*Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	res, err := f.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		const readLimit = 16384 // 16 KB is enough for error messages (probably)
		body, _ := io.ReadAll(io.LimitReader(res.Body, readLimit))
		return nil, fmt.Errorf("want 200, got %d: %s", res.StatusCode, body)
	}

	// gofeed.Parser keeps per-parse state, so each concurrent fetch needs its
	// own.
	parsed, err := gofeed.NewParser().Parse(res.Body)
	if err != nil {
		return nil, err
	}

	items := make([]*Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		items = append(items, fromGofeed(it))
	}
	return items, nil
}

func fromGofeed(it *gofeed.Item) *Item {
	item := &Item{
		ID:          cmp.Or(strings.TrimSpace(it.GUID), strings.TrimSpace(it.Link)),
		Title:       strings.Join(strings.Fields(it.Title), " "),
		Link:        strings.TrimSpace(it.Link),
		Description: it.Description,
	}
	for _, a := range it.Authors {
		if a != nil && a.Name != "" {
			item.Authors = append(item.Authors, a.Name)
		}
	}
	switch {
	case it.PublishedParsed != nil:
		item.Published = *it.PublishedParsed
	case it.UpdatedParsed != nil:
		item.Published = *it.UpdatedParsed
	}
	return item
}
