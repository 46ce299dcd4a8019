// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package platformtest provides an in-memory [platform.Platform] for tests.
package platformtest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.astrophena.name/scibot/internal/platform"
)

// Fake is an in-memory platform. Zero value is ready to use.
type Fake struct {
	SearchResults []*platform.Post
	ListResults   []*platform.Post
	OwnResults    []*platform.Post
	// Posts are returned by Post, keyed by ID.
	Posts map[string]*platform.Post
	// Reshares are returned by Resharers, keyed by the original post ID.
	Reshares  map[string][]*platform.Post
	Followers []string
	// Errs maps a call, formatted as "Method arg", to the error it returns.
	Errs map[string]error

	mu    sync.Mutex
	calls []string
}

// Calls returns the calls made so far, formatted as "Method arg".
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *Fake) call(method, arg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := method + " " + arg
	f.calls = append(f.calls, c)
	return f.Errs[c]
}

func limit(posts []*platform.Post, count int) []*platform.Post {
	if count > 0 && len(posts) > count {
		return posts[:count]
	}
	return posts
}

func (f *Fake) Search(ctx context.Context, query string, count int) ([]*platform.Post, error) {
	if err := f.call("Search", query); err != nil {
		return nil, err
	}
	return limit(f.SearchResults, count), nil
}

func (f *Fake) ListTimeline(ctx context.Context, listID string, count int) ([]*platform.Post, error) {
	if err := f.call("ListTimeline", listID); err != nil {
		return nil, err
	}
	return limit(f.ListResults, count), nil
}

func (f *Fake) OwnTimeline(ctx context.Context, count int) ([]*platform.Post, error) {
	if err := f.call("OwnTimeline", fmt.Sprint(count)); err != nil {
		return nil, err
	}
	return limit(f.OwnResults, count), nil
}

func (f *Fake) Post(ctx context.Context, id string) (*platform.Post, error) {
	if err := f.call("Post", id); err != nil {
		return nil, err
	}
	p, ok := f.Posts[id]
	if !ok {
		return nil, &platform.Error{Code: 144, Message: "No status found with that ID."}
	}
	return p, nil
}

func (f *Fake) Resharers(ctx context.Context, id string) ([]*platform.Post, error) {
	if err := f.call("Resharers", id); err != nil {
		return nil, err
	}
	return f.Reshares[id], nil
}

func (f *Fake) FollowerIDs(ctx context.Context) ([]string, error) {
	if err := f.call("FollowerIDs", ""); err != nil {
		return nil, err
	}
	return f.Followers, nil
}

func (f *Fake) Update(ctx context.Context, text string) error { return f.call("Update", text) }
func (f *Fake) Repost(ctx context.Context, id string) error   { return f.call("Repost", id) }
func (f *Fake) Unrepost(ctx context.Context, id string) error { return f.call("Unrepost", id) }
func (f *Fake) Favorite(ctx context.Context, id string) error { return f.call("Favorite", id) }

var _ platform.Platform = (*Fake)(nil)
