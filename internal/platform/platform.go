// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package platform defines the microblogging platform the bot acts on.
package platform

import (
	"context"
	"errors"
	"fmt"
)

// User is a snapshot of an account's public counters taken at lookup time.
type User struct {
	ID         string `json:"id"`
	ScreenName string `json:"screen_name"`
	Followers  int    `json:"followers"`
	Friends    int    `json:"friends"`
}

// Post is a status on the platform.
type Post struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Reposts   int    `json:"reposts"`
	Favorites int    `json:"favorites"`
	// QuotedID is the ID of the quoted post, if this post quotes one.
	QuotedID string `json:"quoted_id,omitempty"`
	// Reshared is the original post if this post is a reshare.
	Reshared *Post `json:"reshared,omitempty"`
	// Reposted reports whether the authenticated account has reposted it.
	Reposted bool `json:"reposted,omitempty"`
	Author   User `json:"author"`
}

// Platform is the set of platform calls the bot makes.
type Platform interface {
	// Search returns up to count recent posts matching query.
	Search(ctx context.Context, query string, count int) ([]*Post, error)
	// ListTimeline returns up to count recent posts of a curated list.
	ListTimeline(ctx context.Context, listID string, count int) ([]*Post, error)
	// OwnTimeline returns up to count recent posts of the authenticated account.
	OwnTimeline(ctx context.Context, count int) ([]*Post, error)
	// Post returns a single post.
	Post(ctx context.Context, id string) (*Post, error)
	// Resharers returns the reshares of a post; their authors are the resharers.
	Resharers(ctx context.Context, id string) ([]*Post, error)
	// FollowerIDs returns account IDs following the authenticated account.
	FollowerIDs(ctx context.Context) ([]string, error)

	// Update publishes a new post.
	Update(ctx context.Context, text string) error
	// Repost reshares a post.
	Repost(ctx context.Context, id string) error
	// Unrepost undoes a reshare.
	Unrepost(ctx context.Context, id string) error
	// Favorite favorites a post.
	Favorite(ctx context.Context, id string) error
}

// Error is a failed platform call carrying the platform's numeric error code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("platform error %d: %s", e.Code, e.Message)
}

// Code returns the platform error code carried by err, if any.
func Code(err error) (code int, ok bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code, true
	}
	return 0, false
}
