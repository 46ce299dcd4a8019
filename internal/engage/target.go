// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package engage

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.astrophena.name/scibot/internal/notify"
	"go.astrophena.name/scibot/internal/platform"
)

// Target is the post an action is applied to.
type Target struct {
	ID string
	// Account is the ID of the target's author. It's empty when the author
	// couldn't be looked up.
	Account string
}

// Throttle is the view of interaction history the bot needs.
// [interactions.Tracker] implements it.
type Throttle interface {
	IsOverThreshold(account string) bool
	IsFollower(account string) bool
	Record(account string) error
}

// Lookup is the subset of [platform.Platform] used to pick targets.
type Lookup interface {
	Post(ctx context.Context, id string) (*platform.Post, error)
	Resharers(ctx context.Context, id string) ([]*platform.Post, error)
}

// Heuristic redirects engagement from a post towards one of the small
// accounts that reshared it.
type Heuristic struct {
	lookup   Lookup
	throttle Throttle
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewHeuristic returns a Heuristic.
func NewHeuristic(lookup Lookup, throttle Throttle, notifier notify.Notifier, logger *slog.Logger) *Heuristic {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Heuristic{
		lookup:   lookup,
		throttle: throttle,
		notifier: notifier,
		logger:   cmp.Or(logger, slog.Default()),
	}
}

// resharerKey orders resharers. Friend-heavy accounts are keyed by their
// followers/friends ratio, the rest by their raw follower count. Both kinds
// are compared on the same axis.
type resharerKey struct {
	value float64
	id    string
}

func keyOf(reshare *platform.Post) resharerKey {
	u := reshare.Author
	if u.Friends > u.Followers {
		var ratio float64
		if u.Friends != 0 {
			ratio = float64(u.Followers) / float64(u.Friends)
		}
		return resharerKey{value: ratio, id: reshare.ID}
	}
	return resharerKey{value: float64(u.Followers), id: reshare.ID}
}

func (k resharerKey) compare(o resharerKey) int {
	return cmp.Or(cmp.Compare(k.value, o.value), strings.Compare(k.id, o.id))
}

// ChooseTarget returns the reshare of postID by the most promising account:
// the one with the smallest key among accounts not over the interaction
// threshold, preferring accounts that don't follow the bot yet. Without such
// reshares, or on lookup failure, it returns postID itself.
func (h *Heuristic) ChooseTarget(ctx context.Context, postID string) Target {
	orig := Target{ID: postID}

	post, err := h.lookup.Post(ctx, postID)
	if err != nil {
		h.logger.Warn("looking up post failed", "id", postID, "error", err)
		return orig
	}
	orig.Account = post.Author.ID

	source := post.ID
	if post.Reshared != nil {
		source = post.Reshared.ID
	}
	reshares, err := h.lookup.Resharers(ctx, source)
	if err != nil {
		h.logger.Warn("looking up resharers failed", "id", source, "error", err)
		return orig
	}

	reshares = slices.DeleteFunc(slices.Clone(reshares), func(r *platform.Post) bool {
		return r == nil || h.throttle.IsOverThreshold(r.Author.ID)
	})
	if len(reshares) == 0 {
		h.logger.Info("acting on original post", "id", postID)
		return orig
	}

	byKey := func(a, b *platform.Post) int { return keyOf(a).compare(keyOf(b)) }
	pool := slices.DeleteFunc(slices.Clone(reshares), func(r *platform.Post) bool {
		return h.throttle.IsFollower(r.Author.ID)
	})
	if len(pool) == 0 {
		pool = reshares
	}
	best := slices.MinFunc(pool, byKey)

	msg := fmt.Sprintf("Trying %s from potential friend profile: %s friends=%d, followers=%d",
		best.ID, best.Author.ScreenName, best.Author.Friends, best.Author.Followers)
	h.logger.Info("chose resharer",
		"id", postID,
		"target", best.ID,
		"screen_name", best.Author.ScreenName,
		"friends", best.Author.Friends,
		"followers", best.Author.Followers,
	)
	h.notifier.Notify(ctx, msg)

	return Target{ID: best.ID, Account: best.Author.ID}
}
