// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"go.astrophena.name/scibot/internal/cli"
	"go.astrophena.name/scibot/internal/compose"
	"go.astrophena.name/scibot/internal/engage"
	"go.astrophena.name/scibot/internal/platform"
	"go.astrophena.name/scibot/internal/schedule"
	"go.astrophena.name/scibot/internal/systemd"
)

const (
	ownTimelineCount    = 10
	alreadyRepostedCode = 327
	notifyTextLength    = 140
)

type source int

const (
	globalSearch source = iota
	listTimeline
)

func (b *bot) jobs() map[string]schedule.Func {
	return map[string]schedule.Func{
		"rss": b.postFeedItem,
		"rtg": func(ctx context.Context) error { return b.amplify(ctx, globalSearch, engage.Repost) },
		"rtl": func(ctx context.Context) error { return b.amplify(ctx, listTimeline, engage.Repost) },
		"glv": func(ctx context.Context) error { return b.amplify(ctx, globalSearch, engage.Favorite) },
		"rto": b.repostOwn,
		"flw": b.checkFollowers,
	}
}

func (b *bot) runScheduler(ctx context.Context, jobs map[string]schedule.Func) error {
	s := schedule.New(schedule.Config{
		Logger:  b.slog,
		OnError: b.errNotify,
	})
	if err := s.AddAll(b.cfg.Schedule, jobs); err != nil {
		return err
	}

	sd := systemd.New(cli.GetEnv(ctx).Getenv, b.slog)
	go sd.WatchdogLoop(ctx)
	stop := context.AfterFunc(ctx, func() { sd.Notify(systemd.Stopping) })
	defer stop()
	sd.Notify(systemd.Ready)

	return s.Run(ctx)
}

// postFeedItem posts the newest feed item that wasn't posted before. When
// every item was posted already, the log is trimmed.
func (b *bot) postFeedItem(ctx context.Context) error {
	items, err := b.feeds.Fetch(ctx, b.cfg.Feeds)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		b.slog.Info("nothing found in feeds")
		return nil
	}

	for _, item := range items {
		id := cmp.Or(item.ID, item.Link)
		if id == "" {
			continue
		}
		if b.posted.Exists(id) {
			b.slog.Debug("already posted", "id", id)
			continue
		}

		text := b.composer.Compose(item)
		if err := b.platform.Update(ctx, text); err != nil {
			if code, ok := platform.Code(err); ok && slices.Contains(b.cfg.IgnoreErrors, code) {
				b.slog.Warn("ignoring permanent failure", "id", id, "code", code, "error", err)
				b.posted.Append(id)
				continue
			}
			return fmt.Errorf("posting %s: %w", id, err)
		}
		b.posted.Append(id)

		b.slog.Info("posted", "id", id, "text", text)
		b.notifier.Notify(ctx, "Posted: "+text)
		return nil
	}

	b.slog.Info("no new feed items")
	return b.posted.Trim()
}

// amplify reposts or favorites the best on-topic post from src.
func (b *bot) amplify(ctx context.Context, src source, kind engage.Kind) error {
	var (
		posts []*platform.Post
		err   error
	)
	switch src {
	case globalSearch:
		posts, err = b.platform.Search(ctx, b.cfg.Query(), b.cfg.SearchCount)
	case listTimeline:
		posts, err = b.platform.ListTimeline(ctx, b.cfg.ListID, b.cfg.SearchCount)
	}
	if err != nil {
		return fmt.Errorf("fetching posts: %w", err)
	}

	res := b.filter.Filter(ctx, posts)
	if len(res.Watched) > 0 {
		b.slog.Info("found watched posts", "count", len(res.Watched))
	}
	if len(res.Candidates) == 0 {
		b.slog.Info("nothing to do", "kind", kind, "fetched", len(posts))
		return nil
	}

	_, err = b.selector.SelectAndAct(ctx, res.Candidates, kind)
	return err
}

// repostOwn reposts the latest own post that isn't reposted yet. A post the
// platform reports as reposted already is unreposted and reposted again so it
// shows up on top of followers' timelines.
func (b *bot) repostOwn(ctx context.Context) error {
	posts, err := b.platform.OwnTimeline(ctx, ownTimelineCount)
	if err != nil {
		return fmt.Errorf("fetching own posts: %w", err)
	}

	for _, p := range posts {
		if p.Reposted {
			b.slog.Debug("already reposted, trying next", "id", p.ID)
			continue
		}

		err := b.platform.Repost(ctx, p.ID)
		if code, ok := platform.Code(err); ok && code == alreadyRepostedCode {
			b.slog.Info("refreshing repost", "id", p.ID)
			if err := b.platform.Unrepost(ctx, p.ID); err != nil {
				return fmt.Errorf("undoing repost of %s: %w", p.ID, err)
			}
			err = b.platform.Repost(ctx, p.ID)
		}
		if err != nil {
			return fmt.Errorf("reposting %s: %w", p.ID, err)
		}

		msg := "Reposted own: " + compose.Shorten(p.Text, notifyTextLength)
		b.slog.Info(msg, "id", p.ID)
		b.notifier.Notify(ctx, msg)
		return nil
	}

	b.slog.Info("no own posts to repost", "checked", len(posts))
	return nil
}

// checkFollowers updates the follower flags of known accounts and reports
// new followers.
func (b *bot) checkFollowers(ctx context.Context) error {
	ids, err := b.platform.FollowerIDs(ctx)
	if err != nil {
		return fmt.Errorf("fetching followers: %w", err)
	}
	added, err := b.tracker.SetFollowers(ids)
	if err != nil {
		return fmt.Errorf("saving followers: %w", err)
	}
	if len(added) == 0 {
		b.slog.Info("no new followers", "followers", len(ids))
		return nil
	}

	msg := fmt.Sprintf("%d new followers: %s", len(added), strings.Join(added, ", "))
	b.slog.Info(msg)
	b.notifier.Notify(ctx, msg)
	return nil
}
