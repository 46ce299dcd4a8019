// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package engage reposts and favorites the best candidate posts.
//
// A [Selector] walks ranked candidates best-first and stops after the first
// successful action. Every attempt ends with an explicit [Outcome]; the loop
// never uses errors to decide whether to go on.
package engage

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"go.astrophena.name/scibot/internal/candidate"
	"go.astrophena.name/scibot/internal/compose"
	"go.astrophena.name/scibot/internal/logstore"
	"go.astrophena.name/scibot/internal/notify"
	"go.astrophena.name/scibot/internal/platform"
)

// Defaults for Config.
const (
	DefaultAttemptDelay   = 2 * time.Second
	DefaultFavoriteJitter = 30 * time.Second
	logTextLength         = 140
)

// DefaultIgnoreCodes are platform error codes meaning the action can never
// succeed: 327 is "already retweeted", 139 is "already favorited".
var DefaultIgnoreCodes = []int{327, 139}

// Kind is an engagement action.
type Kind int

const (
	Repost Kind = iota
	Favorite
)

func (k Kind) String() string {
	switch k {
	case Repost:
		return "repost"
	case Favorite:
		return "favorite"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome is the result of a single attempt.
type Outcome int

const (
	// Acted means the action succeeded and was recorded.
	Acted Outcome = iota + 1
	// SkippedAlreadyHandled means the target is in the log already.
	SkippedAlreadyHandled
	// SkippedFiltered means the target's author was engaged with too often.
	SkippedFiltered
	// FailedPermanent means the platform rejected the action with an
	// ignorable code. The target is logged so it isn't tried again.
	FailedPermanent
	// FailedTransient means the action failed for any other reason.
	FailedTransient
)

var outcomeNames = map[Outcome]string{
	Acted:                 "acted",
	SkippedAlreadyHandled: "skipped (already handled)",
	SkippedFiltered:       "skipped (filtered)",
	FailedPermanent:       "failed (permanent)",
	FailedTransient:       "failed (transient)",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Attempt describes what happened to one candidate.
type Attempt struct {
	Candidate candidate.Candidate
	Target    Target
	Outcome   Outcome
	Err       error
	// Performed is set once the platform accepted the action, even if the
	// bookkeeping after it failed.
	Performed bool
}

// Report is the result of [Selector.SelectAndAct].
type Report struct {
	Kind     Kind
	Attempts []Attempt
}

// Acted returns the successful attempt, if any.
func (r Report) Acted() (Attempt, bool) {
	i := slices.IndexFunc(r.Attempts, func(a Attempt) bool { return a.Outcome == Acted })
	if i < 0 {
		return Attempt{}, false
	}
	return r.Attempts[i], true
}

// TargetChooser picks the post to act on for a candidate. [Heuristic]
// implements it.
type TargetChooser interface {
	ChooseTarget(ctx context.Context, postID string) Target
}

// Config configures a Selector.
type Config struct {
	Platform platform.Platform
	Chooser  TargetChooser
	Throttle Throttle
	// Logs holds the log of handled targets for every kind.
	Logs        map[Kind]*logstore.Store
	Notifier    notify.Notifier
	IgnoreCodes []int
	// AttemptDelay is the pause between attempts.
	AttemptDelay time.Duration
	// FavoriteJitter is the upper bound of a random pause before favoriting.
	FavoriteJitter time.Duration
	Logger         *slog.Logger
	// Sleep pauses for the given duration, returning false if ctx is done
	// first. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) bool
}

// Selector acts on ranked candidates.
type Selector struct {
	p              platform.Platform
	chooser        TargetChooser
	throttle       Throttle
	logs           map[Kind]*logstore.Store
	notifier       notify.Notifier
	ignore         []int
	attemptDelay   time.Duration
	favoriteJitter time.Duration
	logger         *slog.Logger

	sleep  func(context.Context, time.Duration) bool
	jitter func(time.Duration) time.Duration
}

// NewSelector returns a Selector. Zero durations and a nil IgnoreCodes fall
// back to the package defaults; use a negative duration to disable a pause.
func NewSelector(cfg Config) *Selector {
	s := &Selector{
		p:              cfg.Platform,
		chooser:        cfg.Chooser,
		throttle:       cfg.Throttle,
		logs:           cfg.Logs,
		notifier:       cfg.Notifier,
		ignore:         cfg.IgnoreCodes,
		attemptDelay:   cmp.Or(cfg.AttemptDelay, DefaultAttemptDelay),
		favoriteJitter: cmp.Or(cfg.FavoriteJitter, DefaultFavoriteJitter),
		logger:         cmp.Or(cfg.Logger, slog.Default()),
		sleep:          sleep,
		jitter:         randomJitter,
	}
	if s.notifier == nil {
		s.notifier = notify.Discard
	}
	if s.ignore == nil {
		s.ignore = DefaultIgnoreCodes
	}
	if cfg.Sleep != nil {
		s.sleep = cfg.Sleep
	}
	return s
}

// SelectAndAct tries candidates best-first, that is from the end of the
// slice, until the platform accepts one action. Running out of candidates is not an
// error; the returned error is non-nil only when ctx is done.
func (s *Selector) SelectAndAct(ctx context.Context, candidates []candidate.Candidate, kind Kind) (Report, error) {
	report := Report{Kind: kind}
	for i, c := range slices.Backward(candidates) {
		if i != len(candidates)-1 && !s.sleep(ctx, s.attemptDelay) {
			return report, ctx.Err()
		}

		a := s.attempt(ctx, c, kind)
		report.Attempts = append(report.Attempts, a)
		if a.Performed {
			return report, nil
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
	}
	s.logger.Info("no more candidates", "kind", kind, "tried", len(report.Attempts))
	return report, nil
}

func (s *Selector) attempt(ctx context.Context, c candidate.Candidate, kind Kind) Attempt {
	a := Attempt{Candidate: c, Target: s.chooser.ChooseTarget(ctx, c.ID)}
	log := s.logs[kind]
	attrs := []any{"kind", kind, "id", c.ID, "target", a.Target.ID}

	if log.Exists(a.Target.ID) {
		s.logger.Info("already handled", attrs...)
		a.Outcome = SkippedAlreadyHandled
		return a
	}
	if a.Target.Account != "" && s.throttle.IsOverThreshold(a.Target.Account) {
		s.logger.Info("author is over interaction threshold", append(attrs, "account", a.Target.Account)...)
		a.Outcome = SkippedFiltered
		return a
	}

	a.Err = s.act(ctx, kind, a.Target.ID)
	if a.Err != nil {
		if code, ok := platform.Code(a.Err); ok && slices.Contains(s.ignore, code) {
			s.logger.Warn("ignoring permanent failure", append(attrs, "code", code, "error", a.Err)...)
			log.Append(a.Target.ID)
			a.Outcome = FailedPermanent
			return a
		}
		s.logger.Error("action failed", append(attrs, "error", a.Err)...)
		a.Outcome = FailedTransient
		return a
	}
	a.Performed = true

	if a.Target.Account != "" {
		if err := s.throttle.Record(a.Target.Account); err != nil {
			s.logger.Error("recording interaction failed", append(attrs, "account", a.Target.Account, "error", err)...)
			// The action happened, so no other candidate may be tried, but
			// it is not claimed as done.
			a.Err = fmt.Errorf("recording interaction: %w", err)
			a.Outcome = FailedTransient
			return a
		}
	}
	log.Append(a.Target.ID)

	var msg string
	switch kind {
	case Repost:
		msg = fmt.Sprintf("Reposted %s: %s", a.Target.ID, compose.Shorten(c.Text, logTextLength))
	default:
		msg = fmt.Sprintf("Favorited %s", a.Target.ID)
	}
	s.logger.Info(msg, attrs...)
	s.notifier.Notify(ctx, msg)

	a.Outcome = Acted
	return a
}

func (s *Selector) act(ctx context.Context, kind Kind, id string) error {
	switch kind {
	case Repost:
		return s.p.Repost(ctx, id)
	case Favorite:
		if !s.sleep(ctx, s.jitter(s.favoriteJitter)) {
			return ctx.Err()
		}
		return s.p.Favorite(ctx, id)
	default:
		return fmt.Errorf("unknown action kind %v", kind)
	}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
