// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package candidate turns platform search results into an ordered list of
// on-topic posts worth acting on.
package candidate

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.astrophena.name/scibot/internal/platform"
)

// Vocabulary holds the term lists a post is matched against. Matching is a
// case-insensitive substring match.
type Vocabulary struct {
	// Topics make a post actionable.
	Topics []string
	// Exclude drops a post regardless of any other match.
	Exclude []string
	// Watch terms are reported but never make a post actionable on their own.
	Watch []string
}

// RankPolicy selects the ordering key of candidates.
type RankPolicy string

const (
	// Engagement orders by (reposts, favorites, total).
	Engagement RankPolicy = "engagement"
	// Total orders by reposts + favorites.
	Total RankPolicy = "total"
)

// ParseRankPolicy parses s into a RankPolicy. Empty string means Engagement.
func ParseRankPolicy(s string) (RankPolicy, error) {
	switch p := RankPolicy(s); p {
	case "":
		return Engagement, nil
	case Engagement, Total:
		return p, nil
	default:
		return "", fmt.Errorf("unknown rank policy %q", s)
	}
}

// Score is the engagement of a post.
type Score struct {
	Reposts   int
	Favorites int
	Total     int
}

// Candidate is a post selected for action.
type Candidate struct {
	Score Score
	ID    string
	// Text is the post's own text, without the quoted post.
	Text string
}

// QuoteResolver looks up quoted posts. [platform.Platform] implements it.
type QuoteResolver interface {
	Post(ctx context.Context, id string) (*platform.Post, error)
}

// Result is the outcome of filtering a batch of posts.
type Result struct {
	// Candidates are actionable posts sorted ascending by rank, so the best
	// one is last.
	Candidates []Candidate
	// Watched are posts that matched only watch-list terms.
	Watched []Candidate
}

// Filter decides which posts are on-topic.
type Filter struct {
	vocab    Vocabulary
	policy   RankPolicy
	resolver QuoteResolver
	logger   *slog.Logger
}

// NewFilter returns a Filter. resolver may be nil, in which case quoted posts
// are not looked up.
func NewFilter(vocab Vocabulary, policy RankPolicy, resolver QuoteResolver, logger *slog.Logger) *Filter {
	return &Filter{
		vocab: Vocabulary{
			Topics:  lower(vocab.Topics),
			Exclude: lower(vocab.Exclude),
			Watch:   lower(vocab.Watch),
		},
		policy:   cmp.Or(policy, Engagement),
		resolver: resolver,
		logger:   cmp.Or(logger, slog.Default()),
	}
}

func lower(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Filter filters posts and sorts the actionable ones.
func (f *Filter) Filter(ctx context.Context, posts []*platform.Post) Result {
	var res Result
	for _, p := range posts {
		if p == nil {
			continue
		}
		c := Candidate{
			ID:   p.ID,
			Text: p.Text,
			Score: Score{
				Reposts:   p.Reposts,
				Favorites: p.Favorites,
				Total:     p.Reposts + p.Favorites,
			},
		}

		full := strings.ToLower(f.fullText(ctx, p))
		switch {
		case len(strings.Fields(full)) <= 3:
			continue
		case c.Score.Total <= 1:
			continue
		case containsAny(full, f.vocab.Exclude):
			f.logger.Debug("excluded post", "id", p.ID)
			continue
		case containsAny(full, f.vocab.Topics):
			res.Candidates = append(res.Candidates, c)
		case containsAny(full, f.vocab.Watch):
			f.logger.Info("watched post", "id", p.ID, "text", p.Text)
			res.Watched = append(res.Watched, c)
		}
	}
	slices.SortFunc(res.Candidates, f.compare)
	return res
}

func (f *Filter) fullText(ctx context.Context, p *platform.Post) string {
	if p.QuotedID == "" || f.resolver == nil {
		return p.Text
	}
	q, err := f.resolver.Post(ctx, p.QuotedID)
	if err != nil {
		f.logger.Warn("looking up quoted post failed", "id", p.ID, "quoted", p.QuotedID, "error", err)
		return p.Text
	}
	return p.Text + " " + q.Text
}

func (f *Filter) compare(a, b Candidate) int {
	var c int
	switch f.policy {
	case Total:
		c = cmp.Compare(a.Score.Total, b.Score.Total)
	default:
		c = cmp.Or(
			cmp.Compare(a.Score.Reposts, b.Score.Reposts),
			cmp.Compare(a.Score.Favorites, b.Score.Favorites),
			cmp.Compare(a.Score.Total, b.Score.Total),
		)
	}
	return cmp.Or(c, strings.Compare(a.ID, b.ID))
}

func containsAny(s string, terms []string) bool {
	return slices.ContainsFunc(terms, func(t string) bool {
		return strings.Contains(s, t)
	})
}

// BuildQuery returns a platform search query matching any of include and none
// of exclude.
func BuildQuery(include, exclude []string) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(include, " OR "))
	for _, e := range exclude {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString("-" + e)
	}
	return sb.String()
}
