// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package compose builds status updates from feed items.
package compose

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.astrophena.name/scibot/internal/feed"
)

// DefaultMaxLength is the maximum length of the title part of a status update,
// in characters.
const DefaultMaxLength = 250

const ellipsis = "..."

// Composer turns feed items into status updates.
type Composer struct {
	terms     []*regexp.Regexp
	maxLength int
}

// New returns a Composer that hashtags every term of hashtags found in a
// title and truncates titles to maxLength characters. A maxLength less than
// one means DefaultMaxLength.
func New(hashtags []string, maxLength int) *Composer {
	c := &Composer{maxLength: maxLength}
	if c.maxLength < 1 {
		c.maxLength = DefaultMaxLength
	}
	for _, term := range hashtags {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		c.terms = append(c.terms, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(term)))
	}
	return c
}

// Compose returns the status update for item: the hashtagged and shortened
// title followed by the link.
func (c *Composer) Compose(item *feed.Item) string {
	title := Shorten(c.Hashtag(item.Title), c.maxLength)
	switch {
	case title == "":
		return item.Link
	case item.Link == "":
		return title
	}
	return title + " " + item.Link
}

// Hashtag inserts a "#" before the first whole-word, case-insensitive
// occurrence of every vocabulary term in title.
func (c *Composer) Hashtag(title string) string {
	var offsets []int
	for _, re := range c.terms {
		loc := firstWholeWord(re, title)
		if loc == nil {
			continue
		}
		if loc[0] > 0 && title[loc[0]-1] == '#' {
			continue
		}
		offsets = append(offsets, loc[0])
	}
	if len(offsets) == 0 {
		return title
	}

	// Insert from the rightmost offset so earlier offsets stay valid.
	slices.Sort(offsets)
	offsets = slices.Compact(offsets)
	for _, off := range slices.Backward(offsets) {
		title = title[:off] + "#" + title[off:]
	}
	return title
}

// firstWholeWord returns the location of the first match of re in s that
// starts and ends at word boundaries. Boundaries are Unicode-aware, which
// RE2's \b is not: "ïlsd" must not match "lsd".
func firstWholeWord(re *regexp.Regexp, s string) []int {
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if loc[0] == loc[1] {
			continue
		}
		if isBoundary(s, loc[0]) && isBoundary(s, loc[1]) {
			return loc
		}
	}
	return nil
}

// isBoundary reports whether a word character is on exactly one side of the
// byte offset i in s.
func isBoundary(s string, i int) bool {
	var before, after bool
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// Shorten truncates text to maxLength characters, appending "..." if it was
// truncated.
func Shorten(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	return string([]rune(text)[:maxLength]) + ellipsis
}
