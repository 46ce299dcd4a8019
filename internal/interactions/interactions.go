// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package interactions tracks how often the bot engaged with each account and
// whether the account follows it back.
//
// The state is a single JSON file of the form
//
//	{"<account>": {"follower": false, "interactions": 3}}
//
// Every update reads the whole file, changes it in memory and atomically
// replaces it. This is not a database: a single writer is assumed.
package interactions

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"slices"
	"sync"

	"go.astrophena.name/scibot/internal/atomicio"
)

// Account is the tracked state of a single account.
type Account struct {
	Follower     bool `json:"follower"`
	Interactions int  `json:"interactions"`
}

// Tracker persists per-account interaction counters.
type Tracker struct {
	path     string
	readOnly bool
	logger   *slog.Logger

	mu sync.Mutex
}

// New returns a Tracker backed by the file at path. In read-only mode updates
// are computed and logged, but not written.
func New(path string, readOnly bool, logger *slog.Logger) *Tracker {
	return &Tracker{
		path:     path,
		readOnly: readOnly,
		logger:   cmp.Or(logger, slog.Default()),
	}
}

func (t *Tracker) load() (map[string]Account, error) {
	b, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]Account{}, nil
	}
	if err != nil {
		return nil, err
	}
	accounts := make(map[string]Account)
	if len(bytes.TrimSpace(b)) == 0 {
		return accounts, nil
	}
	if err := json.Unmarshal(b, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (t *Tracker) save(accounts map[string]Account) error {
	if t.readOnly {
		return nil
	}
	b, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return err
	}
	return atomicio.WriteFile(t.path, b, 0o644)
}

// snapshot loads the state for read-only queries, logging failures.
func (t *Tracker) snapshot() map[string]Account {
	t.mu.Lock()
	defer t.mu.Unlock()
	accounts, err := t.load()
	if err != nil {
		t.logger.Warn("reading interactions failed", "path", t.path, "error", err)
		return nil
	}
	return accounts
}

// Threshold returns the mean interaction count over accounts that don't
// follow back, rounded half to even and at least 1. It returns 0 when there
// are no such accounts.
func (t *Tracker) Threshold() int {
	return threshold(t.snapshot())
}

// threshold is the rounded mean of interactions over non-followers. It is
// never below 1 while such accounts exist, because 0 means "nothing is over
// threshold". Former followers are tracked with no interactions; when they
// pull the mean under one half, the throttle must still hold back accounts
// the bot has already engaged with.
func threshold(accounts map[string]Account) int {
	var sum, n int
	for _, a := range accounts {
		if a.Follower {
			continue
		}
		sum += a.Interactions
		n++
	}
	if n == 0 {
		return 0
	}
	return max(1, int(math.RoundToEven(float64(sum)/float64(n))))
}

// IsOverThreshold reports whether the bot has already engaged with account
// at least Threshold times. Unknown accounts are never over threshold.
func (t *Tracker) IsOverThreshold(account string) bool {
	accounts := t.snapshot()
	a, ok := accounts[account]
	if !ok {
		return false
	}
	th := threshold(accounts)
	return th > 0 && a.Interactions >= th
}

// Record counts one more interaction with account. The action it describes
// must not be reported as done if Record fails.
func (t *Tracker) Record(account string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	accounts, err := t.load()
	if err != nil {
		return err
	}
	a := accounts[account]
	a.Interactions++
	accounts[account] = a
	t.logger.Debug("recorded interaction", "account", account, "interactions", a.Interactions)
	return t.save(accounts)
}

// SetFollowers marks ids as followers and every other known account as not
// following. It returns accounts that weren't followers before, in ids order.
func (t *Tracker) SetFollowers(ids []string) (added []string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	accounts, err := t.load()
	if err != nil {
		return nil, err
	}

	followers := make(map[string]bool, len(ids))
	for _, id := range ids {
		if followers[id] {
			continue
		}
		followers[id] = true
		if !accounts[id].Follower {
			added = append(added, id)
		}
	}
	for id, a := range accounts {
		a.Follower = followers[id]
		accounts[id] = a
	}
	for id := range followers {
		a := accounts[id]
		a.Follower = true
		accounts[id] = a
	}

	if err := t.save(accounts); err != nil {
		return nil, err
	}
	return added, nil
}

// IsFollower reports whether account is known to follow the bot.
func (t *Tracker) IsFollower(account string) bool {
	return t.snapshot()[account].Follower
}

// Followers returns known followers in sorted order.
func (t *Tracker) Followers() []string {
	var out []string
	for id, a := range t.snapshot() {
		if a.Follower {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
