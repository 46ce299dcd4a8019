// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package config loads bot settings.
//
// Behaviour is configured by an optional Starlark file, config.star. Every
// global it defines overrides the default of the same name:
//
//	feeds = ["https://export.arxiv.org/api/query?search_query=all:psilocybin*"]
//	hashtags = ["psilocybin", "lsd"]
//	include = ["harmreduction"]
//	exclude = ["vape"]
//	watch = []
//	list_id = "1306244304000749569"
//	ignore_errors = [327, 139]
//	rank_policy = "engagement"  # or "total"
//	search_count = 10
//	post_max_length = 250
//	attempt_delay = 2  # seconds
//	favorite_jitter = 30  # seconds
//	schedule = {"rss": ["20 22 * * *"], "glv": ["@every 58m"]}
//
// Secrets come from the environment, optionally backed by a dotenv file.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"slices"
	"time"

	"go.astrophena.name/scibot/internal/candidate"
	"go.astrophena.name/scibot/internal/compose"
	"go.astrophena.name/scibot/internal/engage"
	"go.astrophena.name/scibot/internal/schedule"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Config is the bot configuration.
type Config struct {
	Feeds          []string             `json:"feeds"`
	Hashtags       []string             `json:"hashtags"`
	Include        []string             `json:"include"`
	Exclude        []string             `json:"exclude"`
	Watch          []string             `json:"watch"`
	ListID         string               `json:"list_id"`
	IgnoreErrors   []int                `json:"ignore_errors"`
	RankPolicy     candidate.RankPolicy `json:"rank_policy"`
	SearchCount    int                  `json:"search_count"`
	PostMaxLength  int                  `json:"post_max_length"`
	AttemptDelay   time.Duration        `json:"attempt_delay"`
	FavoriteJitter time.Duration        `json:"favorite_jitter"`
	Schedule       map[string][]string  `json:"schedule"`
}

// Vocabulary returns the term lists used to filter candidates.
func (c *Config) Vocabulary() candidate.Vocabulary {
	return candidate.Vocabulary{
		Topics:  slices.Concat(c.Hashtags, c.Include),
		Exclude: c.Exclude,
		Watch:   c.Watch,
	}
}

// Query returns the platform search query.
func (c *Config) Query() string {
	return candidate.BuildQuery(c.Include, c.Exclude)
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Feeds: []string{
			"https://pubmed.ncbi.nlm.nih.gov/rss/search/1Di1IZzM0R4FRnKYsI1qINYHDYUiWSVAWo0rd3bhufn34wQ9HU/?limit=100&utm_campaign=pubmed-2&fc=20201028084526",
			"http://export.arxiv.org/api/query?search_query=all:psilocybin*&start=0&max_results=100&sortBy=lastUpdatedDate&sortOrder=descending",
		},
		Hashtags: []string{
			"psilocybin", "psilocybine", "psychedelic", "psychological",
			"hallucinogenictrip", "therapy", "psychiatry", "dmt",
			"mentalhealth", "alzheimer", "depression", "anxiety",
			"dopamine", "serotonin", "lsd", "drug-policy", "drugspolicy",
			"drugpolicy", "mdma", "microdosing", "drug", "ayahuasca",
			"psychopharmacology", "clinical trial", "neurogenesis",
			"serotonergic", "ketamine", "consciousness", "psychotherapy",
			"meta-analysis",
		},
		Include: []string{
			"drugpolicy", "drugspolicy", "transformdrugspolicy",
			"transformdrugpolicy", "drugchecking", "regulatestimulants",
			"regulatedrugs", "sensibledrugpolicy", "drugpolicyreform",
			"safeconsumption", "harmreduction", "druguse", "safesuply",
			"safersuply",
		},
		Exclude:        []string{"sex", "sexual", "sexwork", "sexualwork", "fuck", "vaping", "vape"},
		ListID:         "1306244304000749569",
		IgnoreErrors:   slices.Clone(engage.DefaultIgnoreCodes),
		RankPolicy:     candidate.Engagement,
		SearchCount:    10,
		PostMaxLength:  compose.DefaultMaxLength,
		AttemptDelay:   engage.DefaultAttemptDelay,
		FavoriteJitter: engage.DefaultFavoriteJitter,
		Schedule:       schedule.Default(),
	}
}

// Load reads the configuration from the Starlark file at path. A missing file
// yields the defaults.
func Load(path string, logger *slog.Logger) (*Config, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cmp.Or(logger, slog.Default()).Debug("no config file, using defaults", "path", path)
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(path, src, logger)
}

// Parse evaluates a Starlark configuration file.
func Parse(filename string, src []byte, logger *slog.Logger) (*Config, error) {
	logger = cmp.Or(logger, slog.Default())
	globals, err := starlark.ExecFileOptions(
		&syntax.FileOptions{
			TopLevelControl: true,
		},
		&starlark.Thread{
			Name:  "config",
			Print: func(_ *starlark.Thread, msg string) { logger.Info(msg, "file", filename) },
		},
		filename,
		src,
		nil,
	)
	if err != nil {
		return nil, err
	}

	c := Default()
	fields := []struct {
		name string
		set  func(starlark.Value) error
	}{
		{"feeds", stringList(&c.Feeds)},
		{"hashtags", stringList(&c.Hashtags)},
		{"include", stringList(&c.Include)},
		{"exclude", stringList(&c.Exclude)},
		{"watch", stringList(&c.Watch)},
		{"list_id", str(&c.ListID)},
		{"ignore_errors", intList(&c.IgnoreErrors)},
		{"rank_policy", func(v starlark.Value) error {
			var s string
			if err := str(&s)(v); err != nil {
				return err
			}
			p, err := candidate.ParseRankPolicy(s)
			c.RankPolicy = p
			return err
		}},
		{"search_count", positiveInt(&c.SearchCount)},
		{"post_max_length", positiveInt(&c.PostMaxLength)},
		{"attempt_delay", seconds(&c.AttemptDelay)},
		{"favorite_jitter", seconds(&c.FavoriteJitter)},
		{"schedule", scheduleDict(&c.Schedule)},
	}
	for _, f := range fields {
		v, ok := globals[f.name]
		if !ok {
			continue
		}
		if err := f.set(v); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", filename, f.name, err)
		}
	}
	return c, nil
}

func elements(v starlark.Value) ([]starlark.Value, error) {
	var seq starlark.Indexable
	switch v := v.(type) {
	case *starlark.List:
		seq = v
	case starlark.Tuple:
		seq = v
	default:
		return nil, fmt.Errorf("want list, got %s", v.Type())
	}
	out := make([]starlark.Value, seq.Len())
	for i := range out {
		out[i] = seq.Index(i)
	}
	return out, nil
}

func stringList(dst *[]string) func(starlark.Value) error {
	return func(v starlark.Value) error {
		elems, err := elements(v)
		if err != nil {
			return err
		}
		out := make([]string, 0, len(elems))
		for i, e := range elems {
			s, ok := starlark.AsString(e)
			if !ok {
				return fmt.Errorf("element %d: want string, got %s", i, e.Type())
			}
			out = append(out, s)
		}
		*dst = out
		return nil
	}
}

func intList(dst *[]int) func(starlark.Value) error {
	return func(v starlark.Value) error {
		elems, err := elements(v)
		if err != nil {
			return err
		}
		out := make([]int, 0, len(elems))
		for i, e := range elems {
			n, err := starlark.AsInt32(e)
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, n)
		}
		*dst = out
		return nil
	}
}

func str(dst *string) func(starlark.Value) error {
	return func(v starlark.Value) error {
		s, ok := starlark.AsString(v)
		if !ok {
			return fmt.Errorf("want string, got %s", v.Type())
		}
		*dst = s
		return nil
	}
}

func positiveInt(dst *int) func(starlark.Value) error {
	return func(v starlark.Value) error {
		n, err := starlark.AsInt32(v)
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("must be positive, got %d", n)
		}
		*dst = n
		return nil
	}
}

func seconds(dst *time.Duration) func(starlark.Value) error {
	return func(v starlark.Value) error {
		f, ok := starlark.AsFloat(v)
		if !ok {
			return fmt.Errorf("want number of seconds, got %s", v.Type())
		}
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("invalid number of seconds: %v", f)
		}
		*dst = time.Duration(f * float64(time.Second))
		return nil
	}
}

func scheduleDict(dst *map[string][]string) func(starlark.Value) error {
	return func(v starlark.Value) error {
		d, ok := v.(*starlark.Dict)
		if !ok {
			return fmt.Errorf("want dict, got %s", v.Type())
		}
		out := make(map[string][]string, d.Len())
		for _, item := range d.Items() {
			job, ok := starlark.AsString(item[0])
			if !ok {
				return fmt.Errorf("want string key, got %s", item[0].Type())
			}
			var specs []string
			if err := stringList(&specs)(item[1]); err != nil {
				return fmt.Errorf("job %q: %w", job, err)
			}
			out[job] = specs
		}
		*dst = out
		return nil
	}
}
