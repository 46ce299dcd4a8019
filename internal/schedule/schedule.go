// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package schedule runs bot jobs on a recurring schedule.
//
// Jobs never overlap: a job still running when it's due again is skipped, and
// all jobs share one lock so that at most one of them runs at a time. A job
// that fails or panics is logged and runs again on its next tick.
package schedule

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrNoJobs is returned by Run when no job has been added.
var ErrNoJobs = errors.New("no jobs scheduled")

// Default returns the default schedule: job name to cron specs.
func Default() map[string][]string {
	return map[string][]string{
		"flw": {"20 0 * * *"},
		"rss": {"20 22 * * *", "20 6 * * *", "20 14 * * *"},
		"rto": {"10 1 * * *", "10 9 * * *", "10 17 * * *"},
		"rtg": {"20 0-23/3 * * *"},
		"rtl": {"25 1-23/3 * * *"},
		"glv": {"@every 58m"},
	}
}

// Func is a job body.
type Func func(ctx context.Context) error

// Config configures a Scheduler.
type Config struct {
	Logger *slog.Logger
	// OnError is called with errors returned by jobs.
	OnError func(ctx context.Context, job string, err error)
	// Location is the time zone specs are interpreted in. Defaults to
	// time.Local.
	Location *time.Location
}

// Scheduler runs jobs.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	onError func(context.Context, string, error)

	mu   sync.Mutex // serializes jobs
	ctx  context.Context
	jobs []string
}

// New returns a Scheduler. Call Add to register jobs and Run to start them.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		logger:  cmp.Or(cfg.Logger, slog.Default()),
		onError: cfg.OnError,
		ctx:     context.Background(),
	}
	cl := cronLogger{s.logger}
	s.cron = cron.New(
		cron.WithLocation(cmp.Or(cfg.Location, time.Local)),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s
}

// Add registers job name to run on every spec.
func (s *Scheduler) Add(name string, specs []string, fn Func) error {
	if len(specs) == 0 {
		return fmt.Errorf("job %q: no schedule", name)
	}
	for _, spec := range specs {
		if _, err := s.cron.AddFunc(spec, func() { s.run(name, fn) }); err != nil {
			return fmt.Errorf("job %q: parsing %q: %w", name, spec, err)
		}
	}
	s.jobs = append(s.jobs, name)
	return nil
}

// AddAll registers every job in table that has a function in funcs. Jobs
// without a function are an error.
func (s *Scheduler) AddAll(table map[string][]string, funcs map[string]Func) error {
	for _, name := range slices.Sorted(maps.Keys(table)) {
		fn, ok := funcs[name]
		if !ok {
			return fmt.Errorf("unknown job %q", name)
		}
		if err := s.Add(name, table[name], fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) run(name string, fn Func) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.ctx
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	s.logger.Info("running job", "job", name)
	err := fn(ctx)
	if err != nil {
		s.logger.Error("job failed", "job", name, "error", err, "took", time.Since(start))
		if s.onError != nil {
			s.onError(ctx, name, err)
		}
		return
	}
	s.logger.Info("job done", "job", name, "took", time.Since(start))
}

// Run starts the scheduler and blocks until ctx is canceled. It waits for a
// running job to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.jobs) == 0 {
		return ErrNoJobs
	}

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Debug("scheduled", "next", e.Next)
	}
	s.logger.Info("scheduler started", "jobs", s.jobs)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
