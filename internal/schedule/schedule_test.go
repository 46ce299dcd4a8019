// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"go.astrophena.name/scibot/internal/testutil"

	"github.com/robfig/cron/v3"
	"go.uber.org/goleak"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestDefaultParses(t *testing.T) {
	t.Parallel()

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for job, specs := range Default() {
		for _, spec := range specs {
			if _, err := parser.Parse(spec); err != nil {
				t.Errorf("%s: %q: %v", job, spec, err)
			}
		}
	}
}

func TestDefaultTimes(t *testing.T) {
	t.Parallel()

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(Default()["rtg"][0])
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	next := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for range 8 {
		next = sched.Next(next)
		got = append(got, next.Format("15:04"))
	}
	testutil.AssertEqual(t, got, []string{"00:20", "03:20", "06:20", "09:20", "12:20", "15:20", "18:20", "21:20"})

	sched, err = parser.Parse(Default()["rtl"][0])
	if err != nil {
		t.Fatal(err)
	}
	next = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testutil.AssertEqual(t, sched.Next(next).Format("15:04"), "01:25")
}

func TestAddErrors(t *testing.T) {
	t.Parallel()

	s := New(Config{Logger: discard})
	noop := func(context.Context) error { return nil }

	if err := s.Add("rss", nil, noop); err == nil {
		t.Fatal("want error for empty schedule")
	}
	if err := s.Add("rss", []string{"not a spec"}, noop); err == nil {
		t.Fatal("want error for bad spec")
	}
	if err := s.AddAll(map[string][]string{"nope": {"@hourly"}}, map[string]Func{}); err == nil {
		t.Fatal("want error for unknown job")
	}
	if err := s.Run(context.Background()); !errors.Is(err, ErrNoJobs) {
		t.Fatalf("want ErrNoJobs, got %v", err)
	}
}

func TestRunReportsErrors(t *testing.T) {
	t.Parallel()

	var gotJob string
	var gotErr error
	s := New(Config{
		Logger: discard,
		OnError: func(_ context.Context, job string, err error) {
			gotJob, gotErr = job, err
		},
	})
	wantErr := errors.New("boom")
	s.run("rtg", func(context.Context) error { return wantErr })
	testutil.AssertEqual(t, gotJob, "rtg")
	if !errors.Is(gotErr, wantErr) {
		t.Fatalf("want %v, got %v", wantErr, gotErr)
	}
}

func TestRunSurvivesPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New(Config{Logger: discard})

	var calls atomic.Int32
	done := make(chan struct{})
	err := s.Add("glv", []string{"@every 1s"}, func(context.Context) error {
		if calls.Add(1) == 1 {
			panic("first run explodes")
		}
		select {
		case <-done:
		default:
			close(done)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("job didn't run again after panicking")
	}
	cancel()
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}
