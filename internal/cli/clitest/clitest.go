// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package clitest runs [cli.App] implementations in tests with captured
// output and a fake environment.
package clitest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.astrophena.name/scibot/internal/cli"
)

// Case is a single run of an application.
type Case[App cli.App] struct {
	// Args are the command-line arguments.
	Args []string
	// Stdin is the standard input. Empty when nil.
	Stdin io.Reader
	// Env is the whole environment the application sees.
	Env map[string]string
	// WantErr is matched against the returned error with errors.Is. A nil
	// WantErr means the run must succeed.
	WantErr error
	// WantInStdout and WantInStderr are substrings the output must contain.
	WantInStdout string
	WantInStderr string
	// WantNotInStderr is a substring the standard error must not contain.
	WantNotInStderr string
	// CheckFunc, if set, inspects the application after the run.
	CheckFunc func(*testing.T, App)
}

// Run runs every case in parallel against a fresh application made by setup.
func Run[App cli.App](t *testing.T, setup func(*testing.T) App, cases map[string]Case[App]) {
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app := setup(t)
			res := Exec(context.Background(), app, Invocation{Args: tc.Args, Stdin: tc.Stdin, Env: tc.Env})

			switch {
			case tc.WantErr == nil && res.Err != nil:
				t.Fatalf("unexpected error: %v\nstderr:\n%s", res.Err, res.Stderr)
			case tc.WantErr != nil && res.Err == nil:
				t.Fatalf("must fail with error: %v", tc.WantErr)
			case tc.WantErr != nil && !errors.Is(res.Err, tc.WantErr):
				t.Fatalf("want error %v, got: %v", tc.WantErr, res.Err)
			}

			if tc.WantInStdout != "" && !strings.Contains(res.Stdout, tc.WantInStdout) {
				t.Errorf("stdout must contain %q, got: %q", tc.WantInStdout, res.Stdout)
			}
			if tc.WantInStderr != "" && !strings.Contains(res.Stderr, tc.WantInStderr) {
				t.Errorf("stderr must contain %q, got: %q", tc.WantInStderr, res.Stderr)
			}
			if tc.WantNotInStderr != "" && strings.Contains(res.Stderr, tc.WantNotInStderr) {
				t.Errorf("stderr must not contain %q, got: %q", tc.WantNotInStderr, res.Stderr)
			}

			if tc.CheckFunc != nil {
				tc.CheckFunc(t, app)
			}
		})
	}
}

// Invocation describes how to run an application.
type Invocation struct {
	Args  []string
	Stdin io.Reader
	Env   map[string]string
}

// Result is what a run produced.
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

// Exec runs app once with inv under ctx. Canceling ctx is how long-running
// applications are stopped.
func Exec(ctx context.Context, app cli.App, inv Invocation) Result {
	stdin := inv.Stdin
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	var stdout, stderr syncBuffer
	env := &cli.Env{
		Args:   inv.Args,
		Getenv: func(key string) string { return inv.Env[key] },
		Stdin:  stdin,
		Stdout: &stdout,
		Stderr: &stderr,
	}
	err := cli.Run(cli.WithEnv(ctx, env), app)
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}
