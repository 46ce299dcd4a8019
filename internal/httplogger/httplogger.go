// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package httplogger provides an http.RoundTripper middleware that logs
// requests and responses at debug level.
//
// Nested requests are drawn as a tree in the "trace" attribute, so concurrent
// feed fetches can be told apart.
package httplogger

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// New returns an http.RoundTripper that logs every request made through t
// to logger. A nil t means [http.DefaultTransport].
func New(t http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if t == nil {
		t = http.DefaultTransport
	}
	return &loggingTransport{transport: t, slog: logger}
}

type loggingTransport struct {
	transport http.RoundTripper
	slog      *slog.Logger

	mu     sync.Mutex
	active []byte
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	t.mu.Lock()
	index := len(t.active)
	start := time.Now()
	t.slog.Debug("http request", "trace", string(t.active)+"+", "method", r.Method, "url", redact(r))
	t.active = append(t.active, '|')
	t.mu.Unlock()

	resp, err := t.transport.RoundTrip(r)

	attrs := []any{"duration", time.Since(start).Round(time.Millisecond)}
	if resp != nil {
		attrs = append(attrs, "status", resp.Status)
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}

	t.mu.Lock()
	t.active[index] = '-'
	t.slog.Debug("http response", append([]any{"trace", string(t.active), "path", lastElem(r.URL.Path)}, attrs...)...)
	t.active[index] = ' '
	n := len(t.active)
	for n%4 == 0 && n >= 4 && string(t.active[n-4:n]) == "    " {
		t.active = t.active[:n-4]
		n -= 4
	}
	t.mu.Unlock()

	return resp, err
}

// redact drops the query string, which may carry tokens or post text.
func redact(r *http.Request) string {
	u := *r.URL
	if u.RawQuery != "" {
		u.RawQuery = "..."
	}
	return u.String()
}

func lastElem(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i:]
	}
	return path
}
