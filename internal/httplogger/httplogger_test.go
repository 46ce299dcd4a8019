// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package httplogger

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.astrophena.name/scibot/internal/testutil"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := &http.Client{Transport: New(nil, logger)}

	res, err := c.Get(srv.URL + "/feed.xml?token=secret")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	logs := buf.String()
	testutil.AssertEqual(t, bytes.Count(buf.Bytes(), []byte("\n")), 2)
	for _, want := range []string{
		"http request",
		"/feed.xml?...",
		"http response",
		"path=/feed.xml",
		`status="418 I'm a teapot"`,
	} {
		if !bytes.Contains([]byte(logs), []byte(want)) {
			t.Errorf("logs must contain %q, got:\n%s", want, logs)
		}
	}
	if bytes.Contains([]byte(logs), []byte("secret")) {
		t.Errorf("logs must not contain the query string:\n%s", logs)
	}
}
