// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package request_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.astrophena.name/scibot/internal/request"
	"go.astrophena.name/scibot/internal/testutil"
)

func TestMake(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if r.URL.Query().Get("id") != "A100" {
				http.Error(w, "missing id", http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"id_str": "A100"}`))
		case "/fail":
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"errors":[{"code":327,"message":"already"}]}`))
		case "/secret":
			http.Error(w, "token s3cret rejected", http.StatusUnauthorized)
		}
	}))
	t.Cleanup(ts.Close)

	type response struct {
		ID string `json:"id_str"`
	}

	t.Run("decodes response", func(t *testing.T) {
		got, err := request.Make[response](context.Background(), request.Params{
			Method: http.MethodGet,
			URL:    ts.URL + "/ok",
			Query:  url.Values{"id": {"A100"}},
		})
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, got.ID, "A100")
	})

	t.Run("status error carries body", func(t *testing.T) {
		_, err := request.Make[request.IgnoreResponse](context.Background(), request.Params{
			Method: http.MethodPost,
			URL:    ts.URL + "/fail",
		})
		var statusErr *request.StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("want *request.StatusError, got %T (%v)", err, err)
		}
		testutil.AssertEqual(t, statusErr.StatusCode, http.StatusForbidden)
		testutil.AssertEqual(t, string(statusErr.Body), `{"errors":[{"code":327,"message":"already"}]}`)
	})

	t.Run("scrubs errors", func(t *testing.T) {
		_, err := request.Make[request.IgnoreResponse](context.Background(), request.Params{
			Method:   http.MethodGet,
			URL:      ts.URL + "/secret",
			Scrubber: strings.NewReplacer("s3cret", "[EXPUNGED]"),
		})
		if err == nil {
			t.Fatal("want error")
		}
		if strings.Contains(err.Error(), "s3cret") {
			t.Fatalf("secret leaked into error: %v", err)
		}
	})
}
