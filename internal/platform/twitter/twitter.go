// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package twitter implements [platform.Platform] on top of the Twitter v1.1
// REST API, authenticating requests with OAuth 1.0a user context.
package twitter

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.astrophena.name/scibot/internal/platform"
	"go.astrophena.name/scibot/internal/request"

	"github.com/dghubble/oauth1"
)

const defaultBaseURL = "https://api.twitter.com/1.1"

// Config configures a Client.
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
	// HTTPClient is the client whose transport carries signed requests.
	// Defaults to request.DefaultClient.
	HTTPClient *http.Client
	// BaseURL overrides the API root, mostly for tests.
	BaseURL string
}

// Client talks to the Twitter API.
type Client struct {
	httpc    *http.Client
	baseURL  string
	scrubber *strings.Replacer
}

// New returns a Client signing requests with the credentials in cfg.
func New(ctx context.Context, cfg Config) *Client {
	base := cmp.Or(cfg.HTTPClient, request.DefaultClient)
	ctx = context.WithValue(ctx, oauth1.HTTPClient, base)

	httpc := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret).
		Client(ctx, oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret))
	httpc.Timeout = base.Timeout

	var secrets []string
	for _, s := range []string{cfg.ConsumerSecret, cfg.AccessToken, cfg.AccessSecret} {
		if s != "" {
			secrets = append(secrets, s, "[EXPUNGED]")
		}
	}

	return &Client{
		httpc:    httpc,
		baseURL:  strings.TrimSuffix(cmp.Or(cfg.BaseURL, defaultBaseURL), "/"),
		scrubber: strings.NewReplacer(secrets...),
	}
}

type user struct {
	IDStr          string `json:"id_str"`
	ScreenName     string `json:"screen_name"`
	FollowersCount int    `json:"followers_count"`
	FriendsCount   int    `json:"friends_count"`
}

type tweet struct {
	IDStr             string `json:"id_str"`
	FullText          string `json:"full_text"`
	Text              string `json:"text"`
	RetweetCount      int    `json:"retweet_count"`
	FavoriteCount     int    `json:"favorite_count"`
	IsQuoteStatus     bool   `json:"is_quote_status"`
	QuotedStatusIDStr string `json:"quoted_status_id_str"`
	RetweetedStatus   *tweet `json:"retweeted_status"`
	Retweeted         bool   `json:"retweeted"`
	User              user   `json:"user"`
}

func (t *tweet) toPost() *platform.Post {
	p := &platform.Post{
		ID:        t.IDStr,
		Text:      cmp.Or(t.FullText, t.Text),
		Reposts:   t.RetweetCount,
		Favorites: t.FavoriteCount,
		Reposted:  t.Retweeted,
		Author: platform.User{
			ID:         t.User.IDStr,
			ScreenName: t.User.ScreenName,
			Followers:  t.User.FollowersCount,
			Friends:    t.User.FriendsCount,
		},
	}
	if t.IsQuoteStatus {
		p.QuotedID = t.QuotedStatusIDStr
	}
	if t.RetweetedStatus != nil {
		p.Reshared = t.RetweetedStatus.toPost()
	}
	return p
}

func toPosts(tweets []*tweet) []*platform.Post {
	posts := make([]*platform.Post, 0, len(tweets))
	for _, t := range tweets {
		posts = append(posts, t.toPost())
	}
	return posts
}

// Search implements [platform.Platform].
func (c *Client) Search(ctx context.Context, query string, count int) ([]*platform.Post, error) {
	res, err := get[struct {
		Statuses []*tweet `json:"statuses"`
	}](ctx, c, "/search/tweets.json", url.Values{
		"q":          {query},
		"count":      {strconv.Itoa(count)},
		"tweet_mode": {"extended"},
	})
	if err != nil {
		return nil, err
	}
	return toPosts(res.Statuses), nil
}

// ListTimeline implements [platform.Platform].
func (c *Client) ListTimeline(ctx context.Context, listID string, count int) ([]*platform.Post, error) {
	res, err := get[[]*tweet](ctx, c, "/lists/statuses.json", url.Values{
		"list_id":    {listID},
		"count":      {strconv.Itoa(count)},
		"tweet_mode": {"extended"},
	})
	if err != nil {
		return nil, err
	}
	return toPosts(res), nil
}

// OwnTimeline implements [platform.Platform].
func (c *Client) OwnTimeline(ctx context.Context, count int) ([]*platform.Post, error) {
	res, err := get[[]*tweet](ctx, c, "/statuses/user_timeline.json", url.Values{
		"count":      {strconv.Itoa(count)},
		"tweet_mode": {"extended"},
	})
	if err != nil {
		return nil, err
	}
	return toPosts(res), nil
}

// Post implements [platform.Platform].
func (c *Client) Post(ctx context.Context, id string) (*platform.Post, error) {
	res, err := get[*tweet](ctx, c, "/statuses/show.json", url.Values{
		"id":         {id},
		"tweet_mode": {"extended"},
	})
	if err != nil {
		return nil, err
	}
	return res.toPost(), nil
}

// Resharers implements [platform.Platform].
func (c *Client) Resharers(ctx context.Context, id string) ([]*platform.Post, error) {
	res, err := get[[]*tweet](ctx, c, "/statuses/retweets/"+url.PathEscape(id)+".json", url.Values{
		"count": {"100"},
	})
	if err != nil {
		return nil, err
	}
	return toPosts(res), nil
}

// FollowerIDs implements [platform.Platform].
func (c *Client) FollowerIDs(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		cursor = "-1"
	)
	for cursor != "0" {
		res, err := get[struct {
			IDs        []string `json:"ids"`
			NextCursor string   `json:"next_cursor_str"`
		}](ctx, c, "/followers/ids.json", url.Values{
			"stringify_ids": {"true"},
			"count":         {"5000"},
			"cursor":        {cursor},
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, res.IDs...)
		cursor = cmp.Or(res.NextCursor, "0")
	}
	return ids, nil
}

// Update implements [platform.Platform].
func (c *Client) Update(ctx context.Context, text string) error {
	return c.post(ctx, "/statuses/update.json", url.Values{"status": {text}})
}

// Repost implements [platform.Platform].
func (c *Client) Repost(ctx context.Context, id string) error {
	return c.post(ctx, "/statuses/retweet/"+url.PathEscape(id)+".json", nil)
}

// Unrepost implements [platform.Platform].
func (c *Client) Unrepost(ctx context.Context, id string) error {
	return c.post(ctx, "/statuses/unretweet/"+url.PathEscape(id)+".json", nil)
}

// Favorite implements [platform.Platform].
func (c *Client) Favorite(ctx context.Context, id string) error {
	return c.post(ctx, "/favorites/create.json", url.Values{"id": {id}})
}

func get[Response any](ctx context.Context, c *Client, path string, query url.Values) (Response, error) {
	res, err := request.Make[Response](ctx, request.Params{
		Method:     http.MethodGet,
		URL:        c.baseURL + path,
		Query:      query,
		HTTPClient: c.httpc,
		Scrubber:   c.scrubber,
	})
	return res, apiError(err)
}

func (c *Client) post(ctx context.Context, path string, query url.Values) error {
	_, err := request.Make[request.IgnoreResponse](ctx, request.Params{
		Method:     http.MethodPost,
		URL:        c.baseURL + path,
		Query:      query,
		HTTPClient: c.httpc,
		Scrubber:   c.scrubber,
	})
	return apiError(err)
}

// apiError converts the first error of an API error response into a
// [platform.Error]. Other errors are returned as is.
func apiError(err error) error {
	var statusErr *request.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	var res struct {
		Errors []struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(statusErr.Body, &res) != nil || len(res.Errors) == 0 {
		return err
	}
	return &platform.Error{Code: res.Errors[0].Code, Message: res.Errors[0].Message}
}

var _ platform.Platform = (*Client)(nil)
