// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package telegram delivers notifications over the Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.astrophena.name/scibot/internal/notify"
	"go.astrophena.name/scibot/internal/request"
)

const (
	tgAPI          = "https://api.telegram.org"
	sendRetryLimit = 5 // N attempts to retry message sending
	maxMessageLen  = 4096
)

// Config configures a Telegram sender.
type Config struct {
	ChatID     string
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
	// APIURL overrides the Bot API root, mostly for tests.
	APIURL string
}

// Sender sends messages via Telegram Bot API.
type Sender struct {
	chatID      string
	token       string
	apiURL      string
	httpc       *http.Client
	scrubber    *strings.Replacer
	slog        *slog.Logger
	makeRequest func(context.Context, string, any) error
	sleep       func(context.Context, time.Duration) bool
}

// New returns a Telegram sender configured for a specific chat.
func New(cfg Config) *Sender {
	s := &Sender{
		chatID: cfg.ChatID,
		token:  cfg.Token,
		apiURL: cfg.APIURL,
		httpc:  cfg.HTTPClient,
		slog:   cfg.Logger,
	}
	if s.token != "" {
		s.scrubber = strings.NewReplacer(s.token, "[EXPUNGED]")
	}
	if s.apiURL == "" {
		s.apiURL = tgAPI
	}
	if s.httpc == nil {
		s.httpc = request.DefaultClient
	}
	if s.slog == nil {
		s.slog = slog.Default()
	}
	s.makeRequest = s.makeTelegramRequest
	s.sleep = sleep
	return s
}

type message struct {
	ChatID             string `json:"chat_id"`
	Text               string `json:"text"`
	LinkPreviewOptions struct {
		IsDisabled bool `json:"is_disabled"`
	} `json:"link_preview_options"`
}

// Notify implements [notify.Notifier]. Failures are logged.
func (s *Sender) Notify(ctx context.Context, text string) {
	if err := s.Send(ctx, text); err != nil {
		s.slog.Error("sending notification failed", slog.Any("error", err))
	}
}

// Send sends a message to Telegram, retrying requests when rate limited.
func (s *Sender) Send(ctx context.Context, text string) error {
	msg := &message{ChatID: s.chatID}
	msg.LinkPreviewOptions.IsDisabled = true

	for _, chunk := range splitMessage(text) {
		msg.Text = chunk

		var err error
		for range sendRetryLimit {
			err = s.makeRequest(ctx, "sendMessage", msg)
			if err == nil {
				break
			}

			retryable, wait := isRateLimited(err)
			if !retryable {
				break
			}

			s.slog.Warn("sending rate limited, waiting", slog.String("chat_id", s.chatID), slog.Duration("wait", wait))
			if !s.sleep(ctx, wait) {
				return ctx.Err()
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) makeTelegramRequest(ctx context.Context, method string, args any) error {
	_, err := request.Make[request.IgnoreResponse](ctx, request.Params{
		Method:     http.MethodPost,
		URL:        s.apiURL + "/bot" + s.token + "/" + method,
		Body:       args,
		HTTPClient: s.httpc,
		Scrubber:   s.scrubber,
	})
	return err
}

func splitMessage(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	for text != "" {
		if utf8.RuneCountInString(text) <= maxMessageLen {
			chunks = append(chunks, text)
			break
		}

		var (
			lastNewline    = -1
			lastWhitespace = -1
			byteCap        = len(text)
			runeCount      int
		)
		for i, r := range text {
			if runeCount == maxMessageLen {
				byteCap = i
				break
			}
			runeCount++

			if r == '\n' {
				lastNewline = i
				continue
			}
			if unicode.IsSpace(r) {
				lastWhitespace = i
			}
		}

		splitAt := byteCap
		switch {
		case lastNewline > 0:
			splitAt = lastNewline
		case lastWhitespace > 0:
			splitAt = lastWhitespace
		}

		if chunk := strings.TrimSpace(text[:splitAt]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		text = strings.TrimSpace(text[splitAt:])
	}
	return chunks
}

func isRateLimited(err error) (bool, time.Duration) {
	var statusErr *request.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		return false, 0
	}

	var errorResponse struct {
		Parameters struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(statusErr.Body, &errorResponse); err != nil {
		return false, 0
	}
	return true, time.Duration(errorResponse.Parameters.RetryAfter) * time.Second
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

var _ notify.Notifier = (*Sender)(nil)
