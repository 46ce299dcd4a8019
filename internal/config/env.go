// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// Secrets are the credentials the bot needs.
type Secrets struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
	TelegramToken  string
	ChatID         string
}

// ErrMissingSecret is returned by Secrets.Validate when a platform credential
// is not set.
var ErrMissingSecret = errors.New("missing secret")

// Validate checks that all platform credentials are set. Telegram ones are
// optional.
func (s Secrets) Validate() error {
	for _, kv := range [][2]string{
		{"CONSUMER_KEY", s.ConsumerKey},
		{"CONSUMER_SECRET", s.ConsumerSecret},
		{"ACCESS_TOKEN", s.AccessToken},
		{"ACCESS_SECRET", s.AccessSecret},
	} {
		if kv[1] == "" {
			return fmt.Errorf("%w: %s", ErrMissingSecret, kv[0])
		}
	}
	return nil
}

// Getenv returns an environment lookup function that consults getenv first and
// then the dotenv file at path. Values from the file never override the real
// environment. A missing file is not an error.
func Getenv(getenv func(string) string, path string) (func(string) string, error) {
	if path == "" {
		return getenv, nil
	}
	file, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return getenv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return file[key]
	}, nil
}

// LoadSecrets reads Secrets using getenv.
func LoadSecrets(getenv func(string) string) Secrets {
	return Secrets{
		ConsumerKey:    getenv("CONSUMER_KEY"),
		ConsumerSecret: getenv("CONSUMER_SECRET"),
		AccessToken:    getenv("ACCESS_TOKEN"),
		AccessSecret:   getenv("ACCESS_SECRET"),
		TelegramToken:  getenv("TELEGRAM_TOKEN"),
		ChatID:         getenv("CHAT_ID"),
	}
}
