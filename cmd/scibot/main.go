// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.astrophena.name/scibot/internal/candidate"
	"go.astrophena.name/scibot/internal/cli"
	"go.astrophena.name/scibot/internal/compose"
	"go.astrophena.name/scibot/internal/config"
	"go.astrophena.name/scibot/internal/engage"
	"go.astrophena.name/scibot/internal/feed"
	"go.astrophena.name/scibot/internal/filelock"
	"go.astrophena.name/scibot/internal/httplogger"
	"go.astrophena.name/scibot/internal/interactions"
	"go.astrophena.name/scibot/internal/logger"
	"go.astrophena.name/scibot/internal/logstore"
	"go.astrophena.name/scibot/internal/notify"
	"go.astrophena.name/scibot/internal/notify/telegram"
	"go.astrophena.name/scibot/internal/platform"
	"go.astrophena.name/scibot/internal/platform/twitter"
	"go.astrophena.name/scibot/internal/request"
)

// Files in the state directory.
const (
	postedFile    = "posted-urls.log"
	repostedFile  = "posted-retweets.log"
	favoritedFile = "faved-tweets.log"
	usersFile     = "users.json"
	lockFile      = "scibot.lock"
	configFile    = "config.star"
)

var errAlreadyRunning = errors.New("already running")

func main() { cli.Main(new(bot)) }

type bot struct {
	// configuration
	configPath string
	debug      bool
	dry        bool
	stateDir   string

	// set in tests
	httpc    *http.Client
	platform platform.Platform
	notifier notify.Notifier
	sleep    func(context.Context, time.Duration) bool

	// initialized by setup
	cfg      *config.Config
	slog     *slog.Logger
	posted   *logstore.Store
	logs     map[engage.Kind]*logstore.Store
	tracker  *interactions.Tracker
	feeds    *feed.Fetcher
	composer *compose.Composer
	filter   *candidate.Filter
	selector *engage.Selector
}

func (b *bot) Flags(fs *flag.FlagSet) {
	fs.StringVar(&b.configPath, "config", b.configPath, "Path to the `config.star` file.")
	fs.BoolVar(&b.debug, "debug", false, "Enable debug logging.")
	fs.BoolVar(&b.dry, "dry", false, "Enable dry-run mode: log actions, but don't post anything or save state.")
	fs.StringVar(&b.stateDir, "state-dir", b.stateDir, "Path to the state `directory`.")
}

func (b *bot) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	if len(env.Args) == 0 || env.Args[0] == "help" {
		cli.PrintDoc(env.Stdout)
		return nil
	}
	command := env.Args[0]
	if len(env.Args) > 1 {
		return fmt.Errorf("%w: %s takes no arguments", cli.ErrInvalidArgs, command)
	}

	jobs := b.jobs()
	if _, ok := jobs[command]; !ok && command != "sch" && command != "status" {
		cli.PrintDoc(env.Stderr)
		return fmt.Errorf("%w: no such command %q", cli.ErrInvalidArgs, command)
	}

	if err := b.setup(ctx, command != "status"); err != nil {
		return err
	}

	if command == "status" {
		return b.status(ctx)
	}

	lock, err := b.lock(command)
	if err != nil {
		return err
	}
	defer lock.Release()

	b.slog.Info("scibot started", "command", command)
	defer b.slog.Info("scibot finished", "command", command)

	if command == "sch" {
		return b.runScheduler(ctx, jobs)
	}
	if err := jobs[command](ctx); err != nil {
		b.errNotify(ctx, command, err)
	}
	return nil
}

func (b *bot) setup(ctx context.Context, withPlatform bool) error {
	env := cli.GetEnv(ctx)

	l := logger.Get(ctx)
	b.slog = l.Logger
	if b.debug || b.dry {
		l.Level.Set(slog.LevelDebug)
	}

	getenv := env.Getenv
	if home := env.Getenv("HOME"); home != "" {
		var err error
		getenv, err = config.Getenv(env.Getenv, filepath.Join(home, ".env"))
		if err != nil {
			return err
		}
	}

	b.stateDir = cmp.Or(b.stateDir, getenv("STATE_DIRECTORY"))
	if b.stateDir == "" {
		xdgStateHome := getenv("XDG_STATE_HOME")
		if xdgStateHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			xdgStateHome = filepath.Join(home, ".local", "state")
		}
		b.stateDir = filepath.Join(xdgStateHome, "scibot")
	}
	if err := os.MkdirAll(b.stateDir, 0o700); err != nil {
		return err
	}

	b.configPath = cmp.Or(b.configPath, getenv("SCIBOT_CONFIG"), filepath.Join(b.stateDir, configFile))
	cfg, err := config.Load(b.configPath, b.slog)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	b.cfg = cfg

	secrets := config.LoadSecrets(getenv)
	if b.httpc == nil {
		b.httpc = request.DefaultClient
	}
	if b.debug {
		c := *b.httpc
		c.Transport = httplogger.New(c.Transport, b.slog)
		b.httpc = &c
	}
	if b.notifier == nil {
		switch {
		case b.dry, secrets.TelegramToken == "", secrets.ChatID == "":
			b.notifier = notify.Log{}
		default:
			b.notifier = telegram.New(telegram.Config{
				ChatID:     secrets.ChatID,
				Token:      secrets.TelegramToken,
				HTTPClient: b.httpc,
				Logger:     b.slog,
			})
		}
	}
	if !withPlatform {
		return nil
	}

	if b.platform == nil {
		if err := secrets.Validate(); err != nil {
			return err
		}
		b.platform = twitter.New(ctx, twitter.Config{
			ConsumerKey:    secrets.ConsumerKey,
			ConsumerSecret: secrets.ConsumerSecret,
			AccessToken:    secrets.AccessToken,
			AccessSecret:   secrets.AccessSecret,
			HTTPClient:     b.httpc,
		})
	}
	if b.dry {
		b.platform = platform.DryRun(b.platform, b.slog)
	}

	newLog := func(name string) *logstore.Store {
		return logstore.New(logstore.Config{
			Path:     filepath.Join(b.stateDir, name),
			ReadOnly: b.dry,
			Logger:   b.slog,
		})
	}
	b.posted = newLog(postedFile)
	b.logs = map[engage.Kind]*logstore.Store{
		engage.Repost:   newLog(repostedFile),
		engage.Favorite: newLog(favoritedFile),
	}
	b.tracker = interactions.New(filepath.Join(b.stateDir, usersFile), b.dry, b.slog)

	b.feeds = feed.NewFetcher(b.httpc, b.slog)
	b.composer = compose.New(cfg.Hashtags, cfg.PostMaxLength)
	b.filter = candidate.NewFilter(cfg.Vocabulary(), cfg.RankPolicy, b.platform, b.slog)
	b.selector = engage.NewSelector(engage.Config{
		Platform:       b.platform,
		Chooser:        engage.NewHeuristic(b.platform, b.tracker, b.notifier, b.slog),
		Throttle:       b.tracker,
		Logs:           b.logs,
		Notifier:       b.notifier,
		IgnoreCodes:    cfg.IgnoreErrors,
		AttemptDelay:   disabledIfZero(cfg.AttemptDelay),
		FavoriteJitter: disabledIfZero(cfg.FavoriteJitter),
		Logger:         b.slog,
		Sleep:          b.sleep,
	})
	return nil
}

// disabledIfZero maps an explicit zero from the config to a negative duration,
// which the selector treats as no pause at all.
func disabledIfZero(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

func (b *bot) lockPath() string { return filepath.Join(b.stateDir, lockFile) }

func (b *bot) lock(command string) (*filelock.Lock, error) {
	lock, err := filelock.Acquire(b.lockPath(), strconv.Itoa(os.Getpid())+" "+command)
	if errors.Is(err, filelock.ErrAlreadyLocked) {
		holder, _, _ := filelock.Holder(b.lockPath())
		return nil, fmt.Errorf("%w: %s", errAlreadyRunning, holder)
	}
	return lock, err
}

func (b *bot) status(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	holder, locked, err := filelock.Holder(b.lockPath())
	if err != nil {
		return err
	}
	msg := "scibot is not running"
	if locked {
		msg = "scibot is running: " + holder
	}
	fmt.Fprintln(env.Stdout, msg)
	b.notifier.Notify(ctx, msg)
	return nil
}

func (b *bot) errNotify(ctx context.Context, command string, err error) {
	b.slog.Error("command failed", "command", command, "error", err)
	b.notifier.Notify(ctx, fmt.Sprintf("[ERROR] %s: %v", command, err))
}
