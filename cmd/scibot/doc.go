// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Scibot posts new papers from RSS and Atom feeds to Twitter and amplifies
on-topic tweets by retweeting and favoriting them.

# Usage

	$ scibot [flags...] <command>

Commands:

	rss     Post the newest feed item that wasn't posted yet.
	rtg     Search tweets globally and retweet the best one.
	rtl     Retweet the best tweet from the curated list.
	glv     Search tweets globally and favorite the best one.
	rto     Retweet the latest own tweet.
	flw     Check for new followers.
	sch     Run the jobs above on a schedule until interrupted.
	status  Report whether a scibot instance is running.
	help    Show this help.

Instead of always acting on the best tweet itself, scibot picks the reshare
made by the smallest account that reshared it, and stays away from accounts
it has engaged with too often.

# Configuration

Credentials are read from the environment, falling back to ~/.env:

	CONSUMER_KEY, CONSUMER_SECRET  Twitter API key and secret.
	ACCESS_TOKEN, ACCESS_SECRET    Twitter access token and secret.
	TELEGRAM_TOKEN, CHAT_ID        Telegram bot token and chat for notifications.
	                               Without them, notifications are only logged.

State (the logs of posted, retweeted and favorited items, the interaction
history in users.json and the lock file) is kept in $STATE_DIRECTORY,
defaulting to $XDG_STATE_HOME/scibot.

Feeds, vocabularies, the curated list and the schedule are read from a
Starlark file, $SCIBOT_CONFIG or config.star in the state directory. All
settings are optional:

	feeds = ["https://export.arxiv.org/api/query?search_query=all:psilocybin*"]
	hashtags = ["psilocybin", "lsd"]    # turned into hashtags, matched in tweets
	include = ["harmreduction"]         # searched for, matched in tweets
	exclude = ["vape"]                  # tweets containing these are skipped
	watch = ["ketamine"]                # logged, never acted on
	list_id = "1306244304000749569"
	ignore_errors = [327, 139]
	rank_policy = "engagement"          # or "total"
	search_count = 10
	post_max_length = 250
	attempt_delay = 2                   # seconds between attempts
	favorite_jitter = 30                # max random delay before favoriting
	schedule = {"rtg": ["20 0-23/3 * * *"], "glv": ["@every 58m"]}

In dry-run mode scibot logs what it would do without posting anything or
changing its state. With -debug every HTTP request is logged too.

The sch command can run as a systemd service of Type=notify: it reports
readiness once the jobs are scheduled and pings the watchdog when
WatchdogSec is set.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/scibot/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
