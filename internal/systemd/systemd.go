// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package systemd lets the scheduler run as a Type=notify systemd service:
// it signals readiness and keeps the watchdog timestamp fresh.
package systemd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"
)

// State is a sd_notify protocol state.
// See https://www.freedesktop.org/software/systemd/man/sd_notify.html.
type State string

const (
	// Ready tells the service manager that the scheduler has registered
	// its jobs.
	Ready State = "READY=1"
	// Stopping tells the service manager that the scheduler is waiting for
	// running jobs before exiting.
	Stopping State = "STOPPING=1"
	// Watchdog updates the watchdog timestamp.
	Watchdog State = "WATCHDOG=1"
)

// Notifier sends sd_notify messages to the socket named by NOTIFY_SOCKET.
type Notifier struct {
	socket   string
	watchdog string
	logger   *slog.Logger
}

// New returns a Notifier configured from getenv. Outside of systemd it does
// nothing.
func New(getenv func(string) string, logger *slog.Logger) *Notifier {
	return &Notifier{
		socket:   getenv("NOTIFY_SOCKET"),
		watchdog: getenv("WATCHDOG_USEC"),
		logger:   logger,
	}
}

// Notify sends state. Errors are logged.
func (n *Notifier) Notify(state State) {
	if n.socket == "" {
		return
	}
	addr := &net.UnixAddr{Net: "unixgram", Name: n.socket}
	conn, err := net.DialUnix(addr.Net, nil, addr)
	if err != nil {
		n.logger.Warn("systemd notification failed", "state", state, "error", err)
		return
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(state)); err != nil {
		n.logger.Warn("systemd notification failed", "state", state, "error", err)
	}
}

// WatchdogLoop sends [Watchdog] at half the interval systemd asked for until
// ctx is done. It returns at once when the watchdog is not enabled.
func (n *Notifier) WatchdogLoop(ctx context.Context) {
	if n.socket == "" || n.watchdog == "" {
		return
	}
	interval, err := watchdogInterval(n.watchdog)
	if err != nil {
		n.logger.Warn("systemd watchdog disabled", "error", err)
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.Notify(Watchdog)
		case <-ctx.Done():
			return
		}
	}
}

func watchdogInterval(usec string) (time.Duration, error) {
	s, err := strconv.Atoi(usec)
	if err != nil {
		return 0, fmt.Errorf("parsing WATCHDOG_USEC: %w", err)
	}
	if s <= 0 {
		return 0, errors.New("WATCHDOG_USEC must be a positive number")
	}
	return time.Duration(s) * time.Microsecond, nil
}
