// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package syncutil

import (
	"sync/atomic"
	"testing"
	"time"

	"go.astrophena.name/scibot/internal/testutil"
)

func TestLimitedWaitGroup(t *testing.T) {
	t.Parallel()

	const limit = 3

	var running, peak, done atomic.Int32
	lwg := NewLimitedWaitGroup(limit)
	for range 10 {
		lwg.Go(func() {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			done.Add(1)
		})
	}
	lwg.Wait()

	testutil.AssertEqual(t, done.Load(), int32(10))
	if p := peak.Load(); p > limit {
		t.Fatalf("%d goroutines ran at once, limit is %d", p, limit)
	}
}

func TestZeroLimit(t *testing.T) {
	t.Parallel()

	var ran atomic.Bool
	lwg := NewLimitedWaitGroup(0)
	lwg.Go(func() { ran.Store(true) })
	lwg.Wait()
	testutil.AssertEqual(t, ran.Load(), true)
}
