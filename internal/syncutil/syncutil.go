// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package syncutil contains synchronization helpers.
package syncutil

import "sync"

// LimitedWaitGroup is a [sync.WaitGroup] that limits the number of goroutines
// running at once, using a buffered channel as a semaphore.
type LimitedWaitGroup struct {
	wg      sync.WaitGroup
	workers chan struct{}
}

// NewLimitedWaitGroup returns a LimitedWaitGroup that runs at most limit
// goroutines at once.
func NewLimitedWaitGroup(limit int) *LimitedWaitGroup {
	return &LimitedWaitGroup{workers: make(chan struct{}, max(limit, 1))}
}

// Go waits for a free slot and runs f in a new goroutine.
func (lwg *LimitedWaitGroup) Go(f func()) {
	lwg.workers <- struct{}{}
	lwg.wg.Add(1)
	go func() {
		defer func() {
			<-lwg.workers
			lwg.wg.Done()
		}()
		f()
	}()
}

// Wait blocks until every goroutine started by Go returns.
func (lwg *LimitedWaitGroup) Wait() { lwg.wg.Wait() }
