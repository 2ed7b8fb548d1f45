// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package future provides a one-shot Promise/Future pair: a producer
// sets a value exactly once, and any number of consumers can block on
// or poll for it.
package future

import (
	"context"
	"sync"
)

// Future is the read side of a Promise. It is safe for concurrent use by
// multiple goroutines.
type Future[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	done  bool
	value T
}

// Promise is the write side of a Future. Set has no once-only guard:
// additional calls overwrite the stored value and re-broadcast, matching
// the original's unconditional promise_set_value.
type Promise[T any] struct {
	ftr *Future[T]
}

// NewPromise creates a Promise together with its Future.
func NewPromise[T any]() *Promise[T] {
	ftr := &Future[T]{}
	ftr.cond = sync.NewCond(&ftr.mu)
	return &Promise[T]{ftr: ftr}
}

// Future returns the promise's read side.
func (p *Promise[T]) Future() *Future[T] {
	return p.ftr
}

// Set stores value and wakes any goroutine blocked in Get.
func (p *Promise[T]) Set(value T) {
	p.ftr.mu.Lock()
	p.ftr.value = value
	p.ftr.done = true
	p.ftr.mu.Unlock()
	p.ftr.cond.Broadcast()
}

// HasValue reports whether the promise has been fulfilled.
func (f *Future[T]) HasValue() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// Get blocks until the promise is fulfilled or ctx is done, whichever
// comes first. This generalizes the original's unconditional
// future_get_value (a bare pthread_cond_wait loop with no cancellation)
// with a context, the idiomatic Go way to bound a blocking wait.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	var zero T
	waited := make(chan struct{})

	go func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for !f.done && ctx.Err() == nil {
			f.cond.Wait()
		}
		close(waited)
	}()

	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				f.mu.Lock()
				f.cond.Broadcast()
				f.mu.Unlock()
			case <-waited:
			}
		}()
	}

	<-waited

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return f.value, nil
	}
	return zero, ctx.Err()
}
