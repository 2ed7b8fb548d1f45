// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package thread provides thrd_t-like thread primitives over goroutines:
// a handle-based registry standing in for the original's TCB list and
// _Thread_local pointer (Go has no thread-local storage), with
// suspend/resume realized as a cooperative checkpoint instead of the
// original's SIGURG-based preemption.
package thread

import (
	"context"
	"runtime"
	"time"
)

// Handle identifies a thread created by a Registry. It is the Go
// analogue of thrd_t, which was itself a pthread_t.
type Handle uint64

// Equal reports whether a and b name the same thread.
func Equal(a, b Handle) bool {
	return a == b
}

type handleKey struct{}

// Current returns the handle of the thread running ctx, if ctx was
// derived from one handed to a Runnable by Registry.Create. The original
// thrd_current() needs no argument because pthread_self() is a true
// OS-level thread-local; Go has no equivalent, so the handle travels
// through the context instead.
func Current(ctx context.Context) (Handle, bool) {
	h, ok := ctx.Value(handleKey{}).(Handle)
	return h, ok
}

// Yield hints the scheduler to run other goroutines, the Go analogue of
// sched_yield.
func Yield() {
	runtime.Gosched()
}

// Sleep blocks the calling goroutine for d, the Go analogue of
// thrd_sleep. Unlike the original's clock_nanosleep retry-on-EINTR loop,
// time.Sleep cannot be interrupted by a signal, so no retry is needed.
func Sleep(d time.Duration) {
	time.Sleep(d)
}

// exitSignal is the panic payload Exit uses to unwind a Runnable early,
// the Go analogue of thrd_exit's pthread_exit longjmp.
type exitSignal struct {
	result int
}

// Exit terminates the calling Runnable immediately with the given result
// code, as if it had returned result. It must be called from within a
// Runnable started by Registry.Create.
func Exit(result int) {
	panic(exitSignal{result: result})
}
