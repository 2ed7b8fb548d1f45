// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package thread

import (
	"context"
	"os"

	"code.hybscloud.com/atomix"

	"code.hybscloud.com/coop/list"
)

const maxThreadName = 15

// Func is a thread's entry point, the Go analogue of thrd_start_t. It is
// given the cancelable context Registry.Create derived for this thread
// and the arg it was started with.
type Func func(ctx context.Context, arg any) int

// Runnable bundles a thread's entry point with its argument and name,
// generalizing struct runnable (tasks.h) which carried the same three
// fields for a C void* callback.
type Runnable struct {
	Func Func
	Arg  any
	Name string
}

// tcb mirrors struct thread_control_block: registry bookkeeping kept
// alongside each running thread. Channels and funcs are reference types,
// so copying a tcb in and out of the registry (as list.List's Search,
// Insert, Update, Delete all do) shares the same underlying machinery
// without any extra indirection.
type tcb struct {
	handle     Handle
	name       string
	suspendReq chan struct{}
	resume     chan struct{}
	done       chan struct{}
	result     *int
	cancel     context.CancelFunc
}

// Registry tracks running threads by Handle, standing in for the
// original's process-wide tcbs list and suspend/bucket mempools — all
// scoped to one explicit registry instead of package-level globals, per
// a deliberate redesign of the C original's global state.
type Registry struct {
	tcbs   *list.List[tcb]
	nextID atomix.Uint64
}

// NewRegistry creates a registry with room for capacity concurrently
// tracked threads.
func NewRegistry(capacity int) (*Registry, error) {
	if capacity <= 0 {
		return nil, ErrInvalid
	}
	tcbs, err := list.New[tcb](capacity)
	if err != nil {
		return nil, err
	}
	return &Registry{tcbs: tcbs}, nil
}

func truncateName(name string) string {
	if len(name) <= maxThreadName {
		return name
	}
	return name[:maxThreadName]
}

// Create starts r in a new goroutine and registers it under a fresh
// Handle, the analogue of thrd_create. Unlike the original, which
// blocks on a promise until the spawned thread finishes registering
// itself (a handshake needed because pthread_create's caller can't see
// the child's TCB until it runs), Create registers the tcb itself
// before starting the goroutine, since there is no separate OS-level
// handle to race against.
func (r *Registry) Create(ctx context.Context, run Runnable) (Handle, error) {
	if run.Func == nil {
		return 0, ErrInvalid
	}

	h := Handle(r.nextID.AddAcqRel(1))
	cctx, cancel := context.WithCancel(ctx)
	cctx = context.WithValue(cctx, handleKey{}, h)

	t := tcb{
		handle:     h,
		name:       truncateName(run.Name),
		suspendReq: make(chan struct{}, 1),
		resume:     make(chan struct{}, 1),
		done:       make(chan struct{}),
		result:     new(int),
		cancel:     cancel,
	}

	if err := r.tcbs.Insert(int64(h), t); err != nil {
		cancel()
		return 0, err
	}

	go r.run(cctx, t, run.Func, run.Arg)

	return h, nil
}

func (r *Registry) run(ctx context.Context, t tcb, fn Func, arg any) {
	*t.result = runGuarded(ctx, fn, arg)
	close(t.done)
}

func runGuarded(ctx context.Context, fn Func, arg any) (result int) {
	defer func() {
		if rec := recover(); rec != nil {
			if es, ok := rec.(exitSignal); ok {
				result = es.result
				return
			}
			panic(rec)
		}
	}()
	return fn(ctx, arg)
}

// Join blocks until h's thread finishes and returns its result.
func (r *Registry) Join(h Handle) (int, error) {
	t, err := r.tcbs.Search(int64(h))
	if err != nil {
		return 0, ErrNotFound
	}
	<-t.done
	return *t.result, nil
}

// Detach releases the registry's bookkeeping for h. A detached handle
// can no longer be joined, suspended, resumed, or renamed, mirroring the
// original's pthread_detach: once detached, the thread's resources are
// reclaimed on completion without anyone waiting on it.
func (r *Registry) Detach(h Handle) error {
	if _, err := r.tcbs.Delete(int64(h)); err != nil {
		return ErrNotFound
	}
	return nil
}

// Suspend requests that h's thread pause at its next Checkpoint call.
// The original delivers SIGURG to preempt the target thread
// asynchronously; Go goroutines cannot be preempted from the outside, so
// the target must call Checkpoint itself.
func (r *Registry) Suspend(h Handle) error {
	t, err := r.tcbs.Search(int64(h))
	if err != nil {
		return ErrNotFound
	}
	select {
	case t.suspendReq <- struct{}{}:
	default:
	}
	return nil
}

// Resume wakes h's thread if it is blocked in Checkpoint, the analogue
// of sem_post(tcb.suspend).
func (r *Registry) Resume(h Handle) error {
	t, err := r.tcbs.Search(int64(h))
	if err != nil {
		return ErrNotFound
	}
	select {
	case t.resume <- struct{}{}:
	default:
	}
	return nil
}

// Checkpoint blocks the calling thread if a Suspend is pending for it,
// until a matching Resume or ctx cancellation. A Runnable that wants to
// be suspendable must call this periodically from within its own
// context.
func (r *Registry) Checkpoint(ctx context.Context) {
	h, ok := Current(ctx)
	if !ok {
		return
	}
	t, err := r.tcbs.Search(int64(h))
	if err != nil {
		return
	}

	select {
	case <-t.suspendReq:
	default:
		return
	}

	select {
	case <-t.resume:
	case <-ctx.Done():
	}
}

// Kill cancels h's context, the cooperative analogue of pthread_kill: a
// Runnable that checks ctx.Done() (directly, or via Checkpoint) observes
// the cancellation and can unwind.
func (r *Registry) Kill(h Handle) error {
	t, err := r.tcbs.Search(int64(h))
	if err != nil {
		return ErrNotFound
	}
	t.cancel()
	return nil
}

// Raise sends sig to the current process, the analogue of raise(3).
// Unlike pthread_kill, POSIX signals have no per-goroutine target in Go.
func Raise(sig os.Signal) error {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return err
	}
	return p.Signal(sig)
}

// SetName renames h's thread.
func (r *Registry) SetName(h Handle, name string) error {
	t, err := r.tcbs.Search(int64(h))
	if err != nil {
		return ErrNotFound
	}
	t.name = truncateName(name)
	if err := r.tcbs.Update(int64(h), t); err != nil {
		return ErrNotFound
	}
	return nil
}

// GetName returns h's thread name.
func (r *Registry) GetName(h Handle) (string, error) {
	t, err := r.tcbs.Search(int64(h))
	if err != nil {
		return "", ErrNotFound
	}
	return t.name, nil
}

// SetPriority, Priority, SetAffinity and Affinity are stubs returning
// ErrNotSupported, mirroring thrd_set_prior/thrd_get_prior/
// thrd_set_affinity/thrd_get_affinity's ENOTSUP bodies: the Go scheduler
// exposes no priority or CPU-affinity controls to wrap.

func (r *Registry) SetPriority(h Handle, priority int) error {
	return ErrNotSupported
}

func (r *Registry) Priority(h Handle) (int, error) {
	return 0, ErrNotSupported
}

func (r *Registry) SetAffinity(h Handle, cpus []int) error {
	return ErrNotSupported
}

func (r *Registry) Affinity(h Handle) ([]int, error) {
	return nil, ErrNotSupported
}

// Close cancels every thread still tracked by the registry.
func (r *Registry) Close() error {
	for _, k := range r.tcbs.Keys() {
		if t, err := r.tcbs.Search(k); err == nil {
			t.cancel()
		}
	}
	return nil
}
