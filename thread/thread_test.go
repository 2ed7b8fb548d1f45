// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package thread_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/coop/thread"
)

func TestCreateJoin(t *testing.T) {
	r, err := thread.NewRegistry(8)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	h, err := r.Create(context.Background(), thread.Runnable{
		Name: "adder",
		Func: func(ctx context.Context, arg any) int {
			n := arg.(int)
			return n + 1
		},
		Arg: 41,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := r.Join(h)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if res != 42 {
		t.Fatalf("Join() = %d, want 42", res)
	}
}

func TestExitUnwindsEarly(t *testing.T) {
	r, err := thread.NewRegistry(4)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	h, err := r.Create(context.Background(), thread.Runnable{
		Func: func(ctx context.Context, arg any) int {
			thread.Exit(7)
			return 99
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := r.Join(h)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if res != 7 {
		t.Fatalf("Join() = %d, want 7", res)
	}
}

func TestCurrentMatchesCreatedHandle(t *testing.T) {
	r, err := thread.NewRegistry(4)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	seen := make(chan thread.Handle, 1)
	h, err := r.Create(context.Background(), thread.Runnable{
		Func: func(ctx context.Context, arg any) int {
			got, ok := thread.Current(ctx)
			if !ok {
				seen <- 0
				return -1
			}
			seen <- got
			return 0
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	select {
	case got := <-seen:
		if !thread.Equal(got, h) {
			t.Fatalf("Current() = %v, want %v", got, h)
		}
	case <-time.After(time.Second):
		t.Fatalf("Runnable never observed Current()")
	}
	if _, err := r.Join(h); err != nil {
		t.Fatalf("Join: %v", err)
	}
}

// TestSuspendResume is spec.md §8 seed 7: a thread blocked at a
// Checkpoint after Suspend resumes promptly once Resume is called.
func TestSuspendResume(t *testing.T) {
	r, err := thread.NewRegistry(4)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	reachedCheckpoint := make(chan struct{})
	suspended := make(chan struct{})
	pastCheckpoint := make(chan struct{})

	h, err := r.Create(context.Background(), thread.Runnable{
		Func: func(ctx context.Context, arg any) int {
			close(reachedCheckpoint)
			<-suspended
			r.Checkpoint(ctx)
			close(pastCheckpoint)
			return 0
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	<-reachedCheckpoint
	if err := r.Suspend(h); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	close(suspended)
	time.Sleep(10 * time.Millisecond)

	select {
	case <-pastCheckpoint:
		t.Fatalf("Checkpoint returned before Resume")
	default:
	}

	start := time.Now()
	if err := r.Resume(h); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	select {
	case <-pastCheckpoint:
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Fatalf("Checkpoint took %v to return after Resume", elapsed)
		}
	case <-time.After(time.Second):
		t.Fatalf("Checkpoint never returned after Resume")
	}

	if _, err := r.Join(h); err != nil {
		t.Fatalf("Join: %v", err)
	}
}

func TestSetGetName(t *testing.T) {
	r, err := thread.NewRegistry(4)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	started := make(chan struct{})
	finish := make(chan struct{})
	h, err := r.Create(context.Background(), thread.Runnable{
		Name: "worker-one",
		Func: func(ctx context.Context, arg any) int {
			close(started)
			<-finish
			return 0
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	<-started

	name, err := r.GetName(h)
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if name != "worker-one" {
		t.Fatalf("GetName() = %q, want %q", name, "worker-one")
	}

	if err := r.SetName(h, "renamed"); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	name, err = r.GetName(h)
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if name != "renamed" {
		t.Fatalf("GetName() after SetName = %q, want %q", name, "renamed")
	}

	close(finish)
	if _, err := r.Join(h); err != nil {
		t.Fatalf("Join: %v", err)
	}
}

func TestDetachRemovesFromRegistry(t *testing.T) {
	r, err := thread.NewRegistry(4)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	finish := make(chan struct{})
	h, err := r.Create(context.Background(), thread.Runnable{
		Func: func(ctx context.Context, arg any) int {
			<-finish
			return 0
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := r.Detach(h); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if _, err := r.GetName(h); !errors.Is(err, thread.ErrNotFound) {
		t.Fatalf("GetName after Detach: err = %v, want ErrNotFound", err)
	}
	close(finish)
}

func TestKillCancelsContext(t *testing.T) {
	r, err := thread.NewRegistry(4)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	canceled := make(chan struct{})
	h, err := r.Create(context.Background(), thread.Runnable{
		Func: func(ctx context.Context, arg any) int {
			<-ctx.Done()
			close(canceled)
			return -1
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := r.Kill(h); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatalf("ctx was never canceled by Kill")
	}
	if _, err := r.Join(h); err != nil {
		t.Fatalf("Join: %v", err)
	}
}

func TestPriorityAffinityNotSupported(t *testing.T) {
	r, err := thread.NewRegistry(4)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	var h thread.Handle
	if err := r.SetPriority(h, 1); !errors.Is(err, thread.ErrNotSupported) {
		t.Fatalf("SetPriority: err = %v, want ErrNotSupported", err)
	}
	if _, err := r.Priority(h); !errors.Is(err, thread.ErrNotSupported) {
		t.Fatalf("Priority: err = %v, want ErrNotSupported", err)
	}
	if err := r.SetAffinity(h, []int{0}); !errors.Is(err, thread.ErrNotSupported) {
		t.Fatalf("SetAffinity: err = %v, want ErrNotSupported", err)
	}
	if _, err := r.Affinity(h); !errors.Is(err, thread.ErrNotSupported) {
		t.Fatalf("Affinity: err = %v, want ErrNotSupported", err)
	}
}
