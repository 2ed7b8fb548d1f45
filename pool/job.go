// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pool provides a work-stealing goroutine pool: each worker
// drains its own local job queue before stealing from a colleague's, and
// falls back to a shared global queue, mirroring the original's
// job_seeking/work_steal scheduler.
package pool

import "context"

const jobNameMax = 31

// Job is a unit of work submitted to a Pool, generalizing job_t
// (thread_pool.h) — func/arg collapse into a single closure taking the
// worker's context, the idiomatic Go shape for a cancelable callback.
type Job struct {
	ID       uint64
	Name     string
	Waitable bool
	Func     func(ctx context.Context) int
}

func truncateJobName(name string) string {
	if len(name) <= jobNameMax {
		return name
	}
	return name[:jobNameMax]
}

// Config sizes a Pool's workers and queues.
type Config struct {
	Workers        int
	GlobalQueueCap int
	LocalQueueCap  int
	RegistryCap    int
}

// defaultQueueCap mirrors MAX_JOBS from thread_pool.c.
const defaultQueueCap = 32

// DefaultConfig returns a Config for the given worker count with the
// original's MAX_JOBS queue capacities.
func DefaultConfig(workers int) Config {
	return Config{
		Workers:        workers,
		GlobalQueueCap: defaultQueueCap,
		LocalQueueCap:  defaultQueueCap,
		RegistryCap:    workers,
	}
}
