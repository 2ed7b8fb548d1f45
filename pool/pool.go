// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"code.hybscloud.com/atomix"

	"code.hybscloud.com/coop/future"
	"code.hybscloud.com/coop/queue"
	"code.hybscloud.com/coop/thread"
)

type worker struct {
	id     int
	handle thread.Handle
	local  *queue.Queue[Job]
}

// Pool is a fixed-size work-stealing goroutine pool.
//
// Add pushes to the calling worker's own local queue when called from
// inside a running Job (detected via thread.Current, the Go substitute
// for the original's _Thread_local worker pointer), and to a shared
// global queue otherwise. Idle workers drain their own local queue
// first, then steal from a colleague's, then fall back to the global
// queue, matching job_seeking/work_steal in thread_pool.c.
type Pool struct {
	cfg      Config
	registry *thread.Registry
	global   *queue.Queue[Job]
	ready    *future.Promise[struct{}]

	mu      sync.Mutex
	cond    *sync.Cond
	workers []*worker
	byID    sync.Map // thread.Handle -> *worker

	numActive    atomix.Int64
	numLocalJobs atomix.Int64
	nextJobID    atomix.Uint64
}

// New creates a pool per cfg. Workers are started in the background;
// callers that need to wait for the pool to be fully staffed can use the
// returned Pool immediately — Add and the scheduler tolerate workers
// that are still starting, the same way thrdpool_create's caller does
// not block on worker_creator finishing before returning.
func New(cfg Config) (*Pool, error) {
	if cfg.Workers <= 0 {
		return nil, ErrInvalid
	}
	if cfg.GlobalQueueCap <= 0 {
		cfg.GlobalQueueCap = defaultQueueCap
	}
	if cfg.LocalQueueCap <= 0 {
		cfg.LocalQueueCap = defaultQueueCap
	}
	if cfg.RegistryCap <= 0 {
		cfg.RegistryCap = cfg.Workers
	}

	global, err := queue.New[Job](cfg.GlobalQueueCap)
	if err != nil {
		return nil, err
	}
	registry, err := thread.NewRegistry(cfg.RegistryCap)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:      cfg,
		registry: registry,
		global:   global,
		ready:    future.NewPromise[struct{}](),
	}
	p.cond = sync.NewCond(&p.mu)

	go p.bootstrap()

	return p, nil
}

// bootstrap starts every worker and signals readiness, the analogue of
// worker_creator spawning workers[1..n) before running workers[0] itself.
func (p *Pool) bootstrap() {
	for i := range p.cfg.Workers {
		p.spawnWorker(i)
	}
	p.ready.Set(struct{}{})
}

func (p *Pool) spawnWorker(id int) {
	local, err := queue.New[Job](p.cfg.LocalQueueCap)
	if err != nil {
		return
	}
	w := &worker{id: id, local: local}

	h, err := p.registry.Create(context.Background(), thread.Runnable{
		Name: fmt.Sprintf("worker[%d]", id),
		Func: func(ctx context.Context, arg any) int {
			return p.runWorker(ctx, w)
		},
	})
	if err != nil {
		return
	}
	w.handle = h

	p.mu.Lock()
	p.workers = append(p.workers, w)
	p.mu.Unlock()
	p.byID.Store(h, w)
}

func (p *Pool) runWorker(ctx context.Context, w *worker) int {
	defer func() { p.byID.Delete(w.handle) }()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	}()

	baseName := fmt.Sprintf("worker[%d]", w.id)
	for {
		job, ok := p.seekJob(ctx, w)
		if !ok {
			return 0
		}

		if job.Name != "" {
			p.registry.SetName(w.handle, job.Name)
		}
		p.numActive.AddAcqRel(1)
		job.Func(ctx)
		p.numActive.AddAcqRel(-1)
		if job.Name != "" {
			p.registry.SetName(w.handle, baseName)
		}
	}
}

func (p *Pool) seekJob(ctx context.Context, w *worker) (Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if job, ok := p.tryDequeue(w); ok {
			return job, true
		}
		if ctx.Err() != nil {
			return Job{}, false
		}
		p.cond.Wait()
	}
}

// tryDequeue mirrors job_seeking: prefer the worker's own local queue,
// then steal from a colleague's, then fall back to the shared global
// queue. numLocalJobs is a pool-wide hint (mirroring the original's
// shared _Atomic(size_t) num_local_jobs, pointed to by every worker)
// rather than a per-worker count.
func (p *Pool) tryDequeue(w *worker) (Job, bool) {
	if p.numLocalJobs.LoadRelaxed() > 0 {
		if job, err := w.local.Dequeue(); err == nil {
			p.numLocalJobs.AddAcqRel(-1)
			return job, true
		}
		if job, ok := p.stealFrom(w); ok {
			p.numLocalJobs.AddAcqRel(-1)
			return job, true
		}
	}
	if job, err := p.global.Dequeue(); err == nil {
		return job, true
	}
	return Job{}, false
}

func (p *Pool) stealFrom(self *worker) (Job, bool) {
	for _, w := range p.workers {
		if w.id == self.id {
			continue
		}
		if job, err := w.local.Dequeue(); err == nil {
			return job, true
		}
	}
	return Job{}, false
}

// Add submits job for execution. If called from inside a running Job
// (detected via thread.Current(ctx)), it is pushed onto the calling
// worker's own local queue; otherwise it goes to the shared global
// queue. Returns an error if the target queue is full.
func (p *Pool) Add(ctx context.Context, job Job) error {
	job.ID = p.nextJobID.AddAcqRel(1)
	job.Name = truncateJobName(job.Name)

	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if h, ok := thread.Current(ctx); ok {
		if v, ok := p.byID.Load(h); ok {
			w := v.(*worker)
			if err = w.local.Enqueue(job); err == nil {
				p.numLocalJobs.AddAcqRel(1)
			}
		} else {
			err = p.global.Enqueue(job)
		}
	} else {
		err = p.global.Enqueue(job)
	}
	p.cond.Broadcast()

	return err
}

// NumWorkers returns the pool's configured worker count.
func (p *Pool) NumWorkers() int {
	return p.cfg.Workers
}

// NumActive returns the number of workers currently executing a job.
func (p *Pool) NumActive() int {
	return int(p.numActive.LoadRelaxed())
}

// Close cancels and joins every worker, then releases the pool's queues
// and registry, the analogue of thrdpool_destroy.
func (p *Pool) Close() error {
	readyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.ready.Future().Get(readyCtx)

	p.mu.Lock()
	workers := append([]*worker(nil), p.workers...)
	p.mu.Unlock()

	for i := len(workers) - 1; i >= 0; i-- {
		p.registry.Kill(workers[i].handle)
	}
	for i := len(workers) - 1; i >= 0; i-- {
		p.registry.Join(workers[i].handle)
	}
	for _, w := range workers {
		w.local.Close()
	}
	p.global.Close()

	return p.registry.Close()
}
