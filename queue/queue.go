// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queue provides a bounded, lock-free, multi-producer
// multi-consumer FIFO queue built on the Michael-Scott discipline, backed
// by a slab.Pool so enqueue/dequeue never touch the heap after creation.
package queue

import (
	"code.hybscloud.com/spin"

	"code.hybscloud.com/coop/internal/tagref"
	"code.hybscloud.com/coop/slab"
)

// node is a queue value-node. Unlike slab's own internal free-list link,
// a queue node carries a payload and is linked by tagref.Atomic so the
// CAS that advances head/tail is a single atomic word, not a raw pointer
// swap (ABA prevention via the tag's Count field).
type node[T any] struct {
	next tagref.Atomic
	val  T
}

// Queue is a fixed-capacity lock-free FIFO queue of values of type T.
//
// The queue keeps a dedicated sentinel node (distinct from the slab
// pool's own free-list sentinel) so head and tail always point at a real,
// allocated node: queue.New asks the slab for capacity+1 fragments, one
// of which becomes this sentinel.
type Queue[T any] struct {
	pool *slab.Pool[node[T]]
	_    tagref.Pad
	head tagref.Atomic
	_    tagref.Pad
	tail tagref.Atomic
}

// New creates a queue with the given fixed capacity.
// Returns ErrInvalid if capacity <= 0.
func New[T any](capacity int) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalid
	}

	pool, err := slab.New[node[T]](capacity + 1)
	if err != nil {
		return nil, err
	}

	q := &Queue[T]{pool: pool}

	sentinelIdx, sentinel, err := pool.Alloc()
	if err != nil {
		return nil, err
	}
	var zero T
	sentinel.val = zero
	sentinel.next.Store(tagref.Ref{Index: tagref.NilIndex})

	ref := tagref.Ref{Index: sentinelIdx}
	q.head.Store(ref)
	q.tail.Store(ref)

	return q, nil
}

// Enqueue appends val to the tail of the queue.
// Returns ErrWouldBlock if the backing slab is exhausted.
func (q *Queue[T]) Enqueue(val T) error {
	idx, n, err := q.pool.Alloc()
	if err != nil {
		return ErrWouldBlock
	}
	n.val = val
	n.next.Store(tagref.Ref{Index: tagref.NilIndex})

	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		tailNode := q.pool.Get(tail.Index)
		next := tailNode.next.LoadAcquire()
		if tail != q.tail.LoadAcquire() {
			sw.Once()
			continue
		}

		if next.IsNil() {
			if tailNode.next.CompareAndSwapAcqRel(next, tagref.Ref{Count: next.Count + 1, Index: idx}) {
				q.tail.CompareAndSwapAcqRel(tail, tagref.Ref{Count: tail.Count + 1, Index: idx})
				return nil
			}
		} else {
			q.tail.CompareAndSwapAcqRel(tail, tagref.Ref{Count: tail.Count + 1, Index: next.Index})
		}
		sw.Once()
	}
}

// Dequeue removes and returns the value at the head of the queue.
// Returns ErrWouldBlock if the queue is empty.
func (q *Queue[T]) Dequeue() (T, error) {
	var zero T
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		tail := q.tail.LoadAcquire()
		headNode := q.pool.Get(head.Index)
		next := headNode.next.LoadAcquire()
		if head != q.head.LoadAcquire() {
			sw.Once()
			continue
		}

		if head.Index == tail.Index {
			if next.IsNil() {
				return zero, ErrWouldBlock
			}
			q.tail.CompareAndSwapAcqRel(tail, tagref.Ref{Count: tail.Count + 1, Index: next.Index})
		} else {
			nextNode := q.pool.Get(next.Index)
			val := nextNode.val
			if q.head.CompareAndSwapAcqRel(head, tagref.Ref{Count: head.Count + 1, Index: next.Index}) {
				q.pool.Free(head.Index)
				return val, nil
			}
		}
		sw.Once()
	}
}

// Close releases the queue's backing slab. After Close, the queue must
// not be used.
func (q *Queue[T]) Close() {
	q.pool.Clear()
}
