// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package slab provides a bounded, lock-free, slab-backed memory pool.
//
// Pool[T] allocates fixed-capacity fragments of type T from a pre-sized
// arena. The free list is a Michael-Scott queue of fragment indices
// (internal/tagref), so alloc/free never touch the heap after creation
// and fragments never migrate: a pointer returned by Get remains valid
// for the pool's lifetime.
//
// Pool is the foundation both queue.Queue and list.List are built on.
package slab

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"code.hybscloud.com/coop/internal/tagref"
)

// Pool is a fixed-capacity, lock-free slab allocator for values of type T.
//
// The arena holds capacity+1 slots. One slot at a time is the
// Michael-Scott free-list sentinel and is not handed out; slot 0 starts
// as the sentinel, but Alloc hands out the current sentinel and makes its
// successor the new one, so which slot is reserved changes over time.
// At most capacity fragments are outstanding at once.
type Pool[T any] struct {
	_        tagref.Pad
	head     tagref.Atomic
	_        tagref.Pad
	tail     tagref.Atomic
	_        tagref.Pad
	freeable atomix.Int64
	_        tagref.Pad

	arena    []T
	links    []tagref.Atomic
	capacity int
}

// New creates a slab pool with the given fixed capacity.
// Returns ErrInvalid if capacity <= 0.
func New[T any](capacity int) (*Pool[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalid
	}

	p := &Pool[T]{
		arena:    make([]T, capacity+1),
		links:    make([]tagref.Atomic, capacity+1),
		capacity: capacity,
	}
	p.setup()

	return p, nil
}

// setup (re)builds the free list across the whole arena, assuming no
// fragment is currently outstanding. Used by New and Clear.
func (p *Pool[T]) setup() {
	p.links[0].Store(tagref.Ref{Index: tagref.NilIndex})
	p.head.Store(tagref.Ref{Index: 0})
	p.tail.Store(tagref.Ref{Index: 0})
	p.freeable.StoreRelaxed(0)

	for i := 1; i <= p.capacity; i++ {
		p.put(uint32(i))
	}
}

// put pushes fragment idx onto the free list (Michael-Scott enqueue).
func (p *Pool[T]) put(idx uint32) {
	p.links[idx].Store(tagref.Ref{Index: tagref.NilIndex})

	sw := spin.Wait{}
	var tail tagref.Ref
	for {
		tail = p.tail.LoadAcquire()
		next := p.links[tail.Index].LoadAcquire()
		if tail != p.tail.LoadAcquire() {
			sw.Once()
			continue
		}

		if next.IsNil() {
			if p.links[tail.Index].CompareAndSwapAcqRel(next, tagref.Ref{Count: next.Count + 1, Index: idx}) {
				break
			}
		} else {
			p.tail.CompareAndSwapAcqRel(tail, tagref.Ref{Count: tail.Count + 1, Index: next.Index})
		}
		sw.Once()
	}
	p.tail.CompareAndSwapAcqRel(tail, tagref.Ref{Count: tail.Count + 1, Index: idx})
	p.freeable.AddAcqRel(1)
}

// Alloc removes a fragment from the free list.
// Returns ErrEmpty (an alias for iox.ErrWouldBlock) if the pool is
// exhausted.
func (p *Pool[T]) Alloc() (idx uint32, val *T, err error) {
	sw := spin.Wait{}
	for {
		head := p.head.LoadAcquire()
		tail := p.tail.LoadAcquire()
		next := p.links[head.Index].LoadAcquire()
		if head != p.head.LoadAcquire() {
			sw.Once()
			continue
		}

		if head.Index == tail.Index {
			if next.IsNil() {
				return 0, nil, ErrEmpty
			}
			p.tail.CompareAndSwapAcqRel(tail, tagref.Ref{Count: tail.Count + 1, Index: next.Index})
		} else {
			if p.head.CompareAndSwapAcqRel(head, tagref.Ref{Count: head.Count + 1, Index: next.Index}) {
				p.freeable.AddAcqRel(-1)
				return head.Index, &p.arena[head.Index], nil
			}
		}
		sw.Once()
	}
}

// Free returns fragment idx to the pool.
// Passing an index outside the arena, or double-freeing, is undefined
// per spec.md §4.1.
func (p *Pool[T]) Free(idx uint32) {
	p.put(idx)
}

// Get returns a stable pointer to fragment idx's payload.
func (p *Pool[T]) Get(idx uint32) *T {
	return &p.arena[idx]
}

// Contains reports whether ptr points into this pool's arena.
func (p *Pool[T]) Contains(ptr *T) bool {
	var zero T
	stride := unsafe.Sizeof(zero)
	if stride == 0 || len(p.arena) == 0 {
		return false
	}

	base := uintptr(unsafe.Pointer(unsafe.SliceData(p.arena)))
	end := base + stride*uintptr(len(p.arena))
	target := uintptr(unsafe.Pointer(ptr))

	return target >= base && target < end && (target-base)%stride == 0
}

// Clear resets the pool to its post-create state. The caller must ensure
// no fragment is outstanding; Clear does not check this (spec.md §4.1).
func (p *Pool[T]) Clear() {
	var zero T
	for i := range p.arena {
		p.arena[i] = zero
	}
	p.setup()
}

// Capacity returns the number of allocatable fragments.
func (p *Pool[T]) Capacity() int {
	return p.capacity
}

// Freeable returns the current length of the free list.
func (p *Pool[T]) Freeable() int {
	return int(p.freeable.LoadRelaxed())
}
