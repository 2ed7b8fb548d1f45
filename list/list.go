// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package list provides a bounded, lock-free, ordered associative list
// keyed by int64, using the Harris-Michael mark-and-flag discipline so
// concurrent inserts, deletes and searches never block each other.
package list

import (
	"math"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"code.hybscloud.com/coop/slab"
)

type node[V any] struct {
	succ     atomicSucc
	backlink uint32
	key      int64
	val      V
}

// writerLock is the sentinel readers value meaning "a writer holds
// exclusive access", analogous to the UINT32_MAX sentinel the original
// readers counter used.
const writerLock = int64(-1)

// List is a fixed-capacity, lock-free ordered list of values of type V
// keyed by int64.
//
// Keys math.MinInt64 and math.MaxInt64 are reserved for the head and
// tail sentinels and may not be inserted; the backing slab is sized
// capacity+2 to hold them.
type List[V any] struct {
	pool *slab.Pool[node[V]]
	head uint32
	tail uint32

	readers atomix.Int64
}

// New creates a list with the given fixed capacity.
// Returns ErrInvalid if capacity <= 0.
func New[V any](capacity int) (*List[V], error) {
	if capacity <= 0 {
		return nil, ErrInvalid
	}

	pool, err := slab.New[node[V]](capacity + 2)
	if err != nil {
		return nil, err
	}

	l := &List[V]{pool: pool}

	tailIdx, tailNode, err := pool.Alloc()
	if err != nil {
		return nil, err
	}
	tailNode.key = math.MaxInt64
	tailNode.backlink = nilIndex
	tailNode.succ.store(succRef{index: nilIndex})

	headIdx, headNode, err := pool.Alloc()
	if err != nil {
		return nil, err
	}
	headNode.key = math.MinInt64
	headNode.backlink = nilIndex
	headNode.succ.store(unmarkedUnflagged(tailIdx))

	l.head = headIdx
	l.tail = tailIdx

	return l, nil
}

func (l *List[V]) allocNode(key int64, val V) (uint32, *node[V], error) {
	idx, n, err := l.pool.Alloc()
	if err != nil {
		return 0, nil, err
	}
	n.key = key
	n.val = val
	n.backlink = nilIndex
	n.succ.store(succRef{index: nilIndex})
	return idx, n, nil
}

// helpMarked swings prev's successor past a node already marked for
// deletion, completing the unlink that try_flag/try_mark started.
func (l *List[V]) helpMarked(prevIdx, delIdx uint32) {
	prev := l.pool.Get(prevIdx)
	del := l.pool.Get(delIdx)
	exp := flaggedRef(delIdx)
	next := del.succ.loadAcquire().index
	prev.succ.compareAndSwapAcqRel(exp, unmarkedUnflagged(next))
}

// searchFrom walks the list starting at curr until it finds the
// rightmost node with key <= the target key, helping along any marked
// nodes it passes over.
func (l *List[V]) searchFrom(key int64, currIdx uint32) (prevIdx, nextIdx uint32) {
	curr := currIdx
	next := l.pool.Get(curr).succ.loadAcquire().index

	for l.pool.Get(next).key <= key {
		for l.pool.Get(next).succ.loadAcquire().marked &&
			(!l.pool.Get(curr).succ.loadAcquire().marked || l.pool.Get(curr).succ.loadAcquire().index != next) {

			if l.pool.Get(curr).succ.loadAcquire().index == next {
				l.helpMarked(curr, next)
			}
			next = l.pool.Get(curr).succ.loadAcquire().index
		}

		if l.pool.Get(next).key <= key {
			curr = next
			next = l.pool.Get(curr).succ.loadAcquire().index
		}
	}

	return curr, next
}

// tryMark marks del for deletion, helping any flagged successor of del
// along the way.
func (l *List[V]) tryMark(delIdx uint32) {
	del := l.pool.Get(delIdx)
	for {
		next := del.succ.loadAcquire().index
		exp := unmarkedUnflagged(next)
		del.succ.compareAndSwapAcqRel(exp, markedRef(next))

		result := del.succ.loadAcquire()
		if !result.marked && result.flagged {
			l.helpFlagged(delIdx, result.index)
		}
		if del.succ.loadAcquire().marked {
			break
		}
	}
}

// helpFlagged completes a deletion flagged by another thread: record
// the backlink, mark the node, then unlink it from prev.
func (l *List[V]) helpFlagged(prevIdx, delIdx uint32) {
	del := l.pool.Get(delIdx)
	del.backlink = prevIdx

	if !del.succ.loadAcquire().marked {
		l.tryMark(delIdx)
	}
	l.helpMarked(prevIdx, delIdx)
}

// tryFlag attempts to flag prev's successor link to target so it can be
// unlinked. ok is true only if this call set the flag; found is false if
// target could no longer be located (the caller should report not-found).
func (l *List[V]) tryFlag(prevIdx, targetIdx uint32) (resultIdx uint32, ok bool, found bool) {
	prev := prevIdx
	for {
		prevNode := l.pool.Get(prev)
		cur := prevNode.succ.loadAcquire()
		if cur.index == targetIdx && !cur.marked && cur.flagged {
			return prev, false, true
		}

		exp := unmarkedUnflagged(targetIdx)
		if prevNode.succ.compareAndSwapAcqRel(exp, flaggedRef(targetIdx)) {
			return prev, true, true
		}

		result := prevNode.succ.loadAcquire()
		if result.index == targetIdx && !result.marked && result.flagged {
			return prev, false, true
		}

		for prevNode.succ.loadAcquire().marked {
			prev = prevNode.backlink
			prevNode = l.pool.Get(prev)
		}

		target := l.pool.Get(targetIdx)
		_, del := l.searchFrom(target.key-1, prev)
		if del != targetIdx {
			return 0, false, false
		}
	}
}

// Insert adds key/val to the list. Returns ErrExists if key is already
// present.
func (l *List[V]) Insert(key int64, val V) error {
	prev, next := l.searchFrom(key, l.head)
	prevNode := l.pool.Get(prev)
	if prevNode.key == key {
		return ErrExists
	}

	idx, n, err := l.allocNode(key, val)
	if err != nil {
		return err
	}

	for {
		prevSucc := prevNode.succ.loadAcquire()

		if prevSucc.flagged {
			l.helpFlagged(prev, prevSucc.index)
		} else {
			n.succ.store(unmarkedUnflagged(next))
			exp := unmarkedUnflagged(next)
			if prevNode.succ.compareAndSwapAcqRel(exp, unmarkedUnflagged(idx)) {
				return nil
			}

			result := prevNode.succ.loadAcquire()
			if !result.marked && result.flagged {
				l.helpFlagged(prev, result.index)
			}
			for prevNode.succ.loadAcquire().marked {
				prev = prevNode.backlink
				prevNode = l.pool.Get(prev)
			}
		}

		prev, next = l.searchFrom(key, prev)
		prevNode = l.pool.Get(prev)

		if prevNode.key == key {
			l.pool.Free(idx)
			return ErrExists
		}
	}
}

// Delete removes key from the list and returns its value.
// Returns ErrNotFound if key is absent.
func (l *List[V]) Delete(key int64) (V, error) {
	var zero V
	prev, del := l.searchFrom(key-1, l.head)

	delNode := l.pool.Get(del)
	if delNode.key != key {
		return zero, ErrNotFound
	}

	result, ok, found := l.tryFlag(prev, del)
	if found {
		l.helpFlagged(result, del)
	}
	if !ok {
		return zero, ErrNotFound
	}

	l.rLock()
	val := delNode.val
	l.rUnlock()

	l.pool.Free(del)
	return val, nil
}

func (l *List[V]) search(key int64) (uint32, bool) {
	curr, _ := l.searchFrom(key, l.head)
	if l.pool.Get(curr).key == key {
		return curr, true
	}
	return 0, false
}

// Search returns the value stored at key.
// Returns ErrNotFound if key is absent.
func (l *List[V]) Search(key int64) (V, error) {
	var zero V
	idx, ok := l.search(key)
	if !ok {
		return zero, ErrNotFound
	}
	n := l.pool.Get(idx)

	l.rLock()
	val := n.val
	l.rUnlock()

	return val, nil
}

// Update replaces the value stored at key.
// Returns ErrNotFound if key is absent.
func (l *List[V]) Update(key int64, val V) error {
	idx, ok := l.search(key)
	if !ok {
		return ErrNotFound
	}
	n := l.pool.Get(idx)

	l.wLock()
	n.val = val
	l.wUnlock()

	return nil
}

// Keys returns the list's keys in ascending order, skipping the head and
// tail sentinels.
func (l *List[V]) Keys() []int64 {
	var keys []int64
	curr := l.pool.Get(l.head).succ.loadAcquire().index
	for curr != l.tail {
		keys = append(keys, l.pool.Get(curr).key)
		curr = l.pool.Get(curr).succ.loadAcquire().index
	}
	return keys
}

// rLock/rUnlock and wLock/wUnlock implement a spin-based reader-writer
// gate over readers, mirroring the original list's package-level readers
// counter: any number of readers may proceed concurrently, a writer
// needs readers == 0 and holds the writerLock sentinel exclusively.
func (l *List[V]) rLock() {
	sw := spin.Wait{}
	for {
		cur := l.readers.LoadAcquire()
		if cur == writerLock {
			sw.Once()
			continue
		}
		if l.readers.CompareAndSwapAcqRel(cur, cur+1) {
			return
		}
		sw.Once()
	}
}

func (l *List[V]) rUnlock() {
	l.readers.AddAcqRel(-1)
}

func (l *List[V]) wLock() {
	sw := spin.Wait{}
	for {
		cur := l.readers.LoadAcquire()
		if cur != 0 {
			sw.Once()
			continue
		}
		if l.readers.CompareAndSwapAcqRel(0, writerLock) {
			return
		}
		sw.Once()
	}
}

func (l *List[V]) wUnlock() {
	l.readers.StoreRelease(0)
}
