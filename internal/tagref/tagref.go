// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tagref provides the tagged-reference packing shared by the
// slab and queue packages. The list package packs its successor
// references separately (list/succref.go) and uses only RaceEnabled.
//
// A tagged reference is a (count, index) pair packed into the two halves
// of a single atomix.Uint128 so it can be loaded and compared-and-swapped
// as one atomic word. count increases by one on every successful CAS of
// the slot that owns the reference, which is what defends index reuse
// against the ABA problem: two reads that observe the same index but
// different counts are not the same reference.
//
// Index 0 is a real, addressable arena slot like any other; NilIndex
// marks "no successor" distinctly from it.
package tagref

import "code.hybscloud.com/atomix"

// NilIndex marks the absence of a successor. It is distinct from index 0,
// which is a real, addressable slot.
const NilIndex = ^uint32(0)

// Ref is a decoded tagged reference: a generation count plus a slab index.
type Ref struct {
	Count uint32
	Index uint32
}

// IsNil reports whether r points nowhere.
func (r Ref) IsNil() bool {
	return r.Index == NilIndex
}

// Atomic is an atomix.Uint128-backed tagged reference cell.
type Atomic struct {
	word atomix.Uint128
}

// pack/unpack fold (count, index) into the lo/hi uint64 halves atomix.Uint128
// moves as one word. Atomic carries no mark or flag bits; list nodes use
// their own packing for those (list/succref.go).
func pack(r Ref) (lo, hi uint64) {
	return uint64(r.Count), uint64(r.Index)
}

func unpack(lo, hi uint64) Ref {
	return Ref{Count: uint32(lo), Index: uint32(hi)}
}

// Store initializes the cell without synchronization. Use only before the
// structure is published to other goroutines.
func (a *Atomic) Store(r Ref) {
	lo, hi := pack(r)
	a.word.StoreRelaxed(lo, hi)
}

// LoadAcquire reads the current reference with acquire semantics.
func (a *Atomic) LoadAcquire() Ref {
	lo, hi := a.word.LoadAcquire()
	return unpack(lo, hi)
}

// CompareAndSwapAcqRel attempts to replace old with next, with
// acquire-release semantics, and reports whether it succeeded.
func (a *Atomic) CompareAndSwapAcqRel(old, next Ref) bool {
	oldLo, oldHi := pack(old)
	nextLo, nextHi := pack(next)
	return a.word.CompareAndSwapAcqRel(oldLo, oldHi, nextLo, nextHi)
}
