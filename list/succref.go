// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package list

import "code.hybscloud.com/atomix"

const nilIndex = ^uint32(0)

// succRef is a node's successor reference together with the mark and
// flag bits the Harris-Michael algorithm needs: mark means "this node is
// logically deleted", flag means "this node's successor is being
// unlinked by another thread". Both bits and the 32-bit slab index are
// packed into one atomix.Uint128 so a successor update is a single CAS,
// matching struct list_node_ref (mark, node) in the original collections
// code.
type succRef struct {
	marked  bool
	flagged bool
	index   uint32
}

func unmarkedUnflagged(idx uint32) succRef { return succRef{index: idx} }
func markedRef(idx uint32) succRef         { return succRef{marked: true, index: idx} }
func flaggedRef(idx uint32) succRef        { return succRef{flagged: true, index: idx} }

type atomicSucc struct {
	word atomix.Uint128
}

func packSucc(r succRef) (lo, hi uint64) {
	var mark uint64
	if r.marked {
		mark |= 1
	}
	if r.flagged {
		mark |= 2
	}
	return mark, uint64(r.index)
}

func unpackSucc(lo, hi uint64) succRef {
	return succRef{marked: lo&1 != 0, flagged: lo&2 != 0, index: uint32(hi)}
}

func (a *atomicSucc) store(r succRef) {
	lo, hi := packSucc(r)
	a.word.StoreRelaxed(lo, hi)
}

func (a *atomicSucc) loadAcquire() succRef {
	lo, hi := a.word.LoadAcquire()
	return unpackSucc(lo, hi)
}

func (a *atomicSucc) compareAndSwapAcqRel(old, next succRef) bool {
	oldLo, oldHi := packSucc(old)
	nextLo, nextHi := packSucc(next)
	return a.word.CompareAndSwapAcqRel(oldLo, oldHi, nextLo, nextHi)
}
