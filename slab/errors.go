// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrInvalid is returned when a constructor argument is out of range
// (data_bytes/capacity == 0 per spec.md §4.1 "create... fails with
// invalid on zero arguments").
var ErrInvalid = errors.New("slab: invalid argument")

// ErrEmpty reports that the pool has no free fragments. It is an alias
// for iox.ErrWouldBlock: callers retry Alloc the same way queue/list
// callers retry on a full/empty condition, rather than treating it as a
// hard failure.
var ErrEmpty = iox.ErrWouldBlock

// IsWouldBlock reports whether err is the exhausted-pool signal.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}
