// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrInvalid is returned when a constructor argument is out of range.
var ErrInvalid = errors.New("queue: invalid argument")

// ErrWouldBlock indicates Enqueue would overflow the slab (full) or
// Dequeue found nothing to remove (empty). It is an alias for
// iox.ErrWouldBlock, a control-flow signal rather than a failure — the
// caller should retry with backoff, per the teacher's own ErrWouldBlock
// convention (errors.go in hayabusa-cloud-lfq).
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}
