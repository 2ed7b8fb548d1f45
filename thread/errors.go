// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package thread

import "errors"

// ErrInvalid is returned when a constructor argument is out of range.
var ErrInvalid = errors.New("thread: invalid argument")

// ErrNotFound is returned when a handle does not name a registered
// thread, or no longer does (it has been detached).
var ErrNotFound = errors.New("thread: handle not found")

// ErrNotSupported is returned by the scheduling-hint operations the
// original left as ENOTSUP stubs (thrd_set_prior/thrd_get_prior/
// thrd_set_affinity/thrd_get_affinity): the Go runtime scheduler gives
// goroutines no priority or CPU-affinity knobs to wrap.
var ErrNotSupported = errors.New("thread: not supported")
