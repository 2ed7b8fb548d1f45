// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pool

import "errors"

// ErrInvalid is returned when a Config is out of range.
var ErrInvalid = errors.New("pool: invalid argument")
