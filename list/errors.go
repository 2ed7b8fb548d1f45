// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package list

import "errors"

// ErrInvalid is returned when a constructor argument is out of range.
var ErrInvalid = errors.New("list: invalid argument")

// ErrExists is returned by Insert when the key is already present.
var ErrExists = errors.New("list: key exists")

// ErrNotFound is returned by Search, Update and Delete when the key is
// absent.
var ErrNotFound = errors.New("list: key not found")
