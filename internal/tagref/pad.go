// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tagref

// Pad is cache line padding to prevent false sharing between hot
// contended fields (head/tail/seek counters). Mirrors the teacher's
// pad type in options.go.
type Pad [64]byte
