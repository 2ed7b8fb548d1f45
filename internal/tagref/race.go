// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package tagref

// RaceEnabled is true when the race detector is active.
//
// Lock-free structures in this module synchronize non-atomic fields
// through atomix acquire-release orderings on separate variables, which
// the race detector cannot observe (it tracks mutex/channel/WaitGroup
// synchronization, not memory-model happens-before edges). Tests that
// would false-positive under the detector are skipped when this is true.
const RaceEnabled = true
