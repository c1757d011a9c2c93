// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package reduce implements the two-phase block reduction of a distributed
// tile along N.
//
// A reduction of a Block_M×Block_N tile happens in three steps:
//
//   - Fold: every lane folds the values it loaded into a per-lane
//     accumulator laid out in the shape's reduced encoding. Each Repeat_M and
//     Vector_M slot stays independent; only the N slots are combined.
//   - WarpSync: lanes of a warp that share an M position exchange their
//     accumulators with an xor butterfly, so every one of them ends up with
//     the warp's partial result. No shared memory and no barrier.
//   - CrossWarpSync: when the block has more than one warp along N, the
//     partial results are staged in workgroup shared memory, the workgroup
//     synchronises on its barrier, and the warps with warp_N == 0 combine
//     them. With a single warp along N the phase does nothing at all.
//
// After Sync, the designated lanes (warp_N == 0, thread_N == 0) hold the
// complete reduction of their rows and are the ones a Window stores.
//
// # Example Usage
//
//	br, _ := reduce.New(shape, reduce.Sum[float32]())
//	accs := br.MakeWarpAccumulators()
//	for range shape.Iterations(n) {
//	    for lane, acc := range accs {
//	        x := window.Load(wg.Thread(warp, lane))
//	        br.Fold(acc, x, nil)
//	    }
//	    window.Move(tile.Dims{0, shape.Block()[tile.DimN]})
//	}
//	br.Sync(wg, warp, accs)
package reduce
