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

// Package tile maps 2-D logical tiles of an M×N tensor onto the warps, lanes
// and vector slots of a workgroup, and moves data between tensors and those
// distributed registers.
//
// The pieces, leaves first:
//
//   - Shape: the static partition derived from four (M, N) vectors
//     (warps per block, block tile, warp tile, vector). Invalid combinations
//     are rejected by NewShape, before any kernel exists.
//   - Encoding: which block-local element each (warp, lane, slot) triple
//     owns. Obtained from a Shape, never built directly.
//   - TensorView: a buffer with lengths and strides.
//   - Window: a Block_M×Block_N view over a TensorView at a movable origin,
//     with Load / Store of a thread's DistributedTile.
//   - DistributedTile: the slots one thread owns, in encoding order.
//
// Basic usage, inside a warp body of a sim.Workgroup:
//
//	shape := tile.MustShape(tile.ShapeParams{
//	    WarpsPerBlock: tile.Dims{1, 8},
//	    BlockTile:     tile.Dims{1, 2048},
//	    WarpTile:      tile.Dims{1, 256},
//	    Vector:        tile.Dims{1, 4},
//	})
//	x := tile.OpenWindow(tile.NewTensorView(buf, m, n), shape.Block(),
//	    tile.Dims{wg.ID() * shape.Block()[tile.DimM], 0}, shape.Encoding())
//	for range shape.Iterations(n) {
//	    for lane := range shape.WarpSize() {
//	        t := x.Load(wg.Thread(warp, lane))
//	        ...
//	    }
//	    x.Move(tile.Dims{0, shape.Block()[tile.DimN]})
//	}
package tile
