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

// Package sim models the GPU execution hierarchy that tile kernels are
// written against, and runs it on the CPU.
//
// The hierarchy is grid → workgroup → warp → lane:
//
//   - A Grid dispatches workgroups onto a persistent pool of goroutines.
//     Workgroups never synchronize with each other.
//   - A Workgroup runs one goroutine per warp. Warps of a workgroup meet at
//     Barrier and exchange data through the workgroup's shared memory arena.
//   - The lanes of a warp execute in lock-step inside the warp's goroutine.
//     A warp-wide value is a slice indexed by lane id (the warp's register
//     file), and register exchange between lanes (ShuffleXor, Shuffle) is a
//     plain read of that slice: no shared memory and no barrier.
//
// Thread identity is never ambient: every operation that depends on it takes
// a Thread.
//
// Configuration is read from the environment at init time:
//
//   - TILE_WARP_SIZE: lanes per warp (default 64, must be a power of two).
//   - TILE_MAX_WORKERS: goroutines used by NewGrid(0) (default GOMAXPROCS).
package sim

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// DefaultWarpSize is the warp (wavefront) width used when TILE_WARP_SIZE is
// not set.
const DefaultWarpSize = 64

var (
	// warpSize is the configured lanes per warp. Set by init().
	warpSize int

	// maxWorkers is the default Grid worker count. Set by init().
	maxWorkers int
)

func init() {
	warpSize = DefaultWarpSize
	if v, ok := envInt("TILE_WARP_SIZE"); ok && IsPowerOfTwo(v) {
		warpSize = v
	}
	maxWorkers = runtime.GOMAXPROCS(0)
	if v, ok := envInt("TILE_MAX_WORKERS"); ok && v > 0 {
		maxWorkers = v
	}
}

// WarpSize returns the configured number of lanes per warp.
func WarpSize() int {
	return warpSize
}

// MaxWorkers returns the number of goroutines a default Grid uses.
func MaxWorkers() int {
	return maxWorkers
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func envInt(name string) (int, bool) {
	val := os.Getenv(name)
	if val == "" {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Thread identifies one lane of the execution hierarchy. It is passed
// explicitly to every operation whose result depends on which thread runs it.
type Thread struct {
	Block int // workgroup id within the grid
	Warp  int // warp id within the workgroup
	Lane  int // lane id within the warp
}

// String implements fmt.Stringer.
func (t Thread) String() string {
	return fmt.Sprintf("block %d warp %d lane %d", t.Block, t.Warp, t.Lane)
}
