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

package sim

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// ErrBarrierBroken is the panic value raised in warps waiting at a barrier
// when another warp of the same workgroup panicked.
var ErrBarrierBroken = errors.New("sim: workgroup barrier broken by a panicking warp")

// Workgroup is one invocation of a kernel body by a group of warps that
// share a barrier and a shared memory arena.
//
// A Workgroup lives for exactly one Run.
type Workgroup struct {
	id       int
	numWarps int
	warpSize int

	// shared is the workgroup's shared memory, backed by uint64 words so
	// that any scalar type can be viewed in place.
	shared []uint64

	mu         sync.Mutex
	cond       sync.Cond
	arrived    int
	generation uint64
	broken     bool
}

// WorkgroupStats reports what a workgroup did, for instrumentation.
type WorkgroupStats struct {
	// Barriers is the number of completed barrier generations.
	Barriers int
	// SharedBytes is the size of the shared memory arena.
	SharedBytes int
}

// NewWorkgroup returns workgroup id with numWarps warps of warpSize lanes
// and a zeroed shared arena of at least sharedBytes bytes.
func NewWorkgroup(id, numWarps, warpSize, sharedBytes int) *Workgroup {
	if numWarps <= 0 || warpSize <= 0 {
		panic(fmt.Sprintf("sim: invalid workgroup geometry %d warps x %d lanes", numWarps, warpSize))
	}
	wg := &Workgroup{
		id:       id,
		numWarps: numWarps,
		warpSize: warpSize,
	}
	if sharedBytes > 0 {
		wg.shared = make([]uint64, (sharedBytes+7)/8)
	}
	wg.cond.L = &wg.mu
	return wg
}

// ID returns the workgroup id within the grid.
func (wg *Workgroup) ID() int {
	return wg.id
}

// NumWarps returns the number of warps in the workgroup.
func (wg *Workgroup) NumWarps() int {
	return wg.numWarps
}

// WarpSize returns the number of lanes per warp.
func (wg *Workgroup) WarpSize() int {
	return wg.warpSize
}

// BlockSize returns the number of threads in the workgroup.
func (wg *Workgroup) BlockSize() int {
	return wg.numWarps * wg.warpSize
}

// Thread returns the identity of lane within warp of this workgroup.
func (wg *Workgroup) Thread(warp, lane int) Thread {
	return Thread{Block: wg.id, Warp: warp, Lane: lane}
}

// Stats returns the workgroup's counters. Call it after Run returns.
func (wg *Workgroup) Stats() WorkgroupStats {
	wg.mu.Lock()
	defer wg.mu.Unlock()
	return WorkgroupStats{
		Barriers:    int(wg.generation),
		SharedBytes: len(wg.shared) * 8,
	}
}

// Run executes body once per warp, each warp on its own goroutine, and
// returns when all warps have finished.
//
// If a warp panics, warps blocked in Barrier are released with
// ErrBarrierBroken and Run re-panics with the first panic value.
func (wg *Workgroup) Run(body func(warp int)) {
	if wg.numWarps == 1 {
		body(0)
		return
	}

	var (
		done      sync.WaitGroup
		panicOnce sync.Once
		firstErr  any
	)
	done.Add(wg.numWarps)
	for w := range wg.numWarps {
		go func() {
			defer done.Done()
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { firstErr = r })
					wg.breakBarrier()
				}
			}()
			body(w)
		}()
	}
	done.Wait()
	if firstErr != nil {
		panic(firstErr)
	}
}

// Barrier blocks until every warp of the workgroup has reached it. Writes to
// shared memory before the barrier are visible to all warps after it.
//
// Every warp must call Barrier the same number of times.
func (wg *Workgroup) Barrier() {
	wg.mu.Lock()
	defer wg.mu.Unlock()
	if wg.broken {
		panic(ErrBarrierBroken)
	}
	gen := wg.generation
	wg.arrived++
	if wg.arrived == wg.numWarps {
		wg.arrived = 0
		wg.generation++
		wg.cond.Broadcast()
		return
	}
	for gen == wg.generation && !wg.broken {
		wg.cond.Wait()
	}
	if gen == wg.generation {
		panic(ErrBarrierBroken)
	}
}

func (wg *Workgroup) breakBarrier() {
	wg.mu.Lock()
	wg.broken = true
	wg.mu.Unlock()
	wg.cond.Broadcast()
}

// SharedBytes returns the size of the shared memory arena in bytes.
func (wg *Workgroup) SharedBytes() int {
	return len(wg.shared) * 8
}

// SharedSlice returns a view of n values of type T in the shared arena of wg,
// starting at byteOffset. byteOffset must be a multiple of 8 and the view
// must fit in the arena.
//
// The arena has no synchronization of its own: publish writes with Barrier.
func SharedSlice[T any](wg *Workgroup, byteOffset, n int) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if byteOffset%8 != 0 || byteOffset < 0 || n < 0 || byteOffset+n*size > wg.SharedBytes() {
		panic(fmt.Sprintf("sim: shared view [%d, %d) outside %d-byte arena",
			byteOffset, byteOffset+n*size, wg.SharedBytes()))
	}
	if n == 0 {
		return nil
	}
	base := unsafe.Pointer(&wg.shared[byteOffset/8])
	return unsafe.Slice((*T)(base), n)
}
