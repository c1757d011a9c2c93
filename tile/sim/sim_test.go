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
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIsPowerOfTwo(t *testing.T) {
	for n, want := range map[int]bool{0: false, 1: true, 2: true, 3: false, 64: true, 96: false, -4: false} {
		if got := IsPowerOfTwo(n); got != want {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestWarpSizeDefault(t *testing.T) {
	if !IsPowerOfTwo(WarpSize()) {
		t.Errorf("WarpSize() = %d, want a power of two", WarpSize())
	}
}

func TestShuffleXor(t *testing.T) {
	src := []int{0, 1, 2, 3, 4, 5, 6, 7}
	dst := make([]int, len(src))

	ShuffleXorInto(dst, src, 1)
	if diff := cmp.Diff([]int{1, 0, 3, 2, 5, 4, 7, 6}, dst); diff != "" {
		t.Errorf("ShuffleXor(1) mismatch (-want +got):\n%s", diff)
	}
	ShuffleXorInto(dst, src, 4)
	if diff := cmp.Diff([]int{4, 5, 6, 7, 0, 1, 2, 3}, dst); diff != "" {
		t.Errorf("ShuffleXor(4) mismatch (-want +got):\n%s", diff)
	}

	// Partners outside the warp read their own lane.
	odd := []int{10, 11, 12}
	dst = make([]int, 3)
	ShuffleXorInto(dst, odd, 2)
	if diff := cmp.Diff([]int{12, 11, 10}, dst); diff != "" {
		t.Errorf("ShuffleXor on short warp mismatch (-want +got):\n%s", diff)
	}
	if got := Shuffle(odd, 1); got != 11 {
		t.Errorf("Shuffle(lane 1) = %d, want 11", got)
	}
}

func TestBarrierPublishesSharedWrites(t *testing.T) {
	const numWarps = 8
	wg := NewWorkgroup(3, numWarps, 4, numWarps*4)

	sums := make([]int32, numWarps)
	wg.Run(func(warp int) {
		smem := SharedSlice[int32](wg, 0, numWarps)
		for round := range 10 {
			smem[warp] = int32(warp * round)
			wg.Barrier()
			var s int32
			for _, v := range smem {
				s += v
			}
			sums[warp] += s
			// Nobody overwrites smem until everyone has read it.
			wg.Barrier()
		}
	})

	// sum over rounds of round * (0+1+...+7) = 45 * 28
	for w, s := range sums {
		if s != 45*28 {
			t.Errorf("warp %d saw sum %d, want %d", w, s, 45*28)
		}
	}
	if got := wg.Stats().Barriers; got != 20 {
		t.Errorf("Barriers = %d, want 20", got)
	}
	if got := wg.Thread(2, 1); got != (Thread{Block: 3, Warp: 2, Lane: 1}) {
		t.Errorf("Thread(2, 1) = %v", got)
	}
}

func TestBarrierBrokenByPanic(t *testing.T) {
	wg := NewWorkgroup(0, 4, 4, 0)
	defer func() {
		r := recover()
		if r != "boom" {
			t.Errorf("Run panicked with %v, want boom", r)
		}
	}()
	wg.Run(func(warp int) {
		if warp == 2 {
			panic("boom")
		}
		wg.Barrier()
	})
	t.Errorf("Run did not panic")
}

func TestSharedSliceBounds(t *testing.T) {
	wg := NewWorkgroup(0, 1, 4, 16)
	if got := len(SharedSlice[float64](wg, 8, 1)); got != 1 {
		t.Errorf("len = %d, want 1", got)
	}
	defer func() {
		if recover() == nil {
			t.Errorf("SharedSlice outside the arena did not panic")
		}
	}()
	SharedSlice[float64](wg, 8, 2)
}

func TestGridLaunchCoversEveryWorkgroup(t *testing.T) {
	grid := NewGrid(4)
	defer grid.Close()

	const gridSize, numWarps = 37, 3
	var visits [gridSize][numWarps]atomic.Int32
	stats, err := grid.Launch(context.Background(),
		LaunchConfig{GridSize: gridSize, NumWarps: numWarps, WarpSize: 8},
		func(wg *Workgroup, warp int) {
			visits[wg.ID()][warp].Add(1)
			wg.Barrier()
		})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	for b := range gridSize {
		for w := range numWarps {
			if got := visits[b][w].Load(); got != 1 {
				t.Errorf("workgroup %d warp %d ran %d times, want 1", b, w, got)
			}
		}
	}
	if stats.Workgroups != gridSize || stats.Barriers != gridSize {
		t.Errorf("stats = %+v, want %d workgroups and %d barriers", stats, gridSize, gridSize)
	}
}

func TestGridLaunchCancelled(t *testing.T) {
	grid := NewGrid(2)
	defer grid.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Int32
	_, err := grid.Launch(ctx, LaunchConfig{GridSize: 100, NumWarps: 1},
		func(*Workgroup, int) { ran.Add(1) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Launch error = %v, want context.Canceled", err)
	}
	if ran.Load() != 0 {
		t.Errorf("%d warps ran after cancellation", ran.Load())
	}
}

func TestGridClosedRunsInline(t *testing.T) {
	grid := NewGrid(2)
	grid.Close()
	grid.Close()

	var ran atomic.Int32
	if _, err := grid.Launch(context.Background(), LaunchConfig{GridSize: 5, NumWarps: 2},
		func(*Workgroup, int) { ran.Add(1) }); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if ran.Load() != 10 {
		t.Errorf("ran %d warps, want 10", ran.Load())
	}
}

func TestGridPanicPropagates(t *testing.T) {
	grid := NewGrid(3)
	defer grid.Close()
	defer func() {
		if r := recover(); r != "bad block" {
			t.Errorf("recovered %v, want bad block", r)
		}
	}()
	grid.Launch(context.Background(), LaunchConfig{GridSize: 10, NumWarps: 1},
		func(wg *Workgroup, _ int) {
			if wg.ID() == 7 {
				panic("bad block")
			}
		})
	t.Errorf("Launch did not panic")
}

func TestDetectHost(t *testing.T) {
	h := DetectHost()
	if h.NumCPU <= 0 || h.WarpSize != WarpSize() || h.GOARCH == "" {
		t.Errorf("DetectHost() = %+v", h)
	}
}
