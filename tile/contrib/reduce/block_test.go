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

package reduce

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-tile/tile"
	"github.com/ajroetker/go-tile/tile/sim"
)

var blockShapes = map[string]tile.ShapeParams{
	"warps along N": {
		WarpsPerBlock: tile.Dims{2, 2}, BlockTile: tile.Dims{16, 32}, WarpTile: tile.Dims{4, 8}, Vector: tile.Dims{2, 2}, WarpSize: 8,
	},
	"odd lanes": {
		WarpsPerBlock: tile.Dims{1, 3}, BlockTile: tile.Dims{6, 36}, WarpTile: tile.Dims{2, 6}, Vector: tile.Dims{1, 2}, WarpSize: 6,
	},
	"single warp along N": {
		WarpsPerBlock: tile.Dims{4, 1}, BlockTile: tile.Dims{32, 8}, WarpTile: tile.Dims{4, 8}, Vector: tile.Dims{1, 2}, WarpSize: 16,
	},
	"single lane": {
		WarpsPerBlock: tile.Dims{1, 1}, BlockTile: tile.Dims{2, 8}, WarpTile: tile.Dims{1, 4}, Vector: tile.Dims{1, 4}, WarpSize: 1,
	},
}

// reduceBlock reduces the Block_M×n row-major matrix data with one
// workgroup and returns the Block_M results written by the designated lanes.
func reduceBlock[C comparable](t *testing.T, br *BlockReduce2D[C], data []C, n int) ([]C, sim.WorkgroupStats) {
	t.Helper()
	s := br.Shape()
	m := s.Block()[tile.DimM]
	view := tile.NewTensorView(data, m, n)
	out := make([]C, m)

	wg := sim.NewWorkgroup(0, s.NumWarps(), s.WarpSize(), br.SmemSize())
	wg.Run(func(warp int) {
		accs := br.MakeWarpAccumulators()
		x := tile.OpenWindow(view, s.Block(), tile.Dims{}, s.Encoding())
		for range s.Iterations(n) {
			for lane, acc := range accs {
				br.Fold(acc, x.Load(wg.Thread(warp, lane)), nil)
			}
			x.Move(tile.Dims{0, s.Block()[tile.DimN]})
		}
		br.Sync(wg, warp, accs)

		red := s.ReducedEncoding()
		if red.WarpCoord(warp)[tile.DimN] == 0 {
			// Every replica inside the combining warp agrees.
			for lane, acc := range accs {
				first := accs[lane-red.LaneCoord(lane)[tile.DimN]]
				if diff := cmp.Diff(first.Data(), acc.Data()); diff != "" {
					t.Errorf("warp %d lane %d replica differs:\n%s", warp, lane, diff)
				}
			}
		}
		y := tile.OpenWindow(tile.NewVectorView(out, m), tile.Dims{m, 1}, tile.Dims{}, red)
		for lane, acc := range accs {
			y.Store(wg.Thread(warp, lane), acc)
		}
	})
	return out, wg.Stats()
}

func TestBlockReduceSum(t *testing.T) {
	for name, p := range blockShapes {
		t.Run(name, func(t *testing.T) {
			s := tile.MustShape(p)
			br, err := New(s, Sum[int64]())
			require.NoError(t, err)

			m, n := s.Block()[tile.DimM], 3*s.Block()[tile.DimN]
			data := make([]int64, m*n)
			want := make([]int64, m)
			for r := range m {
				for c := range n {
					v := int64((r*31+c*7)%13 - 6)
					data[r*n+c] = v
					want[r] += v
				}
			}
			got, _ := reduceBlock(t, br, data, n)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("row sums mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBlockReduceMaxNegative(t *testing.T) {
	s := tile.MustShape(blockShapes["warps along N"])
	br, err := New(s, Max[float64]())
	require.NoError(t, err)

	m, n := s.Block()[tile.DimM], s.Block()[tile.DimN]
	data := make([]float64, m*n)
	want := make([]float64, m)
	for r := range m {
		want[r] = math.Inf(-1)
		for c := range n {
			v := -float64(1 + (r*17+c*5)%23)
			data[r*n+c] = v
			want[r] = max(want[r], v)
		}
	}
	got, _ := reduceBlock(t, br, data, n)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("row max mismatch (-want +got):\n%s", diff)
	}
}

func TestCrossWarpSkipped(t *testing.T) {
	s := tile.MustShape(blockShapes["single warp along N"])
	var counter PhaseCounter
	br, err := New(s, Sum[int32](), WithObserver(&counter))
	require.NoError(t, err)
	if got := br.SmemSize(); got != 0 {
		t.Errorf("SmemSize() = %d, want 0", got)
	}

	m, n := s.Block()[tile.DimM], s.Block()[tile.DimN]
	data := make([]int32, m*n)
	for i := range data {
		data[i] = 1
	}
	got, stats := reduceBlock(t, br, data, n)
	for r, v := range got {
		if v != int32(n) {
			t.Fatalf("row %d = %d, want %d", r, v, n)
		}
	}
	if stats.Barriers != 0 || stats.SharedBytes != 0 {
		t.Errorf("stats = %+v, want no barrier and no shared memory", stats)
	}
	if got := counter.Count(PhaseCrossWarpSync); got != 0 {
		t.Errorf("cross-warp phase ran %d times, want 0", got)
	}
	if got, want := counter.Count(PhaseWarpSync), s.NumWarps(); got != want {
		t.Errorf("warp phase ran %d times, want %d", got, want)
	}
}

func TestCrossWarpRuns(t *testing.T) {
	s := tile.MustShape(blockShapes["warps along N"])
	var counter PhaseCounter
	br, err := New(s, Sum[int32](), WithObserver(&counter))
	require.NoError(t, err)
	if got, want := br.SmemSize(), 16*2*4; got != want {
		t.Errorf("SmemSize() = %d, want %d", got, want)
	}

	m, n := s.Block()[tile.DimM], s.Block()[tile.DimN]
	_, stats := reduceBlock(t, br, make([]int32, m*n), n)
	if stats.Barriers != 1 {
		t.Errorf("stats.Barriers = %d, want 1", stats.Barriers)
	}
	if got, want := counter.Count(PhaseCrossWarpSync), s.NumWarps(); got != want {
		t.Errorf("cross-warp phase ran %d times, want %d", got, want)
	}
}

func TestFoldMasked(t *testing.T) {
	s := tile.MustShape(blockShapes["single lane"])
	br, err := New(s, Sum[int32]())
	require.NoError(t, err)

	x := tile.NewDistributedTile[int32](s.Encoding())
	x.Fill(1)
	valid := make([]bool, x.Len())
	for i, sl := range s.Encoding().Slots() {
		// Keep the first repeat along N only.
		valid[i] = sl.Repeat[tile.DimN] == 0
	}
	acc := br.MakeAccumulator()
	br.Fold(acc, x, valid)
	if diff := cmp.Diff([]int32{4, 4}, acc.Data()); diff != "" {
		t.Errorf("masked fold mismatch (-want +got):\n%s", diff)
	}
}

func TestOps(t *testing.T) {
	tests := []struct {
		name     string
		op       Op[float32]
		identity float32
		a, b     float32
		want     float32
	}{
		{"sum", Sum[float32](), 0, 2, 3, 5},
		{"prod", Prod[float32](), 1, 2, 3, 6},
		{"max", Max[float32](), float32(math.Inf(-1)), -2, -3, -2},
		{"min", Min[float32](), float32(math.Inf(1)), -2, -3, -3},
		{"func", Func[float32]{Ident: 7, Fn: func(a, b float32) float32 { return a - b }}, 7, 2, 3, -1},
	}
	for _, tt := range tests {
		if got := tt.op.Identity(); got != tt.identity {
			t.Errorf("%s: Identity() = %v, want %v", tt.name, got, tt.identity)
		}
		if got := tt.op.Combine(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: Combine(%v, %v) = %v, want %v", tt.name, tt.a, tt.b, got, tt.want)
		}
	}

	for _, name := range Names {
		if _, ok := ByName[int32](name); !ok {
			t.Errorf("ByName(%q) not found", name)
		}
	}
	if _, ok := ByName[int32]("mean"); ok {
		t.Errorf("ByName(\"mean\") found")
	}
	if got := Max[int8]().Identity(); got != math.MinInt8 {
		t.Errorf("Max[int8] identity = %d, want %d", got, math.MinInt8)
	}
}
