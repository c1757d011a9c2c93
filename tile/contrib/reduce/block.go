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
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/ajroetker/go-tile/tile"
	"github.com/ajroetker/go-tile/tile/sim"
)

// Phase identifies a step of the block reduction.
type Phase int

const (
	PhaseWarpSync Phase = iota
	PhaseCrossWarpSync
	numPhases
)

func (p Phase) String() string {
	switch p {
	case PhaseWarpSync:
		return "warp-sync"
	case PhaseCrossWarpSync:
		return "cross-warp-sync"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Observer is notified each time a warp executes a synchronisation phase.
// Skipped phases are not reported. Observe is called concurrently from
// every warp of every workgroup.
type Observer interface {
	Observe(block, warp int, p Phase)
}

// PhaseCounter is an Observer counting phase executions.
type PhaseCounter struct {
	counts [numPhases]atomic.Int64
}

// Observe implements Observer.
func (c *PhaseCounter) Observe(_, _ int, p Phase) {
	c.counts[p].Add(1)
}

// Count returns how many warp executions of p were observed.
func (c *PhaseCounter) Count(p Phase) int {
	return int(c.counts[p].Load())
}

// Option configures a BlockReduce2D.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver reports phase executions to o.
func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// BlockReduce2D reduces the N axis of a shape's Block_M×Block_N tile into
// its Block_M×1 reduced encoding, for compute type C.
//
// Everything that depends only on the shape (the fold slot map, the staging
// layout and its size) is computed by New; the methods only move values.
// A BlockReduce2D is immutable and shared by all warps of a launch.
type BlockReduce2D[C any] struct {
	shape    *tile.Shape
	op       Op[C]
	observer Observer

	enc, red *tile.Encoding
	// foldIndex[i] is the reduced slot that full slot i folds into.
	foldIndex []int

	lanesN, warpsN int
	butterfly      bool
	smemSize       int
}

// New returns the block reduction of shape under op.
func New[C any](shape *tile.Shape, op Op[C], opts ...Option) (*BlockReduce2D[C], error) {
	if shape == nil || op == nil {
		return nil, fmt.Errorf("reduce: nil shape or operator")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	b := &BlockReduce2D[C]{
		shape:    shape,
		op:       op,
		observer: o.observer,
		enc:      shape.Encoding(),
		red:      shape.ReducedEncoding(),
		lanesN:   shape.ThreadsPerWarp()[tile.DimN],
		warpsN:   shape.WarpsPerBlock()[tile.DimN],
	}
	b.butterfly = sim.IsPowerOfTwo(b.lanesN)
	b.foldIndex = make([]int, b.enc.NumSlots())
	for i, s := range b.enc.Slots() {
		b.foldIndex[i] = b.red.SlotIndex(tile.Slot{
			Repeat: tile.Dims{s.Repeat[tile.DimM], 0},
			Vector: tile.Dims{s.Vector[tile.DimM], 0},
		})
	}
	if b.warpsN > 1 {
		var zero C
		b.smemSize = shape.Block()[tile.DimM] * b.warpsN * int(unsafe.Sizeof(zero))
	}
	return b, nil
}

// Shape returns the shape the reduction was built for.
func (b *BlockReduce2D[C]) Shape() *tile.Shape { return b.shape }

// Op returns the reduction operator.
func (b *BlockReduce2D[C]) Op() Op[C] { return b.op }

// SmemSize returns the shared memory, in bytes, CrossWarpSync stages
// through. It is 0 when the block has a single warp along N.
func (b *BlockReduce2D[C]) SmemSize() int { return b.smemSize }

// MakeAccumulator returns a reduced-encoding tile filled with the identity.
func (b *BlockReduce2D[C]) MakeAccumulator() *tile.DistributedTile[C] {
	acc := tile.NewDistributedTile[C](b.red)
	acc.Fill(b.op.Identity())
	return acc
}

// MakeWarpAccumulators returns one accumulator per lane of a warp.
func (b *BlockReduce2D[C]) MakeWarpAccumulators() []*tile.DistributedTile[C] {
	accs := make([]*tile.DistributedTile[C], b.shape.WarpSize())
	for i := range accs {
		accs[i] = b.MakeAccumulator()
	}
	return accs
}

// Fold combines the full-encoding tile x into acc along N. Slots whose valid
// entry is false are skipped; a nil valid folds every slot.
func (b *BlockReduce2D[C]) Fold(acc, x *tile.DistributedTile[C], valid []bool) {
	dst, src := acc.Data(), x.Data()
	if valid == nil {
		for i, v := range src {
			j := b.foldIndex[i]
			dst[j] = b.op.Combine(dst[j], v)
		}
		return
	}
	for i, v := range src {
		if valid[i] {
			j := b.foldIndex[i]
			dst[j] = b.op.Combine(dst[j], v)
		}
	}
}

// WarpSync combines the accumulators of the lanes of one warp that share an
// M position. accs holds one accumulator per lane. Afterwards every such
// lane holds the same value.
func (b *BlockReduce2D[C]) WarpSync(wg *sim.Workgroup, warpID int, accs []*tile.DistributedTile[C]) {
	if b.lanesN == 1 {
		return
	}
	b.observe(wg, warpID, PhaseWarpSync)

	ws := len(accs)
	vals := make([]C, ws)
	peer := make([]C, ws)
	for j := range b.red.NumSlots() {
		for l, acc := range accs {
			vals[l] = acc.Data()[j]
		}
		if b.butterfly {
			// Lane ids are M-major, so xor masks below ThreadsPerWarp_N only
			// flip thread_N.
			for mask := 1; mask < b.lanesN; mask <<= 1 {
				sim.ShuffleXorInto(peer, vals, mask)
				for l := range vals {
					vals[l] = b.op.Combine(vals[l], peer[l])
				}
			}
		} else {
			for l := range vals {
				row := l - l%b.lanesN
				v := sim.Shuffle(vals, row)
				for k := 1; k < b.lanesN; k++ {
					v = b.op.Combine(v, sim.Shuffle(vals, row+k))
				}
				peer[l] = v
			}
			copy(vals, peer)
		}
		for l, acc := range accs {
			acc.Data()[j] = vals[l]
		}
	}
}

// CrossWarpSync combines the per-warp partial results of the warps along N.
// Every warp of the workgroup must call it. It is a no-op, with no barrier,
// when the block has a single warp along N; otherwise wg must have at least
// SmemSize bytes of shared memory.
func (b *BlockReduce2D[C]) CrossWarpSync(wg *sim.Workgroup, warpID int, accs []*tile.DistributedTile[C]) {
	if b.warpsN == 1 {
		return
	}
	b.observe(wg, warpID, PhaseCrossWarpSync)

	nOut := b.red.NumSlots()
	lanesM := b.shape.ThreadsPerWarp()[tile.DimM]
	staging := sim.SharedSlice[C](wg, 0, b.shape.Block()[tile.DimM]*b.warpsN)
	wc := b.red.WarpCoord(warpID)
	wM, wN := wc[tile.DimM], wc[tile.DimN]
	index := func(tM, j, n int) int {
		return ((wM*lanesM+tM)*nOut+j)*b.warpsN + n
	}

	for l, acc := range accs {
		tc := b.red.LaneCoord(l)
		if tc[tile.DimN] != 0 {
			continue
		}
		for j, v := range acc.Data() {
			staging[index(tc[tile.DimM], j, wN)] = v
		}
	}
	wg.Barrier()
	if wN != 0 {
		return
	}
	for l, acc := range accs {
		tM := b.red.LaneCoord(l)[tile.DimM]
		for j := range nOut {
			v := staging[index(tM, j, 0)]
			for n := 1; n < b.warpsN; n++ {
				v = b.op.Combine(v, staging[index(tM, j, n)])
			}
			acc.Data()[j] = v
		}
	}
}

// Sync runs WarpSync then CrossWarpSync.
func (b *BlockReduce2D[C]) Sync(wg *sim.Workgroup, warpID int, accs []*tile.DistributedTile[C]) {
	b.WarpSync(wg, warpID, accs)
	b.CrossWarpSync(wg, warpID, accs)
}

func (b *BlockReduce2D[C]) observe(wg *sim.Workgroup, warpID int, p Phase) {
	if b.observer != nil {
		b.observer.Observe(wg.ID(), warpID, p)
	}
}
