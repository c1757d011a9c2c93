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

package kernels

import (
	"context"
	"fmt"

	"github.com/ajroetker/go-tile/tile"
	"github.com/ajroetker/go-tile/tile/contrib/reduce"
	"github.com/ajroetker/go-tile/tile/dtype"
	"github.com/ajroetker/go-tile/tile/sim"
)

// rowReduce holds what Reduce and MulReduce share: the block reduction and
// the write-back of its result through the reduced encoding.
type rowReduce[C dtype.Number, Y dtype.Storage] struct {
	shape *tile.Shape
	block *reduce.BlockReduce2D[C]
	toY   func(C) Y
}

func newRowReduce[C dtype.Number, Y dtype.Storage](shape *tile.Shape, op reduce.Op[C], opts []reduce.Option) (rowReduce[C, Y], error) {
	if shape == nil {
		return rowReduce[C, Y]{}, fmt.Errorf("%w: nil shape", ErrInvalidArgument)
	}
	block, err := reduce.New(shape, op, opts...)
	if err != nil {
		return rowReduce[C, Y]{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return rowReduce[C, Y]{shape: shape, block: block, toY: dtype.Converter[Y, C]()}, nil
}

// Shape returns the kernel's tiling.
func (r *rowReduce[C, Y]) Shape() *tile.Shape { return r.shape }

// Op returns the reduction operator.
func (r *rowReduce[C, Y]) Op() reduce.Op[C] { return r.block.Op() }

// SmemSize returns the shared memory a workgroup needs for the cross-warp
// phase.
func (r *rowReduce[C, Y]) SmemSize() int { return r.block.SmemSize() }

// finish combines the warp's accumulators across the workgroup and stores
// the rows owned by its designated lanes.
func (r *rowReduce[C, Y]) finish(wg *sim.Workgroup, warpID int, accs []*tile.DistributedTile[C], y *tile.TensorView[Y]) {
	r.block.Sync(wg, warpID, accs)

	s := r.shape
	red := s.ReducedEncoding()
	yw := tile.OpenWindow(y, tile.Dims{s.Block()[tile.DimM], 1}, origin(s, wg), red)
	inside := yw.Inside()
	out := tile.NewDistributedTile[Y](red)
	for lane, acc := range accs {
		th := wg.Thread(warpID, lane)
		tile.CastInto(out, acc, r.toY)
		if inside {
			yw.Store(th, out)
		} else {
			yw.StoreMasked(th, out)
		}
	}
}

// Reduce folds each row of an M×N tensor with a reduction operator:
// y[m] = op over n of C(x[m][n]).
type Reduce[X dtype.Storage, C dtype.Number, Y dtype.Storage] struct {
	rowReduce[C, Y]
	toC func(X) C
}

// NewReduce returns the row reduction kernel for shape and op.
func NewReduce[X dtype.Storage, C dtype.Number, Y dtype.Storage](shape *tile.Shape, op reduce.Op[C], opts ...reduce.Option) (*Reduce[X, C, Y], error) {
	r, err := newRowReduce[C, Y](shape, op, opts)
	if err != nil {
		return nil, err
	}
	return &Reduce[X, C, Y]{rowReduce: r, toC: dtype.Converter[C, X]()}, nil
}

// Run executes warp warpID of workgroup wg. Every warp of wg must run: the
// cross-warp phase synchronises on the workgroup barrier.
func (k *Reduce[X, C, Y]) Run(wg *sim.Workgroup, warpID int, x *tile.TensorView[X], y *tile.TensorView[Y]) {
	s := k.shape
	enc := s.Encoding()
	xw := tile.OpenWindow(x, s.Block(), origin(s, wg), enc)
	in := tile.NewDistributedTile[X](enc)
	comp := tile.NewDistributedTile[C](enc)
	valid := make([]bool, enc.NumSlots())
	accs := k.block.MakeWarpAccumulators()

	for range s.Iterations(x.Lengths()[tile.DimN]) {
		inside := xw.Inside()
		for lane, acc := range accs {
			th := wg.Thread(warpID, lane)
			if inside {
				xw.LoadInto(th, in)
				tile.CastInto(comp, in, k.toC)
				k.block.Fold(acc, comp, nil)
				continue
			}
			xw.LoadMasked(th, in, valid)
			tile.CastInto(comp, in, k.toC)
			k.block.Fold(acc, comp, valid)
		}
		xw.Move(step(s))
	}
	k.finish(wg, warpID, accs, y)
}

// Launch reduces the m×n row-major tensor x into the m values of y.
func (k *Reduce[X, C, Y]) Launch(ctx context.Context, g *sim.Grid, x []X, y []Y, m, n int) (sim.Stats, error) {
	if err := checkArgs(m, n, m, len(y), len(x)); err != nil {
		return sim.Stats{}, err
	}
	xv, yv := tile.NewTensorView(x, m, n), tile.NewVectorView(y, m)
	return launch(ctx, g, k.shape, m, k.SmemSize(), func(wg *sim.Workgroup, warp int) {
		k.Run(wg, warp, xv, yv)
	})
}

// MulReduce folds the element-wise product of two M×N tensors row by row:
// y[m] = op over n of C(a[m][n]) * C(b[m][n]). With Sum it is a batched dot
// product.
type MulReduce[X dtype.Storage, C dtype.Number, Y dtype.Storage] struct {
	rowReduce[C, Y]
	toC func(X) C
}

// NewMulReduce returns the product-reduction kernel for shape and op.
func NewMulReduce[X dtype.Storage, C dtype.Number, Y dtype.Storage](shape *tile.Shape, op reduce.Op[C], opts ...reduce.Option) (*MulReduce[X, C, Y], error) {
	r, err := newRowReduce[C, Y](shape, op, opts)
	if err != nil {
		return nil, err
	}
	return &MulReduce[X, C, Y]{rowReduce: r, toC: dtype.Converter[C, X]()}, nil
}

// Run executes warp warpID of workgroup wg. Every warp of wg must run.
func (k *MulReduce[X, C, Y]) Run(wg *sim.Workgroup, warpID int, a, b *tile.TensorView[X], y *tile.TensorView[Y]) {
	s := k.shape
	enc := s.Encoding()
	aw := tile.OpenWindow(a, s.Block(), origin(s, wg), enc)
	bw := tile.OpenWindow(b, s.Block(), origin(s, wg), enc)
	at := tile.NewDistributedTile[X](enc)
	bt := tile.NewDistributedTile[X](enc)
	prod := tile.NewDistributedTile[C](enc)
	valid := make([]bool, enc.NumSlots())
	accs := k.block.MakeWarpAccumulators()

	for range s.Iterations(a.Lengths()[tile.DimN]) {
		inside := aw.Inside()
		mask := valid
		if inside {
			mask = nil
		}
		for lane, acc := range accs {
			th := wg.Thread(warpID, lane)
			if inside {
				aw.LoadInto(th, at)
				bw.LoadInto(th, bt)
			} else {
				aw.LoadMasked(th, at, valid)
				bw.LoadMasked(th, bt, nil)
			}
			ad, bd, pd := at.Data(), bt.Data(), prod.Data()
			for i := range pd {
				pd[i] = k.toC(ad[i]) * k.toC(bd[i])
			}
			k.block.Fold(acc, prod, mask)
		}
		aw.Move(step(s))
		bw.Move(step(s))
	}
	k.finish(wg, warpID, accs, y)
}

// Launch reduces the product of the m×n row-major tensors a and b into the
// m values of y.
func (k *MulReduce[X, C, Y]) Launch(ctx context.Context, g *sim.Grid, a, b []X, y []Y, m, n int) (sim.Stats, error) {
	if err := checkArgs(m, n, m, len(y), len(a), len(b)); err != nil {
		return sim.Stats{}, err
	}
	av, bv, yv := tile.NewTensorView(a, m, n), tile.NewTensorView(b, m, n), tile.NewVectorView(y, m)
	return launch(ctx, g, k.shape, m, k.SmemSize(), func(wg *sim.Workgroup, warp int) {
		k.Run(wg, warp, av, bv, yv)
	})
}
