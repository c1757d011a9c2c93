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
	"github.com/ajroetker/go-tile/tile/dtype"
	"github.com/ajroetker/go-tile/tile/sim"
)

// binary is the element-wise kernel shared by Add and Mul: both inputs are
// converted to C, combined with fn and converted to Y.
type binary[X dtype.Storage, C dtype.Number, Y dtype.Storage] struct {
	shape *tile.Shape
	fn    func(a, b C) C
	toC   func(X) C
	toY   func(C) Y
}

func newBinary[X dtype.Storage, C dtype.Number, Y dtype.Storage](shape *tile.Shape, fn func(a, b C) C) (binary[X, C, Y], error) {
	if shape == nil {
		return binary[X, C, Y]{}, fmt.Errorf("%w: nil shape", ErrInvalidArgument)
	}
	return binary[X, C, Y]{
		shape: shape,
		fn:    fn,
		toC:   dtype.Converter[C, X](),
		toY:   dtype.Converter[Y, C](),
	}, nil
}

// Shape returns the kernel's tiling.
func (k *binary[X, C, Y]) Shape() *tile.Shape { return k.shape }

// SmemSize returns the shared memory a workgroup needs, which is none.
func (k *binary[X, C, Y]) SmemSize() int { return 0 }

// Run executes warp warpID of workgroup wg.
func (k *binary[X, C, Y]) Run(wg *sim.Workgroup, warpID int, a, b *tile.TensorView[X], y *tile.TensorView[Y]) {
	s := k.shape
	enc := s.Encoding()
	aw := tile.OpenWindow(a, s.Block(), origin(s, wg), enc)
	bw := tile.OpenWindow(b, s.Block(), origin(s, wg), enc)
	yw := tile.OpenWindow(y, s.Block(), origin(s, wg), enc)
	at := tile.NewDistributedTile[X](enc)
	bt := tile.NewDistributedTile[X](enc)
	out := tile.NewDistributedTile[Y](enc)

	for range s.Iterations(a.Lengths()[tile.DimN]) {
		inside := aw.Inside()
		for lane := range s.WarpSize() {
			th := wg.Thread(warpID, lane)
			if inside {
				aw.LoadInto(th, at)
				bw.LoadInto(th, bt)
			} else {
				aw.LoadMasked(th, at, nil)
				bw.LoadMasked(th, bt, nil)
			}
			ad, bd, yd := at.Data(), bt.Data(), out.Data()
			for i := range yd {
				yd[i] = k.toY(k.fn(k.toC(ad[i]), k.toC(bd[i])))
			}
			if inside {
				yw.Store(th, out)
			} else {
				yw.StoreMasked(th, out)
			}
		}
		aw.Move(step(s))
		bw.Move(step(s))
		yw.Move(step(s))
	}
}

// Launch computes y from the m×n row-major tensors a and b.
func (k *binary[X, C, Y]) Launch(ctx context.Context, g *sim.Grid, a, b []X, y []Y, m, n int) (sim.Stats, error) {
	if err := checkArgs(m, n, m*n, len(y), len(a), len(b)); err != nil {
		return sim.Stats{}, err
	}
	av, bv, yv := tile.NewTensorView(a, m, n), tile.NewTensorView(b, m, n), tile.NewTensorView(y, m, n)
	return launch(ctx, g, k.shape, m, 0, func(wg *sim.Workgroup, warp int) {
		k.Run(wg, warp, av, bv, yv)
	})
}

// Add computes y = a + b in compute type C.
type Add[X dtype.Storage, C dtype.Number, Y dtype.Storage] struct {
	binary[X, C, Y]
}

// NewAdd returns the addition kernel for shape.
func NewAdd[X dtype.Storage, C dtype.Number, Y dtype.Storage](shape *tile.Shape) (*Add[X, C, Y], error) {
	b, err := newBinary[X, C, Y](shape, func(a, b C) C { return a + b })
	if err != nil {
		return nil, err
	}
	return &Add[X, C, Y]{b}, nil
}

// Mul computes the element-wise product y = a * b in compute type C.
type Mul[X dtype.Storage, C dtype.Number, Y dtype.Storage] struct {
	binary[X, C, Y]
}

// NewMul returns the multiplication kernel for shape.
func NewMul[X dtype.Storage, C dtype.Number, Y dtype.Storage](shape *tile.Shape) (*Mul[X, C, Y], error) {
	b, err := newBinary[X, C, Y](shape, func(a, b C) C { return a * b })
	if err != nil {
		return nil, err
	}
	return &Mul[X, C, Y]{b}, nil
}
