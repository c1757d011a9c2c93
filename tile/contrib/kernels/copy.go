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

// Copy converts an M×N tensor of X into an M×N tensor of Y. With X == Y the
// output is bit-identical to the input.
type Copy[X, Y dtype.Storage] struct {
	shape *tile.Shape
	conv  func(X) Y
}

// NewCopy returns the copy kernel for shape.
func NewCopy[X, Y dtype.Storage](shape *tile.Shape) (*Copy[X, Y], error) {
	if shape == nil {
		return nil, fmt.Errorf("%w: nil shape", ErrInvalidArgument)
	}
	return &Copy[X, Y]{shape: shape, conv: dtype.Converter[Y, X]()}, nil
}

// Shape returns the kernel's tiling.
func (k *Copy[X, Y]) Shape() *tile.Shape { return k.shape }

// SmemSize returns the shared memory a workgroup needs, which is none.
func (k *Copy[X, Y]) SmemSize() int { return 0 }

// Run executes warp warpID of workgroup wg.
func (k *Copy[X, Y]) Run(wg *sim.Workgroup, warpID int, x *tile.TensorView[X], y *tile.TensorView[Y]) {
	s := k.shape
	enc := s.Encoding()
	xw := tile.OpenWindow(x, s.Block(), origin(s, wg), enc)
	yw := tile.OpenWindow(y, s.Block(), origin(s, wg), enc)
	in := tile.NewDistributedTile[X](enc)
	out := tile.NewDistributedTile[Y](enc)

	iters := s.Iterations(x.Lengths()[tile.DimN])
	for range iters {
		inside := xw.Inside()
		for lane := range s.WarpSize() {
			th := wg.Thread(warpID, lane)
			if inside {
				xw.LoadInto(th, in)
				tile.CastInto(out, in, k.conv)
				yw.Store(th, out)
				continue
			}
			xw.LoadMasked(th, in, nil)
			tile.CastInto(out, in, k.conv)
			yw.StoreMasked(th, out)
		}
		xw.Move(step(s))
		yw.Move(step(s))
	}
}

// Launch copies the m×n row-major tensor x into y.
func (k *Copy[X, Y]) Launch(ctx context.Context, g *sim.Grid, x []X, y []Y, m, n int) (sim.Stats, error) {
	if err := checkArgs(m, n, m*n, len(y), len(x)); err != nil {
		return sim.Stats{}, err
	}
	xv, yv := tile.NewTensorView(x, m, n), tile.NewTensorView(y, m, n)
	return launch(ctx, g, k.shape, m, 0, func(wg *sim.Workgroup, warp int) {
		k.Run(wg, warp, xv, yv)
	})
}
