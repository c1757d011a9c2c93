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
	"errors"
	"fmt"

	"github.com/ajroetker/go-tile/tile"
	"github.com/ajroetker/go-tile/tile/sim"
)

// ErrInvalidArgument is returned by Launch when the runtime arguments do
// not describe the buffers.
var ErrInvalidArgument = errors.New("kernels: invalid argument")

// RowShape is the default tiling for row-major streaming kernels: one row
// per workgroup, eight warps of 64 lanes, four-wide vector accesses.
var RowShape = tile.ShapeParams{
	WarpsPerBlock: tile.Dims{1, 8},
	BlockTile:     tile.Dims{1, 2048},
	WarpTile:      tile.Dims{1, 256},
	Vector:        tile.Dims{1, 4},
	WarpSize:      64,
}

// checkArgs verifies that m and n are valid and that every input buffer
// holds m×n elements. out is the minimum length of the output buffer.
func checkArgs(m, n, out, outLen int, inLens ...int) error {
	if m < 0 || n < 0 {
		return fmt.Errorf("%w: negative extent %d×%d", ErrInvalidArgument, m, n)
	}
	for i, l := range inLens {
		if l < m*n {
			return fmt.Errorf("%w: input %d holds %d elements, need %d×%d", ErrInvalidArgument, i, l, m, n)
		}
	}
	if outLen < out {
		return fmt.Errorf("%w: output holds %d elements, need %d", ErrInvalidArgument, outLen, out)
	}
	return nil
}

// launch runs body over the grid of workgroups covering m rows.
func launch(ctx context.Context, g *sim.Grid, s *tile.Shape, m, smem int, body func(wg *sim.Workgroup, warp int)) (sim.Stats, error) {
	return g.Launch(ctx, sim.LaunchConfig{
		GridSize:    s.GridSize(m),
		NumWarps:    s.NumWarps(),
		WarpSize:    s.WarpSize(),
		SharedBytes: smem,
	}, body)
}

// origin returns the top-left corner of workgroup wg's rows.
func origin(s *tile.Shape, wg *sim.Workgroup) tile.Dims {
	return tile.Dims{wg.ID() * s.Block()[tile.DimM], 0}
}

// step is the window move between column tiles.
func step(s *tile.Shape) tile.Dims {
	return tile.Dims{0, s.Block()[tile.DimN]}
}
