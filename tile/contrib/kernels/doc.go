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

// Package kernels implements the element-wise and row-reduction tile
// kernels on the simulated grid.
//
// Each kernel is a problem type parameterised by its storage type X, its
// compute type C and its output type Y, built once for a tile.Shape:
//
//	Copy[X, Y]            y = Y(x)
//	Add[X, C, Y]          y = Y(C(a) + C(b))
//	Mul[X, C, Y]          y = Y(C(a) * C(b))
//	Reduce[X, C, Y]       y[m] = op over n of C(x[m][n])
//	MulReduce[X, C, Y]    y[m] = op over n of C(a[m][n]) * C(b[m][n])
//
// Workgroup b owns rows [b*Block_M, (b+1)*Block_M) and sweeps them in
// Block_N-wide column tiles. Tiles that cross the edge of the tensor are
// loaded and stored masked, so any M and N are accepted.
//
// Run is the per-warp body of a kernel and can be driven by any
// sim.Workgroup; Launch validates host buffers and dispatches the whole grid.
//
// # Example Usage
//
//	shape := tile.MustShape(kernels.RowShape)
//	k, err := kernels.NewAdd[dtype.Float16, float32, dtype.Float16](shape)
//	if err != nil {
//	    return err
//	}
//	grid := sim.NewGrid(0)
//	defer grid.Close()
//	_, err = k.Launch(ctx, grid, a, b, y, m, n)
package kernels
