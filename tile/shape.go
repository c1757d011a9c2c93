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

package tile

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/ajroetker/go-tile/tile/sim"
)

// ErrInvalidShape is wrapped by every error NewShape returns.
var ErrInvalidShape = errors.New("tile: invalid shape")

// Axis indices into Dims.
const (
	DimM = 0
	DimN = 1
)

var dimNames = [2]string{"M", "N"}

// Dims is an (M, N) pair: an extent, a coordinate or a count per axis.
type Dims [2]int

// Add returns d + o.
func (d Dims) Add(o Dims) Dims {
	return Dims{d[DimM] + o[DimM], d[DimN] + o[DimN]}
}

// Size returns the product of both components.
func (d Dims) Size() int {
	return d[DimM] * d[DimN]
}

// String implements fmt.Stringer.
func (d Dims) String() string {
	return fmt.Sprintf("(%d, %d)", d[DimM], d[DimN])
}

// ShapeParams are the user-supplied vectors a Shape is derived from.
type ShapeParams struct {
	WarpsPerBlock Dims // warps along M and N
	BlockTile     Dims // elements per workgroup tile
	WarpTile      Dims // elements covered by one warp in one repeat
	Vector        Dims // contiguous elements per lane access

	// WarpSize is the number of lanes per warp; 0 means sim.WarpSize().
	WarpSize int
}

// Shape is the static partition of a block tile across warps, lanes and
// vector slots:
//
//	ThreadsPerWarp[d] = WarpTile[d] / Vector[d]
//	Repeat[d]         = BlockTile[d] / (WarpsPerBlock[d] * WarpTile[d])
//	BlockSize         = WarpSize * WarpsPerBlock[M] * WarpsPerBlock[N]
//
// A Shape is immutable and safe for concurrent use. Only NewShape creates
// one, so holding a *Shape proves the divisibility invariants hold.
type Shape struct {
	params         ShapeParams
	repeat         Dims
	threadsPerWarp Dims
	blockSize      int

	encoding *Encoding
	reduced  *Encoding
}

// NewShape validates p and derives the partition. All violated invariants
// are reported together; each wraps ErrInvalidShape.
func NewShape(p ShapeParams) (*Shape, error) {
	if p.WarpSize == 0 {
		p.WarpSize = sim.WarpSize()
	}

	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidShape, fmt.Sprintf(format, args...)))
	}
	if p.WarpSize < 0 {
		bad("warp size %d is negative", p.WarpSize)
	}
	fields := []struct {
		name string
		v    Dims
	}{
		{"WarpsPerBlock", p.WarpsPerBlock},
		{"BlockTile", p.BlockTile},
		{"WarpTile", p.WarpTile},
		{"Vector", p.Vector},
	}
	for _, f := range fields {
		for d := range 2 {
			if f.v[d] <= 0 {
				bad("%s[%s] = %d must be positive", f.name, dimNames[d], f.v[d])
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	s := &Shape{params: p}
	for d := range 2 {
		if p.WarpTile[d]%p.Vector[d] != 0 {
			bad("WarpTile[%s] = %d is not a multiple of Vector[%s] = %d",
				dimNames[d], p.WarpTile[d], dimNames[d], p.Vector[d])
		}
		perRepeat := p.WarpsPerBlock[d] * p.WarpTile[d]
		if p.BlockTile[d]%perRepeat != 0 {
			bad("BlockTile[%s] = %d is not a multiple of WarpsPerBlock[%s] * WarpTile[%s] = %d",
				dimNames[d], p.BlockTile[d], dimNames[d], dimNames[d], perRepeat)
		}
		s.threadsPerWarp[d] = p.WarpTile[d] / p.Vector[d]
		s.repeat[d] = p.BlockTile[d] / perRepeat
	}
	if lanes := s.threadsPerWarp.Size(); len(errs) == 0 && lanes != p.WarpSize {
		bad("ThreadsPerWarp %v covers %d lanes, warp has %d", s.threadsPerWarp, lanes, p.WarpSize)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	numWarps := lo.Reduce(p.WarpsPerBlock[:], func(acc, w, _ int) int { return acc * w }, 1)
	s.blockSize = p.WarpSize * numWarps
	s.encoding = newEncoding(s, false)
	s.reduced = newEncoding(s, true)
	return s, nil
}

// MustShape is like NewShape but panics on error. Use it for shapes fixed in
// source code.
func MustShape(p ShapeParams) *Shape {
	s, err := NewShape(p)
	if err != nil {
		panic(err)
	}
	return s
}

// Params returns the parameters the shape was built from, with WarpSize
// resolved.
func (s *Shape) Params() ShapeParams { return s.params }

// Block returns the block tile extent (Block_M, Block_N).
func (s *Shape) Block() Dims { return s.params.BlockTile }

// Warp returns the warp tile extent.
func (s *Shape) Warp() Dims { return s.params.WarpTile }

// Vector returns the per-lane vector extent.
func (s *Shape) Vector() Dims { return s.params.Vector }

// WarpsPerBlock returns the warp grid of a workgroup.
func (s *Shape) WarpsPerBlock() Dims { return s.params.WarpsPerBlock }

// Repeat returns how many times each lane repeats along each axis.
func (s *Shape) Repeat() Dims { return s.repeat }

// ThreadsPerWarp returns the lane grid of a warp.
func (s *Shape) ThreadsPerWarp() Dims { return s.threadsPerWarp }

// WarpSize returns the number of lanes per warp.
func (s *Shape) WarpSize() int { return s.params.WarpSize }

// NumWarps returns the number of warps per workgroup.
func (s *Shape) NumWarps() int { return s.params.WarpsPerBlock.Size() }

// BlockSize returns the number of threads per workgroup.
func (s *Shape) BlockSize() int { return s.blockSize }

// Encoding returns the distribution of the full Block_M×Block_N tile.
func (s *Shape) Encoding() *Encoding { return s.encoding }

// ReducedEncoding returns the distribution of the Block_M×1 tile obtained by
// collapsing N, derived from the same scheme as Encoding.
func (s *Shape) ReducedEncoding() *Encoding { return s.reduced }

// GridSize returns the number of workgroups covering m rows.
func (s *Shape) GridSize(m int) int {
	return ceilDiv(m, s.params.BlockTile[DimM])
}

// Iterations returns the number of column sub-tiles covering n columns.
func (s *Shape) Iterations(n int) int {
	return ceilDiv(n, s.params.BlockTile[DimN])
}

// String implements fmt.Stringer.
func (s *Shape) String() string {
	return fmt.Sprintf("block %v warps %v warp %v vector %v repeat %v threads %v (%d threads)",
		s.Block(), s.WarpsPerBlock(), s.Warp(), s.Vector(), s.repeat, s.threadsPerWarp, s.blockSize)
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
