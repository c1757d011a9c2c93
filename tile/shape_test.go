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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// rowShape is the tiling of the copy and add examples: one row per
// workgroup, eight warps along N, four fp16 per lane access.
var rowShape = ShapeParams{
	WarpsPerBlock: Dims{1, 8},
	BlockTile:     Dims{1, 2048},
	WarpTile:      Dims{1, 256},
	Vector:        Dims{1, 4},
	WarpSize:      64,
}

func TestNewShapeDerived(t *testing.T) {
	s, err := NewShape(rowShape)
	require.NoError(t, err)

	if got := s.ThreadsPerWarp(); got != (Dims{1, 64}) {
		t.Errorf("ThreadsPerWarp = %v, want (1, 64)", got)
	}
	if got := s.Repeat(); got != (Dims{1, 1}) {
		t.Errorf("Repeat = %v, want (1, 1)", got)
	}
	if got := s.BlockSize(); got != 512 {
		t.Errorf("BlockSize = %d, want 512", got)
	}
	if got := s.NumWarps(); got != 8 {
		t.Errorf("NumWarps = %d, want 8", got)
	}
	if got := s.GridSize(3328); got != 3328 {
		t.Errorf("GridSize(3328) = %d, want 3328", got)
	}
	if got := s.Iterations(4096); got != 2 {
		t.Errorf("Iterations(4096) = %d, want 2", got)
	}
	if got := s.Iterations(4097); got != 3 {
		t.Errorf("Iterations(4097) = %d, want 3", got)
	}
	if got := s.Iterations(0); got != 0 {
		t.Errorf("Iterations(0) = %d, want 0", got)
	}
}

func TestNewShapeRepeats(t *testing.T) {
	s, err := NewShape(ShapeParams{
		WarpsPerBlock: Dims{2, 2},
		BlockTile:     Dims{16, 32},
		WarpTile:      Dims{4, 8},
		Vector:        Dims{2, 2},
		WarpSize:      8,
	})
	require.NoError(t, err)
	if got := s.Repeat(); got != (Dims{2, 2}) {
		t.Errorf("Repeat = %v, want (2, 2)", got)
	}
	if got := s.ThreadsPerWarp(); got != (Dims{2, 4}) {
		t.Errorf("ThreadsPerWarp = %v, want (2, 4)", got)
	}
	if got := s.BlockSize(); got != 32 {
		t.Errorf("BlockSize = %d, want 32", got)
	}
	if got := s.Encoding().NumSlots(); got != 16 {
		t.Errorf("NumSlots = %d, want 16", got)
	}
	if got := s.ReducedEncoding().NumSlots(); got != 4 {
		t.Errorf("reduced NumSlots = %d, want 4", got)
	}
}

func TestNewShapeInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *ShapeParams)
		msgs   []string
	}{
		{
			name:   "zero vector",
			mutate: func(p *ShapeParams) { p.Vector = Dims{0, 4} },
			msgs:   []string{"Vector[M] = 0"},
		},
		{
			name:   "warp tile not multiple of vector",
			mutate: func(p *ShapeParams) { p.Vector = Dims{1, 3} },
			msgs:   []string{"WarpTile[N] = 256 is not a multiple of Vector[N] = 3"},
		},
		{
			name:   "block not covered by warps",
			mutate: func(p *ShapeParams) { p.BlockTile = Dims{1, 1000} },
			msgs:   []string{"BlockTile[N] = 1000"},
		},
		{
			name:   "lanes do not fill the warp",
			mutate: func(p *ShapeParams) { p.WarpSize = 32 },
			msgs:   []string{"covers 64 lanes, warp has 32"},
		},
		{
			name: "every violation reported",
			mutate: func(p *ShapeParams) {
				p.BlockTile = Dims{3, 1000}
				p.WarpsPerBlock = Dims{2, 8}
			},
			msgs: []string{"BlockTile[M] = 3", "BlockTile[N] = 1000"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := rowShape
			tt.mutate(&p)
			s, err := NewShape(p)
			require.Error(t, err)
			require.Nil(t, s)
			if !errors.Is(err, ErrInvalidShape) {
				t.Errorf("error %v does not wrap ErrInvalidShape", err)
			}
			for _, msg := range tt.msgs {
				if !strings.Contains(err.Error(), msg) {
					t.Errorf("error %q does not mention %q", err, msg)
				}
			}
		})
	}
}

func TestMustShapePanics(t *testing.T) {
	require.Panics(t, func() {
		MustShape(ShapeParams{})
	})
}
