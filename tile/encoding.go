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

import "fmt"

// Axis is the decomposition of one logical axis of a block tile, outermost
// factor first: Repeat × Warps × Threads × Vector elements.
type Axis struct {
	Repeat  int
	Warps   int
	Threads int
	Vector  int
}

// Length returns the number of elements the axis spans.
func (a Axis) Length() int {
	return a.Repeat * a.Warps * a.Threads * a.Vector
}

// Coord returns the block-local coordinate of (repeat r, warp w, thread t,
// vector offset v) along the axis.
func (a Axis) Coord(r, w, t, v int) int {
	return ((r*a.Warps+w)*a.Threads+t)*a.Vector + v
}

// Slot names one element a thread owns: a repeat index and a vector offset
// per axis.
type Slot struct {
	Repeat Dims
	Vector Dims
}

// Encoding maps (warp id, lane id, slot) triples to block-local coordinates.
//
// Warp ids are M-major over the WarpsPerBlock grid and lane ids are M-major
// over the ThreadsPerWarp grid. A thread's slots are ordered
// (Repeat_M, Vector_M, Repeat_N, Vector_N), so the Vector_N elements of one
// run are adjacent both in the tile and in the tensor row.
//
// A reduced encoding collapses N: its tile is Block_M×1 and every
// (warp_N, thread_N) with the same (warp_M, thread_M) holds a replica of the
// same rows. Only the replica with warp_N == 0 and thread_N == 0 owns them
// for writing (IsDesignated), which keeps the ownership a bijection.
type Encoding struct {
	axes    [2]Axis
	warps   Dims
	lanes   Dims
	reduced bool
	slots   []Slot
}

// newEncoding is the single scheme both encodings of a shape come from, so a
// thread's input rows and output rows always agree.
func newEncoding(s *Shape, reduced bool) *Encoding {
	e := &Encoding{
		warps:   s.WarpsPerBlock(),
		lanes:   s.ThreadsPerWarp(),
		reduced: reduced,
	}
	for d := range 2 {
		e.axes[d] = Axis{
			Repeat:  s.repeat[d],
			Warps:   e.warps[d],
			Threads: e.lanes[d],
			Vector:  s.Vector()[d],
		}
	}
	if reduced {
		e.axes[DimN] = Axis{Repeat: 1, Warps: 1, Threads: 1, Vector: 1}
	}

	m, n := e.axes[DimM], e.axes[DimN]
	e.slots = make([]Slot, 0, m.Repeat*m.Vector*n.Repeat*n.Vector)
	for rm := range m.Repeat {
		for vm := range m.Vector {
			for rn := range n.Repeat {
				for vn := range n.Vector {
					e.slots = append(e.slots, Slot{Repeat: Dims{rm, rn}, Vector: Dims{vm, vn}})
				}
			}
		}
	}
	return e
}

// Axis returns the decomposition of axis d.
func (e *Encoding) Axis(d int) Axis { return e.axes[d] }

// Reduced reports whether N is collapsed.
func (e *Encoding) Reduced() bool { return e.reduced }

// Extent returns the tile extent the encoding covers.
func (e *Encoding) Extent() Dims {
	return Dims{e.axes[DimM].Length(), e.axes[DimN].Length()}
}

// NumSlots returns the number of elements each thread holds.
func (e *Encoding) NumSlots() int { return len(e.slots) }

// NumWarps returns the number of warps the encoding spans.
func (e *Encoding) NumWarps() int { return e.warps.Size() }

// WarpSize returns the number of lanes per warp.
func (e *Encoding) WarpSize() int { return e.lanes.Size() }

// WarpCoord returns the (M, N) position of warpID in the warp grid.
func (e *Encoding) WarpCoord(warpID int) Dims {
	return Dims{warpID / e.warps[DimN], warpID % e.warps[DimN]}
}

// LaneCoord returns the (M, N) position of laneID in the lane grid.
func (e *Encoding) LaneCoord(laneID int) Dims {
	return Dims{laneID / e.lanes[DimN], laneID % e.lanes[DimN]}
}

// SlotIndex returns the position of s in slot order.
func (e *Encoding) SlotIndex(s Slot) int {
	m, n := e.axes[DimM], e.axes[DimN]
	return ((s.Repeat[DimM]*m.Vector+s.Vector[DimM])*n.Repeat+s.Repeat[DimN])*n.Vector + s.Vector[DimN]
}

// Slots returns every slot in slot order. The same set applies to every
// thread; the caller must not modify the result.
func (e *Encoding) Slots() []Slot { return e.slots }

// OwnedCoordinates returns the (repeat index, vector offset) pairs owned by
// lane laneID of warp warpID, in slot order. Use Position to turn them into
// coordinates.
func (e *Encoding) OwnedCoordinates(warpID, laneID int) []Slot {
	e.checkThread(warpID, laneID)
	owned := make([]Slot, len(e.slots))
	copy(owned, e.slots)
	return owned
}

// Position returns the block-local (m, n) coordinate of slot s of lane
// laneID in warp warpID. For a reduced encoding n is always 0.
func (e *Encoding) Position(warpID, laneID int, s Slot) Dims {
	return e.position(e.WarpCoord(warpID), e.LaneCoord(laneID), s)
}

func (e *Encoding) position(w, t Dims, s Slot) Dims {
	var p Dims
	for d := range 2 {
		if d == DimN && e.reduced {
			continue
		}
		p[d] = e.axes[d].Coord(s.Repeat[d], w[d], t[d], s.Vector[d])
	}
	return p
}

// IsDesignated reports whether the thread owns its slots for writing. It is
// always true for a full encoding; for a reduced encoding only the N-replica
// with warp_N == 0 and thread_N == 0 is designated.
func (e *Encoding) IsDesignated(warpID, laneID int) bool {
	if !e.reduced {
		return true
	}
	return e.WarpCoord(warpID)[DimN] == 0 && e.LaneCoord(laneID)[DimN] == 0
}

func (e *Encoding) checkThread(warpID, laneID int) {
	if warpID < 0 || warpID >= e.NumWarps() || laneID < 0 || laneID >= e.WarpSize() {
		panic(fmt.Sprintf("tile: thread (warp %d, lane %d) outside %d warps x %d lanes",
			warpID, laneID, e.NumWarps(), e.WarpSize()))
	}
}
