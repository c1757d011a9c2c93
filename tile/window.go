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

import "github.com/ajroetker/go-tile/tile/sim"

// Window is a fixed-extent view over a TensorView whose top-left corner can
// be moved. Threads load and store their DistributedTile through it.
//
// Load and Store do not check bounds: addressing past the tensor is the
// caller's responsibility (it reads neighbouring rows or faults). Kernels
// that sweep a runtime extent use LoadMasked and StoreMasked instead.
//
// A Window is owned by one warp and is not safe for concurrent use.
type Window[T any] struct {
	view   *TensorView[T]
	extent Dims
	origin Dims
	enc    *Encoding
}

// OpenWindow returns a window of the given extent at origin over view, using
// enc to distribute its elements.
func OpenWindow[T any](view *TensorView[T], extent, origin Dims, enc *Encoding) *Window[T] {
	return &Window[T]{view: view, extent: extent, origin: origin, enc: enc}
}

// Origin returns the current top-left coordinate.
func (w *Window[T]) Origin() Dims { return w.origin }

// Extent returns the window extent.
func (w *Window[T]) Extent() Dims { return w.extent }

// Encoding returns the window's distribution.
func (w *Window[T]) Encoding() *Encoding { return w.enc }

// View returns the underlying tensor view.
func (w *Window[T]) View() *TensorView[T] { return w.view }

// Move translates the origin by delta. Tiles loaded before the move are
// unaffected.
func (w *Window[T]) Move(delta Dims) {
	w.origin = w.origin.Add(delta)
}

// Inside reports whether the whole extent at the current origin lies inside
// the tensor, in which case the unmasked Load and Store are safe.
func (w *Window[T]) Inside() bool {
	last := w.origin.Add(Dims{w.extent[DimM] - 1, w.extent[DimN] - 1})
	return w.view.InBounds(w.origin) && w.view.InBounds(last)
}

// Load returns a new tile with the elements th owns at the current origin.
func (w *Window[T]) Load(th sim.Thread) *DistributedTile[T] {
	dst := NewDistributedTile[T](w.enc)
	w.LoadInto(th, dst)
	return dst
}

// LoadInto reads the elements th owns into dst.
func (w *Window[T]) LoadInto(th sim.Thread, dst *DistributedTile[T]) {
	wc, tc := w.enc.WarpCoord(th.Warp), w.enc.LaneCoord(th.Lane)
	for i, s := range w.enc.slots {
		p := w.origin.Add(w.enc.position(wc, tc, s))
		dst.data[i] = w.view.data[w.view.Offset(p)]
	}
}

// LoadMasked reads the elements th owns into dst. Slots outside the tensor
// extent are set to the zero value and, if valid is not nil, marked false in
// valid (which must have dst.Len() entries).
func (w *Window[T]) LoadMasked(th sim.Thread, dst *DistributedTile[T], valid []bool) {
	var zero T
	wc, tc := w.enc.WarpCoord(th.Warp), w.enc.LaneCoord(th.Lane)
	for i, s := range w.enc.slots {
		p := w.origin.Add(w.enc.position(wc, tc, s))
		ok := w.view.InBounds(p)
		if ok {
			dst.data[i] = w.view.data[w.view.Offset(p)]
		} else {
			dst.data[i] = zero
		}
		if valid != nil {
			valid[i] = ok
		}
	}
}

// Store writes the elements of src that th owns. For a reduced encoding only
// the designated replica writes.
func (w *Window[T]) Store(th sim.Thread, src *DistributedTile[T]) {
	if !w.enc.IsDesignated(th.Warp, th.Lane) {
		return
	}
	wc, tc := w.enc.WarpCoord(th.Warp), w.enc.LaneCoord(th.Lane)
	for i, s := range w.enc.slots {
		p := w.origin.Add(w.enc.position(wc, tc, s))
		w.view.data[w.view.Offset(p)] = src.data[i]
	}
}

// StoreMasked is Store restricted to slots inside the tensor extent.
func (w *Window[T]) StoreMasked(th sim.Thread, src *DistributedTile[T]) {
	if !w.enc.IsDesignated(th.Warp, th.Lane) {
		return
	}
	wc, tc := w.enc.WarpCoord(th.Warp), w.enc.LaneCoord(th.Lane)
	for i, s := range w.enc.slots {
		p := w.origin.Add(w.enc.position(wc, tc, s))
		if w.view.InBounds(p) {
			w.view.data[w.view.Offset(p)] = src.data[i]
		}
	}
}
