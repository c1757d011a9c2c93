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

// DistributedTile holds the elements one thread owns under an encoding, one
// per slot, in slot order. It is thread-local: it is never shared between
// lanes, and a loaded tile is an independent copy of the tensor data.
type DistributedTile[T any] struct {
	enc  *Encoding
	data []T
}

// NewDistributedTile returns a zeroed tile for enc.
func NewDistributedTile[T any](enc *Encoding) *DistributedTile[T] {
	return &DistributedTile[T]{enc: enc, data: make([]T, enc.NumSlots())}
}

// Encoding returns the tile's encoding.
func (t *DistributedTile[T]) Encoding() *Encoding { return t.enc }

// Len returns the number of slots.
func (t *DistributedTile[T]) Len() int { return len(t.data) }

// Data returns the slots in slot order. Index i corresponds to
// Encoding().Slots()[i].
func (t *DistributedTile[T]) Data() []T { return t.data }

// At returns the value in slot s.
func (t *DistributedTile[T]) At(s Slot) T { return t.data[t.enc.SlotIndex(s)] }

// Set stores v in slot s.
func (t *DistributedTile[T]) Set(s Slot, v T) { t.data[t.enc.SlotIndex(s)] = v }

// Fill sets every slot to v.
func (t *DistributedTile[T]) Fill(v T) {
	for i := range t.data {
		t.data[i] = v
	}
}

// CopyFrom copies the slots of src, which must share t's encoding.
func (t *DistributedTile[T]) CopyFrom(src *DistributedTile[T]) {
	copy(t.data, src.data)
}

// Cast returns a new tile holding conv applied to every slot of src.
func Cast[To, From any](src *DistributedTile[From], conv func(From) To) *DistributedTile[To] {
	dst := NewDistributedTile[To](src.enc)
	CastInto(dst, src, conv)
	return dst
}

// CastInto writes conv(src) into dst slot by slot. Both tiles must have the
// same number of slots.
func CastInto[To, From any](dst *DistributedTile[To], src *DistributedTile[From], conv func(From) To) {
	for i, v := range src.data {
		dst.data[i] = conv(v)
	}
}
