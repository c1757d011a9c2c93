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

// TensorView is a 2-D view over a flat buffer: element (m, n) lives at
// data[m*strides[M] + n*strides[N]].
type TensorView[T any] struct {
	data    []T
	lengths Dims
	strides Dims
}

// NewTensorView returns a packed row-major m×n view of data.
func NewTensorView[T any](data []T, m, n int) *TensorView[T] {
	return &TensorView[T]{data: data, lengths: Dims{m, n}, strides: Dims{n, 1}}
}

// NewStridedView returns a view with explicit (row stride, element stride).
func NewStridedView[T any](data []T, lengths, strides Dims) *TensorView[T] {
	return &TensorView[T]{data: data, lengths: lengths, strides: strides}
}

// NewVectorView returns a packed view of m values as an m×1 tensor, the
// output of a row reduction.
func NewVectorView[T any](data []T, m int) *TensorView[T] {
	return &TensorView[T]{data: data, lengths: Dims{m, 1}, strides: Dims{1, 0}}
}

// Lengths returns the logical extent (M, N).
func (v *TensorView[T]) Lengths() Dims { return v.lengths }

// Strides returns (row stride, element stride).
func (v *TensorView[T]) Strides() Dims { return v.strides }

// Data returns the backing buffer.
func (v *TensorView[T]) Data() []T { return v.data }

// Offset returns the buffer index of coordinate p. It does not check bounds.
func (v *TensorView[T]) Offset(p Dims) int {
	return p[DimM]*v.strides[DimM] + p[DimN]*v.strides[DimN]
}

// InBounds reports whether p lies inside the logical extent.
func (v *TensorView[T]) InBounds(p Dims) bool {
	return p[DimM] >= 0 && p[DimM] < v.lengths[DimM] && p[DimN] >= 0 && p[DimN] < v.lengths[DimN]
}

// At returns the element at p.
func (v *TensorView[T]) At(p Dims) T {
	return v.data[v.Offset(p)]
}

// Set stores x at p.
func (v *TensorView[T]) Set(p Dims, x T) {
	v.data[v.Offset(p)] = x
}
