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

package dtype

import (
	"math"
	"math/bits"
)

// Lowest returns the smallest value of T: -Inf for floats, the minimum
// integer otherwise. It is the identity of a max reduction.
func Lowest[T Number]() T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(float32(math.Inf(-1))).(T)
	case float64:
		return any(math.Inf(-1)).(T)
	case int8:
		return any(int8(math.MinInt8)).(T)
	case int16:
		return any(int16(math.MinInt16)).(T)
	case int32:
		return any(int32(math.MinInt32)).(T)
	case int64:
		return any(int64(math.MinInt64)).(T)
	}
	// Unsigned.
	return 0
}

// Highest returns the largest value of T: +Inf for floats, the maximum
// integer otherwise. It is the identity of a min reduction.
func Highest[T Number]() T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(float32(math.Inf(1))).(T)
	case float64:
		return any(math.Inf(1)).(T)
	case int8:
		return any(int8(math.MaxInt8)).(T)
	case int16:
		return any(int16(math.MaxInt16)).(T)
	case int32:
		return any(int32(math.MaxInt32)).(T)
	case int64:
		return any(int64(math.MaxInt64)).(T)
	case uint8:
		return any(uint8(math.MaxUint8)).(T)
	case uint16:
		return any(uint16(math.MaxUint16)).(T)
	case uint32:
		return any(uint32(math.MaxUint32)).(T)
	case uint64:
		return any(uint64(math.MaxUint64)).(T)
	}
	return zero
}

// ULPDistance returns the number of representable values of T between a and
// b. Integers compare by absolute difference. NaNs are infinitely far from
// everything, including other NaNs.
func ULPDistance[T Storage](a, b T) uint64 {
	switch av := any(a).(type) {
	case Float16:
		bv := any(b).(Float16)
		if av.IsNaN() || bv.IsNaN() {
			return math.MaxUint64
		}
		return orderedDistance(signMagnitude16(av.Bits()), signMagnitude16(bv.Bits()))
	case BFloat16:
		bv := any(b).(BFloat16)
		if av.IsNaN() || bv.IsNaN() {
			return math.MaxUint64
		}
		return orderedDistance(signMagnitude16(av.Bits()), signMagnitude16(bv.Bits()))
	case float32:
		bv := any(b).(float32)
		if av != av || bv != bv {
			return math.MaxUint64
		}
		return orderedDistance(signMagnitude32(math.Float32bits(av)), signMagnitude32(math.Float32bits(bv)))
	case float64:
		bv := any(b).(float64)
		if math.IsNaN(av) || math.IsNaN(bv) {
			return math.MaxUint64
		}
		return orderedDistance(signMagnitude64(math.Float64bits(av)), signMagnitude64(math.Float64bits(bv)))
	}
	fa, fb := Float64Converter[T]()(a), Float64Converter[T]()(b)
	return uint64(math.Abs(fa - fb))
}

// signMagnitude* map a float bit pattern onto a line where adjacent
// representable values differ by one and +0 == -0.
func signMagnitude16(b uint16) int64 {
	if b&0x8000 != 0 {
		return -int64(b & 0x7FFF)
	}
	return int64(b)
}

func signMagnitude32(b uint32) int64 {
	if b&0x80000000 != 0 {
		return -int64(b & 0x7FFFFFFF)
	}
	return int64(b)
}

func signMagnitude64(b uint64) int64 {
	mag := b &^ (1 << 63)
	if b>>63 != 0 {
		return -int64(mag)
	}
	return int64(mag)
}

func orderedDistance(a, b int64) uint64 {
	if a > b {
		a, b = b, a
	}
	d, _ := bits.Sub64(uint64(b), uint64(a), 0)
	return d
}
