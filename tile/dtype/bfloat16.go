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

import "math"

// BFloat16 is the brain floating point format: a float32 with the lower 16
// mantissa bits dropped.
//
//	S | EEEEEEEE | MMMMMMM
type BFloat16 uint16

// BFloat16 special values.
const (
	BFloat16Zero BFloat16 = 0x0000
	BFloat16One  BFloat16 = 0x3F80
	BFloat16Inf  BFloat16 = 0x7F80
	BFloat16NaN  BFloat16 = 0x7FC0
)

// BFloat16FromFloat32 rounds f to the nearest BFloat16, ties to even.
// NaN inputs stay NaN with their sign preserved.
func BFloat16FromFloat32(f float32) BFloat16 {
	bits := math.Float32bits(f)
	if bits&0x7FFFFFFF > 0x7F800000 {
		return BFloat16((bits >> 16) | 0x0040)
	}
	bits += 0x7FFF + ((bits >> 16) & 1)
	return BFloat16(bits >> 16)
}

// BFloat16FromBits returns the BFloat16 with the given bit pattern.
func BFloat16FromBits(bits uint16) BFloat16 {
	return BFloat16(bits)
}

// Float32 widens b to float32. The conversion is exact.
func (b BFloat16) Float32() float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// Bits returns the raw bit pattern.
func (b BFloat16) Bits() uint16 {
	return uint16(b)
}

// IsNaN reports whether b is a NaN.
func (b BFloat16) IsNaN() bool {
	return b&0x7F80 == 0x7F80 && b&0x7F != 0
}

// IsInf reports whether b is an infinity of either sign.
func (b BFloat16) IsInf() bool {
	return b&0x7FFF == 0x7F80
}

// String formats b as its float32 value.
func (b BFloat16) String() string {
	return formatFloat32(b.Float32())
}
