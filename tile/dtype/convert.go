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
	"strconv"

	"github.com/x448/float16"
)

// Converter returns a function converting values of type From to type To.
//
// The type switch happens here, once; the returned function contains no
// dispatch. Kernels call Converter when they are built and keep the result.
//
// Half precision sources are widened to float32 first, half precision
// destinations are rounded from float32 with round-to-nearest-even. All
// other pairs use a plain Go conversion.
func Converter[To, From Storage]() func(From) To {
	fromHalf, toHalf := IsHalf[From](), IsHalf[To]()
	switch {
	case !fromHalf && !toHalf:
		return func(v From) To { return To(v) }
	case fromHalf && !toHalf:
		widen := halfToFloat32[From]()
		return func(v From) To { return To(widen(v)) }
	case !fromHalf && toHalf:
		narrow := float32ToHalf[To]()
		return func(v From) To { return narrow(float32(v)) }
	}
	if Name[From]() == Name[To]() {
		// Same half type: the bit pattern is the value.
		return func(v From) To { return To(v) }
	}
	widen, narrow := halfToFloat32[From](), float32ToHalf[To]()
	return func(v From) To { return narrow(widen(v)) }
}

// Float64Converter returns a function widening T to float64, used for
// tolerance checks.
func Float64Converter[T Storage]() func(T) float64 {
	return Converter[float64, T]()
}

func halfToFloat32[T Storage]() func(T) float32 {
	var zero T
	switch any(zero).(type) {
	case Float16:
		return func(v T) float32 { return float16.Frombits(uint16(v)).Float32() }
	case BFloat16:
		return func(v T) float32 { return BFloat16FromBits(uint16(v)).Float32() }
	}
	panic("dtype: " + Name[T]() + " is not a half precision type")
}

func float32ToHalf[T Storage]() func(float32) T {
	var zero T
	switch any(zero).(type) {
	case Float16:
		return func(f float32) T { return T(float16.Fromfloat32(f).Bits()) }
	case BFloat16:
		return func(f float32) T { return T(BFloat16FromFloat32(f).Bits()) }
	}
	panic("dtype: " + Name[T]() + " is not a half precision type")
}

func formatFloat32(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
