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

// Package dtype defines the scalar types tensors are stored and computed in.
//
// Kernels distinguish three roles for a scalar type, following the
// X / Compute / Y split of a tile problem:
//
//   - Storage: any type a tensor buffer may hold, including the 16-bit
//     floating point formats Float16 and BFloat16.
//   - Number: a type arithmetic is performed in. Half precision values are
//     always widened to a Number before use.
//
// Conversions between roles are resolved once, when a kernel is built, with
// Converter.
package dtype

import "github.com/x448/float16"

// Float16 is IEEE 754 binary16, the fp16 storage type.
type Float16 = float16.Float16

// Floats is a constraint for floating-point compute types.
type Floats interface {
	float32 | float64
}

// SignedInts is a constraint for signed integer types.
type SignedInts interface {
	int8 | int16 | int32 | int64
}

// UnsignedInts is a constraint for unsigned integer types.
type UnsignedInts interface {
	uint8 | uint16 | uint32 | uint64
}

// Integers is a constraint for all integer types.
type Integers interface {
	SignedInts | UnsignedInts
}

// Number is a constraint for the types arithmetic can be performed in.
//
// The terms are exact types, not ~T: Float16 and BFloat16 are defined over
// uint16 and must never be treated as integers.
type Number interface {
	Floats | Integers
}

// Storage is a constraint for every type a tensor buffer may hold.
type Storage interface {
	Number | Float16 | BFloat16
}

// Name returns a short name for T, such as "fp16" or "int32".
func Name[T Storage]() string {
	var zero T
	switch any(zero).(type) {
	case Float16:
		return "fp16"
	case BFloat16:
		return "bf16"
	case float32:
		return "fp32"
	case float64:
		return "fp64"
	case int8:
		return "int8"
	case int16:
		return "int16"
	case int32:
		return "int32"
	case int64:
		return "int64"
	case uint8:
		return "uint8"
	case uint16:
		return "uint16"
	case uint32:
		return "uint32"
	case uint64:
		return "uint64"
	}
	return "unknown"
}

// IsHalf reports whether T is one of the 16-bit floating point formats.
func IsHalf[T Storage]() bool {
	var zero T
	switch any(zero).(type) {
	case Float16, BFloat16:
		return true
	}
	return false
}

// IsFloat reports whether T holds floating point values (including halves).
func IsFloat[T Storage]() bool {
	var zero T
	switch any(zero).(type) {
	case Float16, BFloat16, float32, float64:
		return true
	}
	return false
}
