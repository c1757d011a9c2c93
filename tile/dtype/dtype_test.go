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
	"testing"

	"github.com/x448/float16"
)

func TestName(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Name[Float16](), "fp16"},
		{Name[BFloat16](), "bf16"},
		{Name[float32](), "fp32"},
		{Name[uint16](), "uint16"},
		{Name[int32](), "int32"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("Name = %q, want %q", tt.got, tt.want)
		}
	}
	if !IsHalf[Float16]() || !IsHalf[BFloat16]() || IsHalf[uint16]() {
		t.Errorf("IsHalf misclassifies 16-bit types")
	}
}

func TestConverterHalfWidening(t *testing.T) {
	toF32 := Converter[float32, Float16]()
	tests := []struct {
		in   Float16
		want float32
	}{
		{float16.Fromfloat32(1), 1},
		{float16.Fromfloat32(-2.5), -2.5},
		{float16.Fromfloat32(65504), 65504},
		{float16.Frombits(0x0001), float32(math.Ldexp(1, -24))},
	}
	for _, tt := range tests {
		if got := toF32(tt.in); got != tt.want {
			t.Errorf("Converter[float32, Float16](%#04x) = %v, want %v", tt.in.Bits(), got, tt.want)
		}
	}
}

func TestConverterHalfIsNotInteger(t *testing.T) {
	// 1.0 in fp16 is 0x3C00; treating it as uint16 would give 15360.
	one := float16.Fromfloat32(1)
	if got := Converter[int32, Float16]()(one); got != 1 {
		t.Errorf("Converter[int32, Float16](1.0) = %d, want 1", got)
	}
	if got := Converter[Float16, int32]()(3); got.Float32() != 3 {
		t.Errorf("Converter[Float16, int32](3) = %v, want 3", got)
	}
	if got := Converter[uint16, uint16]()(0x3C00); got != 0x3C00 {
		t.Errorf("Converter[uint16, uint16] changed the value: %#x", got)
	}
}

func TestConverterHalfToHalf(t *testing.T) {
	h := float16.Fromfloat32(1.5)
	if got := Converter[Float16, Float16]()(h); got != h {
		t.Errorf("fp16 -> fp16 = %#x, want %#x", got.Bits(), h.Bits())
	}
	if got := Converter[BFloat16, Float16]()(h); got.Float32() != 1.5 {
		t.Errorf("fp16 -> bf16 = %v, want 1.5", got)
	}
}

func TestBFloat16Rounding(t *testing.T) {
	tests := []struct {
		in   float32
		want uint16
	}{
		{1, 0x3F80},
		{-1, 0xBF80},
		{0, 0x0000},
		// 1 + 2^-8 lies exactly between two bf16 values; ties go to even.
		{1 + 1.0/256, 0x3F80},
		{1 + 3.0/256, 0x3F82},
		{float32(math.Inf(1)), 0x7F80},
	}
	for _, tt := range tests {
		if got := BFloat16FromFloat32(tt.in).Bits(); got != tt.want {
			t.Errorf("BFloat16FromFloat32(%v) = %#04x, want %#04x", tt.in, got, tt.want)
		}
	}
	if !BFloat16FromFloat32(float32(math.NaN())).IsNaN() {
		t.Errorf("NaN did not survive bf16 rounding")
	}
	if !BFloat16Inf.IsInf() || BFloat16One.IsInf() {
		t.Errorf("IsInf misclassifies values")
	}
}

func TestLimits(t *testing.T) {
	if got := Lowest[float32](); !math.IsInf(float64(got), -1) {
		t.Errorf("Lowest[float32] = %v, want -Inf", got)
	}
	if got := Lowest[int32](); got != math.MinInt32 {
		t.Errorf("Lowest[int32] = %d, want %d", got, math.MinInt32)
	}
	if got := Lowest[uint8](); got != 0 {
		t.Errorf("Lowest[uint8] = %d, want 0", got)
	}
	if got := Highest[uint16](); got != math.MaxUint16 {
		t.Errorf("Highest[uint16] = %d, want %d", got, math.MaxUint16)
	}
	if got := Highest[float64](); !math.IsInf(got, 1) {
		t.Errorf("Highest[float64] = %v, want +Inf", got)
	}
}

func TestULPDistance(t *testing.T) {
	one := float16.Fromfloat32(1)
	next := float16.Frombits(one.Bits() + 1)
	if got := ULPDistance(one, next); got != 1 {
		t.Errorf("ULPDistance(1, next) = %d, want 1", got)
	}
	negZero, posZero := float16.Frombits(0x8000), float16.Frombits(0)
	if got := ULPDistance(negZero, posZero); got != 0 {
		t.Errorf("ULPDistance(-0, +0) = %d, want 0", got)
	}
	minus := float16.Frombits(0x8001)
	plus := float16.Frombits(0x0001)
	if got := ULPDistance(minus, plus); got != 2 {
		t.Errorf("ULPDistance(-min, +min) = %d, want 2", got)
	}
	if got := ULPDistance(float32(1), math.Nextafter32(1, 2)); got != 1 {
		t.Errorf("ULPDistance[float32] = %d, want 1", got)
	}
	if got := ULPDistance(int32(-3), int32(4)); got != 7 {
		t.Errorf("ULPDistance[int32] = %d, want 7", got)
	}
	nan := float32(math.NaN())
	if got := ULPDistance(nan, nan); got != math.MaxUint64 {
		t.Errorf("ULPDistance(NaN, NaN) = %d, want MaxUint64", got)
	}
}
