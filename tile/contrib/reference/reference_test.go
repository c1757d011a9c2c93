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

package reference

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-tile/tile/contrib/reduce"
	"github.com/ajroetker/go-tile/tile/dtype"
)

func TestCopyConverts(t *testing.T) {
	x := []float32{0.5, -1, 65504, 1e-8}
	y, err := Copy[float32, dtype.Float16](x, 2, 2)
	require.NoError(t, err)
	want := []float32{0.5, -1, 65504, 0}
	for i, v := range y {
		if v.Float32() != want[i] {
			t.Errorf("y[%d] = %v, want %v", i, v.Float32(), want[i])
		}
	}
}

func TestAddMul(t *testing.T) {
	a := []int32{1, 2, 3, 4, 5, 6}
	b := []int32{6, 5, 4, 3, 2, 1}
	sum, err := Add[int32, int32, int32](a, b, 2, 3)
	require.NoError(t, err)
	if diff := cmp.Diff([]int32{7, 7, 7, 7, 7, 7}, sum); diff != "" {
		t.Errorf("Add mismatch (-want +got):\n%s", diff)
	}
	prod, err := Mul[int32, int64, int64](a, b, 3, 2)
	require.NoError(t, err)
	if diff := cmp.Diff([]int64{6, 10, 12, 12, 10, 6}, prod); diff != "" {
		t.Errorf("Mul mismatch (-want +got):\n%s", diff)
	}
}

func TestReduceManyRows(t *testing.T) {
	const m, n = 1000, 7
	x := make([]int32, m*n)
	for i := range x {
		x[i] = int32(i % n)
	}
	got, err := Reduce[int32, int64, int64](x, m, n, reduce.Sum[int64]())
	require.NoError(t, err)
	for r, v := range got {
		if v != 21 {
			t.Fatalf("row %d = %d, want 21", r, v)
		}
	}

	mx, err := MulReduce[int32, int32, int32](x, x, m, n, reduce.Max[int32]())
	require.NoError(t, err)
	if mx[m-1] != 36 {
		t.Errorf("MulReduce max = %d, want 36", mx[m-1])
	}

	empty, err := Reduce[float32, float32, float32](nil, 3, 0, reduce.Max[float32]())
	require.NoError(t, err)
	for _, v := range empty {
		if !math.IsInf(float64(v), -1) {
			t.Errorf("empty row max = %v, want -Inf", v)
		}
	}
}

func TestSizeErrors(t *testing.T) {
	_, err := Copy[int32, int32](make([]int32, 5), 2, 3)
	require.ErrorIs(t, err, ErrSize)
	_, err = Add[int32, int32, int32](make([]int32, 6), make([]int32, 5), 2, 3)
	require.ErrorIs(t, err, ErrSize)
	_, err = Reduce[int32, int32, int32](nil, -1, 0, reduce.Sum[int32]())
	require.ErrorIs(t, err, ErrSize)
}

func TestCheckErr(t *testing.T) {
	one := dtype.Float16(0x3C00)
	next := one + 1
	farther := one + 2

	require.NoError(t, CheckErr([]dtype.Float16{one}, []dtype.Float16{one}, Exact))
	require.ErrorIs(t, CheckErr([]dtype.Float16{next}, []dtype.Float16{one}, Exact), ErrMismatch)
	require.NoError(t, CheckErr([]dtype.Float16{next}, []dtype.Float16{one}, DefaultTolerance[dtype.Float16]()))
	require.ErrorIs(t, CheckErr([]dtype.Float16{farther}, []dtype.Float16{one}, DefaultTolerance[dtype.Float16]()), ErrMismatch)

	nan := float32(math.NaN())
	require.NoError(t, CheckErr([]float32{nan, 1}, []float32{nan, 1}, Exact))
	require.Error(t, CheckErr([]float32{nan}, []float32{1}, DefaultTolerance[float32]()))

	require.NoError(t, CheckErr([]float64{100.0001}, []float64{100}, Tolerance{RTol: 1e-5}))
	require.Error(t, CheckErr([]float64{100.01}, []float64{100}, Tolerance{RTol: 1e-5}))
	require.Error(t, CheckErr([]int32{1, 2}, []int32{1}, Exact))

	err := CheckErr([]int32{1, 5, 3, 9}, []int32{1, 2, 3, 4}, Exact)
	require.ErrorIs(t, err, ErrMismatch)
	require.Contains(t, err.Error(), "2 of 4")
	require.Contains(t, err.Error(), "worst at 3")
}
