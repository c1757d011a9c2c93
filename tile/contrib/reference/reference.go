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

// Package reference provides straightforward host implementations of the
// tile kernels, and the tolerance check used to validate kernel output
// against them.
//
// The implementations share the kernels' type contract: inputs of storage
// type X are converted to compute type C, combined in C, and converted to
// the output type Y. Rows are processed in parallel; within a row the
// reduction order is left to right.
package reference

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-tile/tile/contrib/reduce"
	"github.com/ajroetker/go-tile/tile/dtype"
)

// ErrSize is returned when a buffer does not hold m×n elements.
var ErrSize = errors.New("reference: buffer size does not match m×n")

// rowsPerTask is the number of rows one errgroup task handles.
const rowsPerTask = 64

func checkSize(m, n int, lens ...int) error {
	if m < 0 || n < 0 {
		return fmt.Errorf("%w: negative extent %d×%d", ErrSize, m, n)
	}
	for _, l := range lens {
		if l != m*n {
			return fmt.Errorf("%w: have %d elements, want %d×%d", ErrSize, l, m, n)
		}
	}
	return nil
}

// forRows calls fn over disjoint row ranges [lo, hi) covering [0, m).
func forRows(m int, fn func(lo, hi int)) {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for lo := 0; lo < m; lo += rowsPerTask {
		hi := min(lo+rowsPerTask, m)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// Copy returns x converted element-wise to Y.
func Copy[X, Y dtype.Storage](x []X, m, n int) ([]Y, error) {
	if err := checkSize(m, n, len(x)); err != nil {
		return nil, err
	}
	conv := dtype.Converter[Y, X]()
	y := make([]Y, len(x))
	forRows(m, func(lo, hi int) {
		for i := lo * n; i < hi*n; i++ {
			y[i] = conv(x[i])
		}
	})
	return y, nil
}

func binary[X dtype.Storage, C dtype.Number, Y dtype.Storage](a, b []X, m, n int, fn func(a, b C) C) ([]Y, error) {
	if err := checkSize(m, n, len(a), len(b)); err != nil {
		return nil, err
	}
	toC, toY := dtype.Converter[C, X](), dtype.Converter[Y, C]()
	y := make([]Y, len(a))
	forRows(m, func(lo, hi int) {
		for i := lo * n; i < hi*n; i++ {
			y[i] = toY(fn(toC(a[i]), toC(b[i])))
		}
	})
	return y, nil
}

// Add returns a+b computed in C.
func Add[X dtype.Storage, C dtype.Number, Y dtype.Storage](a, b []X, m, n int) ([]Y, error) {
	return binary[X, C, Y](a, b, m, n, func(a, b C) C { return a + b })
}

// Mul returns a*b computed in C.
func Mul[X dtype.Storage, C dtype.Number, Y dtype.Storage](a, b []X, m, n int) ([]Y, error) {
	return binary[X, C, Y](a, b, m, n, func(a, b C) C { return a * b })
}

// Reduce returns, for each of the m rows of x, op folded left to right over
// the row, starting from op's identity.
func Reduce[X dtype.Storage, C dtype.Number, Y dtype.Storage](x []X, m, n int, op reduce.Op[C]) ([]Y, error) {
	if err := checkSize(m, n, len(x)); err != nil {
		return nil, err
	}
	toC, toY := dtype.Converter[C, X](), dtype.Converter[Y, C]()
	y := make([]Y, m)
	forRows(m, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			acc := op.Identity()
			for _, v := range x[r*n : (r+1)*n] {
				acc = op.Combine(acc, toC(v))
			}
			y[r] = toY(acc)
		}
	})
	return y, nil
}

// MulReduce returns, for each row, op folded over the element-wise product
// a*b computed in C.
func MulReduce[X dtype.Storage, C dtype.Number, Y dtype.Storage](a, b []X, m, n int, op reduce.Op[C]) ([]Y, error) {
	if err := checkSize(m, n, len(a), len(b)); err != nil {
		return nil, err
	}
	toC, toY := dtype.Converter[C, X](), dtype.Converter[Y, C]()
	y := make([]Y, m)
	forRows(m, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			acc := op.Identity()
			for i := r * n; i < (r+1)*n; i++ {
				acc = op.Combine(acc, toC(a[i])*toC(b[i]))
			}
			y[r] = toY(acc)
		}
	})
	return y, nil
}
