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
	"errors"
	"fmt"
	"math"

	"github.com/ajroetker/go-tile/tile/dtype"
)

// ErrMismatch is wrapped by the error CheckErr returns.
var ErrMismatch = errors.New("reference: values differ")

// Tolerance bounds the acceptable difference between a result and its
// reference. An element passes if any bound holds:
//
//	ULPDistance(got, want) <= MaxULP
//	|got - want| <= ATol + RTol*|want|
//
// The zero Tolerance requires identical values; NaN matches NaN.
type Tolerance struct {
	RTol   float64
	ATol   float64
	MaxULP uint64
}

// Exact requires identical results.
var Exact = Tolerance{}

// DefaultTolerance returns the tolerance for results stored in T after a
// float32 computation: one ULP of T for half precision, a relative 1e-5
// (with the same absolute floor) for wider floats, and exact for integers.
func DefaultTolerance[T dtype.Storage]() Tolerance {
	switch {
	case dtype.IsHalf[T]():
		return Tolerance{MaxULP: 1}
	case dtype.IsFloat[T]():
		return Tolerance{RTol: 1e-5, ATol: 1e-5}
	}
	return Exact
}

// CheckErr compares got against want element by element. It returns nil if
// every element is within tol, and otherwise an error wrapping ErrMismatch
// that names the number of failures and the worst one.
func CheckErr[T dtype.Storage](got, want []T, tol Tolerance) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: have %d values, want %d", ErrMismatch, len(got), len(want))
	}
	toF := dtype.Float64Converter[T]()
	var (
		failures int
		worst    = -1
		worstErr float64
	)
	for i := range got {
		g, w := toF(got[i]), toF(want[i])
		if withinTolerance(got[i], want[i], g, w, tol) {
			continue
		}
		failures++
		if d := math.Abs(g - w); worst < 0 || d > worstErr || math.IsNaN(d) {
			worst, worstErr = i, d
		}
	}
	if failures == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d outside tolerance, worst at %d: got %v, want %v (%d ulp)",
		ErrMismatch, failures, len(got), worst, toF(got[worst]), toF(want[worst]),
		dtype.ULPDistance(got[worst], want[worst]))
}

func withinTolerance[T dtype.Storage](gt, wt T, g, w float64, tol Tolerance) bool {
	if math.IsNaN(g) || math.IsNaN(w) {
		return math.IsNaN(g) && math.IsNaN(w)
	}
	if dtype.ULPDistance(gt, wt) <= tol.MaxULP {
		return true
	}
	return math.Abs(g-w) <= tol.ATol+tol.RTol*math.Abs(w)
}
