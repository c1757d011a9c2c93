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

package reduce

import "github.com/ajroetker/go-tile/tile/dtype"

// Op is a reduction operator: an associative binary combine with an identity
// element. The two-phase reduction relies on associativity only for
// correctness and on commutativity for every replica of a row to hold the
// same bits.
type Op[C any] interface {
	Identity() C
	Combine(a, b C) C
}

type sumOp[C dtype.Number] struct{}

func (sumOp[C]) Identity() C      { return 0 }
func (sumOp[C]) Combine(a, b C) C { return a + b }
func (sumOp[C]) String() string   { return "sum" }

type prodOp[C dtype.Number] struct{}

func (prodOp[C]) Identity() C      { return 1 }
func (prodOp[C]) Combine(a, b C) C { return a * b }
func (prodOp[C]) String() string   { return "prod" }

type maxOp[C dtype.Number] struct{}

func (maxOp[C]) Identity() C      { return dtype.Lowest[C]() }
func (maxOp[C]) Combine(a, b C) C { return max(a, b) }
func (maxOp[C]) String() string   { return "max" }

type minOp[C dtype.Number] struct{}

func (minOp[C]) Identity() C      { return dtype.Highest[C]() }
func (minOp[C]) Combine(a, b C) C { return min(a, b) }
func (minOp[C]) String() string   { return "min" }

// Sum returns the addition operator, identity 0.
func Sum[C dtype.Number]() Op[C] { return sumOp[C]{} }

// Prod returns the multiplication operator, identity 1.
func Prod[C dtype.Number]() Op[C] { return prodOp[C]{} }

// Max returns the maximum operator. Its identity is the lowest value of C
// (-Inf for floats), so rows of negative values reduce correctly.
//
// NaN propagates, following the builtin max.
func Max[C dtype.Number]() Op[C] { return maxOp[C]{} }

// Min returns the minimum operator, identity the highest value of C.
func Min[C dtype.Number]() Op[C] { return minOp[C]{} }

// Func adapts an arbitrary combine function and its identity to Op.
//
// Example:
//
//	or := reduce.Func[uint32]{
//	    Ident: 0,
//	    Fn:    func(a, b uint32) uint32 { return a | b },
//	}
type Func[C any] struct {
	Ident C
	Fn    func(a, b C) C
}

// Identity implements Op.
func (f Func[C]) Identity() C { return f.Ident }

// Combine implements Op.
func (f Func[C]) Combine(a, b C) C { return f.Fn(a, b) }

// ByName returns the built-in operator called name: "sum", "prod", "max" or
// "min".
func ByName[C dtype.Number](name string) (Op[C], bool) {
	switch name {
	case "sum":
		return Sum[C](), true
	case "prod":
		return Prod[C](), true
	case "max":
		return Max[C](), true
	case "min":
		return Min[C](), true
	}
	return nil, false
}

// Names lists the operators ByName knows.
var Names = []string{"sum", "prod", "max", "min"}
