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

package sim

// Register exchange within a warp. A warp-wide register is a slice with one
// element per lane; these operations are the simulated equivalents of
// DPP / shuffle instructions and never touch shared memory.

// ShuffleXorInto sets dst[l] = src[l^mask] for every lane l. Lanes whose
// partner is outside the warp read their own value.
//
// dst and src must not alias.
func ShuffleXorInto[T any](dst, src []T, mask int) {
	n := len(src)
	for l := range n {
		p := l ^ mask
		if p >= n {
			p = l
		}
		dst[l] = src[p]
	}
}

// Shuffle returns the register value held by srcLane.
func Shuffle[T any](src []T, srcLane int) T {
	return src[srcLane]
}
