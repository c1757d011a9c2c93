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

// Command tilerun launches the tile kernels on the simulated grid, times
// them and validates their output against the host reference.
//
// Usage:
//
//	tilerun add --m 10240 --n 4096 --prec fp16
//	tilerun reduce --m 3328 --n 4096 --op max --v 1
//	tilerun copy --m 64 --n 100 --block 16,32 --warps 2,2 --warp-tile 4,8 --vector 2,2 --warp-size 8
//	tilerun info
//
// Environment:
//
//	TILE_WARP_SIZE    default simulated warp size (power of two, default 64)
//	TILE_MAX_WORKERS  default number of grid workers (default GOMAXPROCS)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
