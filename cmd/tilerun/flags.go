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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ajroetker/go-tile/tile"
	"github.com/ajroetker/go-tile/tile/contrib/kernels"
	"github.com/ajroetker/go-tile/tile/contrib/reduce"
)

// config holds the flags shared by every kernel subcommand.
type config struct {
	m, n     int
	verify   int
	prec     string
	warmup   int
	repeat   int
	workers  int
	op       string
	seed     uint64
	verbose  bool
	warps    []int
	block    []int
	warpTile []int
	vector   []int
	warpSize int
}

var precisions = []string{"fp16", "bf16", "fp32", "int32"}

func (c *config) addFlags(fs *pflag.FlagSet) {
	def := kernels.RowShape
	fs.IntVar(&c.m, "m", 3328, "number of rows")
	fs.IntVar(&c.n, "n", 4096, "number of columns")
	fs.IntVar(&c.verify, "v", 1, "validate against the host reference (0: no, 1: yes)")
	fs.StringVar(&c.prec, "prec", "fp16", "storage precision ("+strings.Join(precisions, ", ")+")")
	fs.IntVar(&c.warmup, "warmup", 5, "untimed launches before measuring")
	fs.IntVar(&c.repeat, "repeat", 20, "timed launches")
	fs.IntVar(&c.workers, "workers", 0, "grid workers (0: TILE_MAX_WORKERS or GOMAXPROCS)")
	fs.StringVar(&c.op, "op", "sum", "reduction operator ("+strings.Join(reduce.Names, ", ")+")")
	fs.Uint64Var(&c.seed, "seed", 1, "input data seed")
	fs.BoolVar(&c.verbose, "verbose", false, "log launch details")
	fs.IntSliceVar(&c.warps, "warps", def.WarpsPerBlock[:], "warps per block (M,N)")
	fs.IntSliceVar(&c.block, "block", def.BlockTile[:], "block tile (M,N)")
	fs.IntSliceVar(&c.warpTile, "warp-tile", def.WarpTile[:], "warp tile (M,N)")
	fs.IntSliceVar(&c.vector, "vector", def.Vector[:], "vector (M,N)")
	fs.IntVar(&c.warpSize, "warp-size", def.WarpSize, "lanes per warp (0: TILE_WARP_SIZE)")
}

func (c *config) validate() error {
	if !slices.Contains(precisions, c.prec) {
		return fmt.Errorf("unknown precision %q, want one of %s", c.prec, strings.Join(precisions, ", "))
	}
	if !slices.Contains(reduce.Names, c.op) {
		return fmt.Errorf("unknown operator %q, want one of %s", c.op, strings.Join(reduce.Names, ", "))
	}
	if c.repeat < 1 || c.warmup < 0 {
		return fmt.Errorf("--repeat must be positive and --warmup non-negative")
	}
	return nil
}

// shape builds the tiling from the shape flags.
func (c *config) shape() (*tile.Shape, error) {
	dims := map[string][]int{"warps": c.warps, "block": c.block, "warp-tile": c.warpTile, "vector": c.vector}
	bad := lo.PickBy(dims, func(_ string, v []int) bool { return len(v) != 2 })
	if len(bad) > 0 {
		keys := lo.Keys(bad)
		slices.Sort(keys)
		return nil, fmt.Errorf("flags --%s take exactly two values (M,N)", strings.Join(keys, ", --"))
	}
	toDims := func(v []int) tile.Dims { return tile.Dims{v[0], v[1]} }
	return tile.NewShape(tile.ShapeParams{
		WarpsPerBlock: toDims(c.warps),
		BlockTile:     toDims(c.block),
		WarpTile:      toDims(c.warpTile),
		Vector:        toDims(c.vector),
		WarpSize:      c.warpSize,
	})
}

func (c *config) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tilerun",
		Short:         "Run tile kernels on the simulated grid",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	for _, name := range kernelNames() {
		root.AddCommand(newKernelCommand(name, registry[name]))
	}
	root.AddCommand(newInfoCommand())
	return root
}

func newKernelCommand(name string, k kernel) *cobra.Command {
	cfg := &config{}
	cmd := &cobra.Command{
		Use:   name,
		Short: k.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			shape, err := cfg.shape()
			if err != nil {
				return err
			}
			return runKernel(cmd.Context(), cmd.OutOrStdout(), name, k, cfg, shape)
		},
	}
	cfg.addFlags(cmd.Flags())
	return cmd
}
