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
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-tile/tile"
	"github.com/ajroetker/go-tile/tile/contrib/kernels"
	"github.com/ajroetker/go-tile/tile/sim"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the simulated device and the default tiling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			h := sim.DetectHost()
			fmt.Fprintf(out, "Host: %s/%s, %d CPUs\n", h.GOOS, h.GOARCH, h.NumCPU)
			features := "none"
			if len(h.Features) > 0 {
				features = strings.Join(h.Features, ", ")
			}
			fmt.Fprintf(out, "CPU features: %s\n", features)
			fmt.Fprintf(out, "Grid workers: %d\n", h.MaxWorkers)
			fmt.Fprintf(out, "Warp size: %d\n", h.WarpSize)

			shape, err := tile.NewShape(kernels.RowShape)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Default tiling: %s\n", shape)
			fmt.Fprintf(out, "Kernels: %s\n", strings.Join(kernelNames(), ", "))
			return nil
		},
	}
}
