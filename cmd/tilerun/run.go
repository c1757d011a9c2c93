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
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"
	"unsafe"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ajroetker/go-tile/tile"
	"github.com/ajroetker/go-tile/tile/contrib/kernels"
	"github.com/ajroetker/go-tile/tile/contrib/reduce"
	"github.com/ajroetker/go-tile/tile/contrib/reference"
	"github.com/ajroetker/go-tile/tile/dtype"
	"github.com/ajroetker/go-tile/tile/sim"
)

// kernel is one subcommand: run builds the kernel for env's precision,
// launches it and optionally validates the result.
type kernel struct {
	short string
	run   func(ctx context.Context, e *env) (measurement, error)
}

var registry = map[string]kernel{
	"copy": {
		short: "y = x",
		run: func(ctx context.Context, e *env) (measurement, error) {
			switch e.cfg.prec {
			case "fp16":
				return runCopy[dtype.Float16](ctx, e)
			case "bf16":
				return runCopy[dtype.BFloat16](ctx, e)
			case "fp32":
				return runCopy[float32](ctx, e)
			}
			return runCopy[int32](ctx, e)
		},
	},
	"add": {
		short: "y = a + b, computed in fp32 (int32 for int32)",
		run: func(ctx context.Context, e *env) (measurement, error) {
			switch e.cfg.prec {
			case "fp16":
				return runBinary[dtype.Float16](ctx, e, kernels.NewAdd[dtype.Float16, float32, dtype.Float16], reference.Add[dtype.Float16, float32, dtype.Float16])
			case "bf16":
				return runBinary[dtype.BFloat16](ctx, e, kernels.NewAdd[dtype.BFloat16, float32, dtype.BFloat16], reference.Add[dtype.BFloat16, float32, dtype.BFloat16])
			case "fp32":
				return runBinary[float32](ctx, e, kernels.NewAdd[float32, float32, float32], reference.Add[float32, float32, float32])
			}
			return runBinary[int32](ctx, e, kernels.NewAdd[int32, int32, int32], reference.Add[int32, int32, int32])
		},
	},
	"mul": {
		short: "y = a * b element-wise, computed in fp32 (int32 for int32)",
		run: func(ctx context.Context, e *env) (measurement, error) {
			switch e.cfg.prec {
			case "fp16":
				return runBinary[dtype.Float16](ctx, e, kernels.NewMul[dtype.Float16, float32, dtype.Float16], reference.Mul[dtype.Float16, float32, dtype.Float16])
			case "bf16":
				return runBinary[dtype.BFloat16](ctx, e, kernels.NewMul[dtype.BFloat16, float32, dtype.BFloat16], reference.Mul[dtype.BFloat16, float32, dtype.BFloat16])
			case "fp32":
				return runBinary[float32](ctx, e, kernels.NewMul[float32, float32, float32], reference.Mul[float32, float32, float32])
			}
			return runBinary[int32](ctx, e, kernels.NewMul[int32, int32, int32], reference.Mul[int32, int32, int32])
		},
	},
	"reduce": {
		short: "y[m] = op over n of x[m][n]",
		run: func(ctx context.Context, e *env) (measurement, error) {
			switch e.cfg.prec {
			case "fp16":
				return runReduce[dtype.Float16, float32](ctx, e, false)
			case "bf16":
				return runReduce[dtype.BFloat16, float32](ctx, e, false)
			case "fp32":
				return runReduce[float32, float32](ctx, e, false)
			}
			return runReduce[int32, int32](ctx, e, false)
		},
	},
	"mulreduce": {
		short: "y[m] = op over n of a[m][n] * b[m][n]",
		run: func(ctx context.Context, e *env) (measurement, error) {
			switch e.cfg.prec {
			case "fp16":
				return runReduce[dtype.Float16, float32](ctx, e, true)
			case "bf16":
				return runReduce[dtype.BFloat16, float32](ctx, e, true)
			case "fp32":
				return runReduce[float32, float32](ctx, e, true)
			}
			return runReduce[int32, int32](ctx, e, true)
		},
	},
}

func kernelNames() []string {
	names := lo.Keys(registry)
	slices.Sort(names)
	return names
}

// env is what a kernel run needs besides its types.
type env struct {
	cfg   *config
	shape *tile.Shape
	grid  *sim.Grid
	rng   *rand.Rand
	log   *slog.Logger
}

// measurement is the outcome of one subcommand.
type measurement struct {
	avg      time.Duration
	bytes    int
	stats    sim.Stats
	verified bool
	checkErr error
}

func runKernel(ctx context.Context, out io.Writer, name string, k kernel, cfg *config, shape *tile.Shape) error {
	grid := sim.NewGrid(cfg.workers)
	defer grid.Close()

	e := &env{
		cfg:   cfg,
		shape: shape,
		grid:  grid,
		rng:   rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15)),
		log:   cfg.logger().With("kernel", name),
	}
	e.log.Debug("starting", "shape", shape.String(), "workers", grid.NumWorkers(), "m", cfg.m, "n", cfg.n)

	meas, err := k.run(ctx, e)
	if err != nil {
		return err
	}
	e.log.Debug("done", "workgroups", meas.stats.Workgroups, "barriers", meas.stats.Barriers,
		"shared_bytes", meas.stats.SharedBytes)

	valid := "-"
	if meas.verified {
		valid = "y"
		if meas.checkErr != nil {
			valid = "n"
		}
	}
	ms := float64(meas.avg.Nanoseconds()) / 1e6
	var gbps float64
	if meas.avg > 0 {
		gbps = float64(meas.bytes) / meas.avg.Seconds() / 1e9
	}
	title := cases.Title(language.English).String(name)
	fmt.Fprintf(out, "[%s] %s m:%d, n:%d, grid:%d, block:%d, %.4f ms, %.2f GB/s, valid:%s\n",
		cfg.prec, title, cfg.m, cfg.n, shape.GridSize(cfg.m), shape.BlockSize(), ms, gbps, valid)
	if meas.checkErr != nil {
		return fmt.Errorf("%s: validation failed: %w", name, meas.checkErr)
	}
	return nil
}

// measure runs launch warmup times untimed, then repeat times, and returns the
// average duration of the timed launches.
func (e *env) measure(ctx context.Context, launch func(context.Context) (sim.Stats, error)) (time.Duration, sim.Stats, error) {
	var stats sim.Stats
	for range e.cfg.warmup {
		if _, err := launch(ctx); err != nil {
			return 0, stats, err
		}
	}
	var total time.Duration
	for i := range e.cfg.repeat {
		start := time.Now()
		s, err := launch(ctx)
		if err != nil {
			return 0, stats, err
		}
		total += time.Since(start)
		stats = s
		e.log.Debug("launch", "repeat", i, "workgroups", s.Workgroups, "barriers", s.Barriers, "shared_bytes", s.SharedBytes)
	}
	return total / time.Duration(e.cfg.repeat), stats, nil
}

func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// randomInput returns size values of X: uniform in [-4, 4) for floats and
// small integers otherwise, so that integer products and sums stay exact.
func randomInput[X dtype.Storage](rng *rand.Rand, size int) []X {
	conv := dtype.Converter[X, float32]()
	v := make([]X, size)
	if dtype.IsFloat[X]() {
		for i := range v {
			v[i] = conv((rng.Float32()*2 - 1) * 4)
		}
		return v
	}
	for i := range v {
		v[i] = conv(float32(rng.IntN(17) - 8))
	}
	return v
}

// reduceTolerance accounts for the different association order of the
// kernel and the reference.
func reduceTolerance[Y dtype.Storage]() reference.Tolerance {
	switch {
	case dtype.IsHalf[Y]():
		return reference.Tolerance{MaxULP: 2, ATol: 1e-2, RTol: 1e-2}
	case dtype.IsFloat[Y]():
		return reference.Tolerance{ATol: 1e-2, RTol: 1e-3}
	}
	return reference.Exact
}

func runCopy[X dtype.Storage](ctx context.Context, e *env) (measurement, error) {
	m, n := e.cfg.m, e.cfg.n
	k, err := kernels.NewCopy[X, X](e.shape)
	if err != nil {
		return measurement{}, err
	}
	x := randomInput[X](e.rng, m*n)
	y := make([]X, m*n)
	avg, stats, err := e.measure(ctx, func(ctx context.Context) (sim.Stats, error) {
		return k.Launch(ctx, e.grid, x, y, m, n)
	})
	if err != nil {
		return measurement{}, err
	}
	meas := measurement{avg: avg, bytes: 2 * m * n * sizeOf[X](), stats: stats}
	if e.cfg.verify != 0 {
		meas.verified = true
		meas.checkErr = reference.CheckErr(y, x, reference.Exact)
	}
	return meas, nil
}

// binaryKernel is the launch surface Add and Mul share.
type binaryKernel[X any] interface {
	Launch(ctx context.Context, g *sim.Grid, a, b []X, y []X, m, n int) (sim.Stats, error)
}

func runBinary[X dtype.Storage, K binaryKernel[X]](
	ctx context.Context, e *env,
	build func(*tile.Shape) (K, error),
	ref func(a, b []X, m, n int) ([]X, error),
) (measurement, error) {
	m, n := e.cfg.m, e.cfg.n
	k, err := build(e.shape)
	if err != nil {
		return measurement{}, err
	}
	a, b := randomInput[X](e.rng, m*n), randomInput[X](e.rng, m*n)
	y := make([]X, m*n)
	avg, stats, err := e.measure(ctx, func(ctx context.Context) (sim.Stats, error) {
		return k.Launch(ctx, e.grid, a, b, y, m, n)
	})
	if err != nil {
		return measurement{}, err
	}
	meas := measurement{avg: avg, bytes: 3 * m * n * sizeOf[X](), stats: stats}
	if e.cfg.verify != 0 {
		want, err := ref(a, b, m, n)
		if err != nil {
			return measurement{}, err
		}
		meas.verified = true
		meas.checkErr = reference.CheckErr(y, want, reference.DefaultTolerance[X]())
	}
	return meas, nil
}

func runReduce[X dtype.Storage, C dtype.Number](ctx context.Context, e *env, product bool) (measurement, error) {
	m, n := e.cfg.m, e.cfg.n
	op, ok := reduce.ByName[C](e.cfg.op)
	if !ok {
		return measurement{}, fmt.Errorf("unknown operator %q", e.cfg.op)
	}
	var counter reduce.PhaseCounter
	a := randomInput[X](e.rng, m*n)
	y := make([]X, m)

	var (
		launch func(context.Context) (sim.Stats, error)
		want   func() ([]X, error)
		inputs = 1
	)
	if product {
		k, err := kernels.NewMulReduce[X, C, X](e.shape, op, reduce.WithObserver(&counter))
		if err != nil {
			return measurement{}, err
		}
		b := randomInput[X](e.rng, m*n)
		inputs = 2
		launch = func(ctx context.Context) (sim.Stats, error) { return k.Launch(ctx, e.grid, a, b, y, m, n) }
		want = func() ([]X, error) { return reference.MulReduce[X, C, X](a, b, m, n, op) }
	} else {
		k, err := kernels.NewReduce[X, C, X](e.shape, op, reduce.WithObserver(&counter))
		if err != nil {
			return measurement{}, err
		}
		launch = func(ctx context.Context) (sim.Stats, error) { return k.Launch(ctx, e.grid, a, y, m, n) }
		want = func() ([]X, error) { return reference.Reduce[X, C, X](a, m, n, op) }
	}

	avg, stats, err := e.measure(ctx, launch)
	if err != nil {
		return measurement{}, err
	}
	e.log.Debug("phases",
		"warp_sync", counter.Count(reduce.PhaseWarpSync),
		"cross_warp_sync", counter.Count(reduce.PhaseCrossWarpSync))

	meas := measurement{avg: avg, bytes: (inputs*m*n + m) * sizeOf[X](), stats: stats}
	if e.cfg.verify != 0 {
		ref, err := want()
		if err != nil {
			return measurement{}, err
		}
		meas.verified = true
		meas.checkErr = reference.CheckErr(y, ref, reduceTolerance[X]())
	}
	return meas, nil
}
