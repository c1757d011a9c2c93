// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package sim

import (
	"context"
	"sync"
	"sync/atomic"
)

// LaunchConfig is the geometry of one kernel launch.
type LaunchConfig struct {
	GridSize    int // number of workgroups
	NumWarps    int // warps per workgroup
	WarpSize    int // lanes per warp; 0 means WarpSize()
	SharedBytes int // shared memory per workgroup
}

// Stats aggregates WorkgroupStats over a launch.
type Stats struct {
	Workgroups int
	Barriers   int
	// SharedBytes is the arena size of each workgroup.
	SharedBytes int
}

// Grid is a persistent pool of goroutines that executes the workgroups of
// kernel launches. It is created once and reused across launches.
//
// Usage:
//
//	grid := sim.NewGrid(0)
//	defer grid.Close()
//
//	stats, err := grid.Launch(ctx, cfg, func(wg *sim.Workgroup, warp int) {
//	    // kernel body for one warp
//	})
type Grid struct {
	numWorkers int
	workC      chan func()
	closeOnce  sync.Once
	closed     atomic.Bool
}

// NewGrid creates a grid backed by numWorkers goroutines. Workers are spawned
// immediately and persist until Close. If numWorkers <= 0, MaxWorkers() is
// used.
func NewGrid(numWorkers int) *Grid {
	if numWorkers <= 0 {
		numWorkers = MaxWorkers()
	}
	g := &Grid{
		numWorkers: numWorkers,
		workC:      make(chan func(), numWorkers*2),
	}
	for range numWorkers {
		go g.worker()
	}
	return g
}

func (g *Grid) worker() {
	for fn := range g.workC {
		fn()
	}
}

// NumWorkers returns the number of workers in the grid.
func (g *Grid) NumWorkers() int {
	return g.numWorkers
}

// Close shuts down the workers. Calling Close multiple times is safe; a
// closed grid runs launches on the calling goroutine.
func (g *Grid) Close() {
	g.closeOnce.Do(func() {
		g.closed.Store(true)
		close(g.workC)
	})
}

// Launch runs body for every warp of every workgroup in [0, cfg.GridSize)
// and blocks until all dispatched workgroups have finished.
//
// Workgroups are claimed by workers through an atomic counter, so their
// execution order is unspecified. Once ctx is done no further workgroups
// are started and Launch returns ctx.Err(); a workgroup that has started
// always runs to completion.
//
// A panic inside body is re-raised on the caller's goroutine.
func (g *Grid) Launch(ctx context.Context, cfg LaunchConfig, body func(wg *Workgroup, warp int)) (Stats, error) {
	if cfg.WarpSize == 0 {
		cfg.WarpSize = WarpSize()
	}
	if cfg.GridSize <= 0 {
		return Stats{}, ctx.Err()
	}

	var (
		next      atomic.Int64
		barriers  atomic.Int64
		executed  atomic.Int64
		panicOnce sync.Once
		firstErr  any
		failed    atomic.Bool
	)
	n := int64(cfg.GridSize)
	run := func() {
		defer func() {
			if r := recover(); r != nil {
				panicOnce.Do(func() { firstErr = r })
				failed.Store(true)
			}
		}()
		for !failed.Load() && ctx.Err() == nil {
			id := next.Add(1) - 1
			if id >= n {
				return
			}
			wg := NewWorkgroup(int(id), cfg.NumWarps, cfg.WarpSize, cfg.SharedBytes)
			wg.Run(func(warp int) { body(wg, warp) })
			barriers.Add(int64(wg.Stats().Barriers))
			executed.Add(1)
		}
	}

	workers := min(int64(g.numWorkers), n)
	if workers == 1 || g.closed.Load() {
		run()
	} else {
		var done sync.WaitGroup
		done.Add(int(workers))
		for range workers {
			g.workC <- func() {
				defer done.Done()
				run()
			}
		}
		done.Wait()
	}

	if firstErr != nil {
		panic(firstErr)
	}
	stats := Stats{
		Workgroups:  int(executed.Load()),
		Barriers:    int(barriers.Load()),
		SharedBytes: (cfg.SharedBytes + 7) / 8 * 8,
	}
	if executed.Load() < n {
		return stats, ctx.Err()
	}
	return stats, nil
}
