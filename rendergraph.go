// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/rendergraph/compile"
	"github.com/gogpu/rendergraph/device"
	"github.com/gogpu/rendergraph/pool"
	"github.com/gogpu/rendergraph/timing"
)

// Graph errors.
var (
	// ErrGraphDisposed is returned when operating on a disposed graph.
	ErrGraphDisposed = errors.New("rendergraph: graph has been disposed")

	// ErrUnknownPass is returned when removing a pass that was never added.
	ErrUnknownPass = errors.New("rendergraph: unknown pass")
)

// Config holds configuration for creating a Graph.
type Config struct {
	// Timing enables per-pass GPU timestamp queries. The timer
	// initializes lazily on the first Execute with a device; a device
	// without timestamp support degrades to CPU-only timing.
	Timing bool

	// Timer tunes the timestamp query machinery when Timing is set.
	Timer timing.Config
}

// Graph schedules registered passes over pooled resources, once per
// frame.
//
// Registration marks the graph dirty; Execute recompiles before running
// when dirty. Execution is strictly single-threaded and frame-synchronous
// on the calling goroutine. Calling registration methods while Execute is
// in flight is undefined; callers must not do it.
type Graph struct {
	compiler *compile.Compiler
	pool     *pool.Pool
	timer    *timing.GPUTimer

	passes map[string]Pass

	compiled *compile.CompiledGraph
	dirty    bool

	timingEnabled    bool
	timerInitialized bool

	width   int
	height  int
	elapsed float64
	frame   uint64

	stats    FrameStats
	disposed bool
}

// New creates an empty render graph.
func New(config Config) *Graph {
	return &Graph{
		compiler:      compile.NewCompiler(),
		pool:          pool.New(),
		timer:         timing.New(config.Timer),
		passes:        make(map[string]Pass),
		timingEnabled: config.Timing,
		dirty:         true,
	}
}

// AddPass registers a pass. Fails if a pass with the same id exists.
func (g *Graph) AddPass(p Pass) error {
	if g.disposed {
		return ErrGraphDisposed
	}
	if err := g.compiler.AddPass(snapshot(p)); err != nil {
		return err
	}
	g.passes[p.ID()] = p
	g.dirty = true
	return nil
}

// RemovePass unregisters a pass, invoking its optional Dispose.
func (g *Graph) RemovePass(id string) error {
	if g.disposed {
		return ErrGraphDisposed
	}
	p, ok := g.passes[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPass, id)
	}
	g.compiler.RemovePass(id)
	delete(g.passes, id)
	disposePass(p)
	g.dirty = true
	return nil
}

// AddResource registers a resource with the pool and the compiler.
// A same-id resource is replaced and its targets disposed.
func (g *Graph) AddResource(config pool.ResourceConfig) {
	if g.disposed {
		return
	}
	g.pool.Register(config)
	g.compiler.AddResource(compile.ResourceDecl{ID: config.ID})
	g.dirty = true
}

// RemoveResource unregisters a resource, disposing its targets.
func (g *Graph) RemoveResource(id string) {
	if g.disposed {
		return
	}
	g.pool.Unregister(id)
	g.compiler.RemoveResource(id)
	g.dirty = true
}

// SetSize records the viewport dimensions and marks the graph dirty so
// the next compile and execute see fresh dimensions. Reallocation itself
// stays lazy.
func (g *Graph) SetSize(width, height int) {
	g.width = width
	g.height = height
	g.pool.UpdateSize(width, height)
	g.dirty = true
}

// Pool exposes the resource pool, mainly for inspection in tools and
// tests.
func (g *Graph) Pool() *pool.Pool { return g.pool }

// Compiled returns the current compiled graph, or nil before the first
// successful compile.
func (g *Graph) Compiled() *compile.CompiledGraph { return g.compiled }

// Compile builds the execution plan from the current declarations.
// Execute calls it automatically when the graph is dirty; explicit calls
// surface cycle errors early. Warnings are logged and retained on the
// compiled graph.
func (g *Graph) Compile() error {
	if g.disposed {
		return ErrGraphDisposed
	}
	compiled, err := g.compiler.Compile(compile.Options{})
	if err != nil {
		return err
	}
	for _, w := range compiled.Warnings {
		slogger().Warn("rendergraph: "+w.Message,
			"kind", w.Kind.String(), "resource", w.Resource, "pass", w.Pass)
	}
	for id := range compiled.PingPong {
		g.pool.EnablePingPong(id)
	}
	g.compiled = compiled
	g.dirty = false
	return nil
}

// Execute runs one frame: every pass in compiled order, disabled passes
// replaced by a pass-through copy, double buffers swapped once at frame
// end. scene and camera are opaque to the graph and reach passes through
// the PassContext unmodified.
//
// Returns the compile error when a recompilation was needed and failed
// (dependency cycle), or the first pass error, which aborts the frame.
func (g *Graph) Execute(dev device.Device, scene, camera any, delta float64) error {
	if g.disposed {
		return ErrGraphDisposed
	}
	// A degenerate viewport would force invalid zero-sized allocations.
	if g.width < 1 || g.height < 1 {
		return nil
	}

	g.pool.BindDevice(dev)
	if g.timingEnabled && !g.timerInitialized {
		g.timer.Initialize(dev)
		g.timerInitialized = true
	}

	g.elapsed += delta
	g.pool.UpdateSize(g.width, g.height)

	if g.dirty {
		if err := g.Compile(); err != nil {
			return err
		}
	}

	if g.timingEnabled {
		g.timer.BeginFrame()
	}

	g.frame++
	frameStart := time.Now()
	passStats := make([]PassStats, 0, len(g.compiled.Order))

	ctx := &PassContext{
		Device: dev,
		Scene:  scene,
		Camera: camera,
		Delta:  delta,
		Time:   g.elapsed,
		Width:  g.width,
		Height: g.height,
		pool:   g.pool,
	}

	for _, node := range g.compiled.Order {
		p, ok := g.passes[node.ID]
		if !ok {
			continue
		}

		start := time.Now()
		if !passEnabled(p) {
			if err := g.passThrough(dev, node); err != nil {
				return fmt.Errorf("rendergraph: pass-through for %q: %w", node.ID, err)
			}
			passStats = append(passStats, PassStats{
				ID:        node.ID,
				CPUMillis: float64(time.Since(start).Nanoseconds()) / 1e6,
				Skipped:   true,
			})
			continue
		}

		if g.timingEnabled {
			g.timer.BeginPass(node.ID)
		}
		err := p.Execute(ctx)
		if g.timingEnabled {
			g.timer.EndPass()
		}
		if err != nil {
			return fmt.Errorf("rendergraph: pass %q: %w", node.ID, err)
		}

		passStats = append(passStats, PassStats{
			ID:        node.ID,
			CPUMillis: float64(time.Since(start).Nanoseconds()) / 1e6,
			GPUMillis: g.timer.PassTime(node.ID),
		})
	}

	// Swap every double buffer exactly once, after all passes, so next
	// frame's reads see this frame's writes.
	for id := range g.compiled.PingPong {
		g.pool.Swap(id)
	}

	g.stats = FrameStats{
		Frame:         g.frame,
		CPUMillis:     float64(time.Since(frameStart).Nanoseconds()) / 1e6,
		Passes:        passStats,
		EstimatedVRAM: g.pool.EstimatedVRAM(),
	}
	return nil
}

// passThrough copies a disabled pass's first read input into its first
// write output so downstream passes still see a populated resource. With
// no readable input the output is still allocated, which keeps its
// contents defined (cleared) and correctly sized.
//
// A self-feedback pass reads and writes the same double-buffered
// resource; its pass-through copies the read half into the write half so
// the end-of-frame swap preserves last frame's output instead of
// regressing the chain by a frame. Only for single-buffered resources is
// the self-copy skipped, since source and destination are one target.
func (g *Graph) passThrough(dev device.Device, node compile.PassNode) error {
	if len(node.Writes) == 0 {
		return nil
	}
	out := node.Writes[0].Resource
	dst, err := g.pool.GetWriteTarget(out)
	if err != nil {
		if errors.Is(err, pool.ErrUnknownResource) {
			return nil
		}
		return err
	}

	for _, b := range node.Reads {
		if b.Resource == out && !g.compiled.PingPong[out] {
			continue
		}
		src, err := g.pool.GetTexture(b.Resource, 0)
		if err != nil {
			if errors.Is(err, pool.ErrUnknownResource) {
				continue
			}
			return err
		}
		return dev.CopyTargetContents(dst, src)
	}
	return nil
}

// Stats returns the statistics of the most recent frame.
func (g *Graph) Stats() FrameStats { return g.stats }

// Timer exposes the GPU timer, mainly for inspection.
func (g *Graph) Timer() *timing.GPUTimer { return g.timer }

// DebugDump renders the compiled dependency graph in Graphviz DOT format,
// compiling first if the graph is dirty. Returns the error text when
// compilation fails.
func (g *Graph) DebugDump() string {
	if g.dirty {
		if err := g.Compile(); err != nil {
			return fmt.Sprintf("// %v\n", err)
		}
	}
	if g.compiled == nil {
		return "digraph rendergraph {}\n"
	}
	return g.compiled.DOT()
}

// InvalidateForContextLoss drops all GPU object references after device
// loss. The device already destroyed its objects; nothing is disposed.
// Call Reinitialize with a fresh device before the next Execute.
func (g *Graph) InvalidateForContextLoss() {
	g.pool.InvalidateForContextLoss()
	g.timer.InvalidateForContextLoss()
	g.timerInitialized = false
}

// Reinitialize re-primes the pool and timer with a fresh device after
// context loss. Resource reallocation stays lazy and occurs naturally on
// next access.
func (g *Graph) Reinitialize(dev device.Device) {
	g.pool.Reinitialize(dev)
	if g.timingEnabled {
		g.timer.Initialize(dev)
		g.timerInitialized = true
	}
}

// Dispose releases every pass, the timer and the pool. The graph must
// not be used afterwards.
func (g *Graph) Dispose() {
	if g.disposed {
		return
	}
	for _, p := range g.passes {
		disposePass(p)
	}
	g.passes = make(map[string]Pass)
	g.timer.Dispose()
	g.pool.Dispose()
	g.compiled = nil
	g.disposed = true
}
