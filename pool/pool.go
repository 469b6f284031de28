// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pool owns the GPU-resident render targets of a render graph.
//
// Allocation is lazy: registering a resource records configuration only,
// and the first access allocates a target sized by the resource's policy
// against the current viewport. When the computed dimensions change the
// stale target is disposed and a fresh one allocated on next access.
// Double-buffered resources keep two identically configured targets and
// swap halves once per frame.
package pool

import (
	"errors"
	"fmt"

	"github.com/gogpu/rendergraph/device"
)

// Pool errors.
var (
	// ErrUnknownResource is returned when resolving an unregistered id.
	ErrUnknownResource = errors.New("pool: unknown resource")

	// ErrNoDevice is returned when allocation is needed before a device
	// has been bound.
	ErrNoDevice = errors.New("pool: no device bound")

	// ErrPoolDisposed is returned when operating on a disposed pool.
	ErrPoolDisposed = errors.New("pool: pool has been disposed")
)

// entry pairs a resource configuration with up to two live targets.
// The two ping-pong halves, when present, are always identically
// configured and identically sized.
type entry struct {
	config   ResourceConfig
	targets  [2]device.Target
	pingPong bool
	index    int // read half; the write half is 1-index
	lastW    int
	lastH    int
}

// Pool resolves resource identifiers to live render targets.
//
// Pool is NOT safe for concurrent use; it follows the render graph's
// single-threaded execution contract. Resolved targets are valid for the
// current frame only and must not be cached across frames, since resize
// or device loss invalidates them.
type Pool struct {
	dev       device.Device
	entries   map[string]*entry
	order     []string
	viewportW int
	viewportH int
	disposed  bool
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{entries: make(map[string]*entry)}
}

// BindDevice sets the device used for allocations. Called by the
// orchestrator each frame; rebinding a different device does not migrate
// existing targets, so callers invalidate on device change.
func (p *Pool) BindDevice(dev device.Device) {
	p.dev = dev
}

// Register records a resource configuration. An existing entry with the
// same id is disposed and replaced.
func (p *Pool) Register(config ResourceConfig) {
	if p.disposed {
		return
	}
	if old, ok := p.entries[config.ID]; ok {
		p.disposeEntry(old)
		delete(p.entries, config.ID)
		for i, id := range p.order {
			if id == config.ID {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
	}
	p.entries[config.ID] = &entry{config: config}
	p.order = append(p.order, config.ID)
	slogger().Debug("pool: registered resource",
		"id", config.ID, "kind", config.Kind.String(), "size", config.Size.String())
}

// Unregister disposes and removes a resource. Unknown ids are ignored.
func (p *Pool) Unregister(id string) {
	e, ok := p.entries[id]
	if !ok {
		return
	}
	p.disposeEntry(e)
	delete(p.entries, id)
	for i, oid := range p.order {
		if oid == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Registered reports whether a resource with the given id exists.
func (p *Pool) Registered(id string) bool {
	_, ok := p.entries[id]
	return ok
}

// Config returns the configuration of a registered resource.
func (p *Pool) Config(id string) (ResourceConfig, bool) {
	e, ok := p.entries[id]
	if !ok {
		return ResourceConfig{}, false
	}
	return e.config, true
}

// UpdateSize records the viewport dimensions used by screen-relative and
// fractional resources. It does not reallocate; stale targets are
// replaced lazily on next access.
func (p *Pool) UpdateSize(width, height int) {
	p.viewportW = width
	p.viewportH = height
}

// EnablePingPong marks a resource as double-buffered. The second half is
// created lazily on next access.
func (p *Pool) EnablePingPong(id string) {
	if e, ok := p.entries[id]; ok {
		e.pingPong = true
	}
}

// Get resolves the resource's current write target, allocating if needed.
// For single-buffered resources this is the only target.
func (p *Pool) Get(id string) (device.Target, error) {
	return p.GetWriteTarget(id)
}

// GetReadTarget resolves the half holding the previous frame's output.
func (p *Pool) GetReadTarget(id string) (device.Target, error) {
	e, err := p.resolve(id)
	if err != nil {
		return nil, err
	}
	return e.targets[e.index], nil
}

// GetWriteTarget resolves the half being written this frame.
func (p *Pool) GetWriteTarget(id string) (device.Target, error) {
	e, err := p.resolve(id)
	if err != nil {
		return nil, err
	}
	if e.pingPong {
		return e.targets[1-e.index], nil
	}
	return e.targets[0], nil
}

// GetTexture resolves one color attachment of the read half for sampling.
func (p *Pool) GetTexture(id string, attachment int) (device.Texture, error) {
	t, err := p.GetReadTarget(id)
	if err != nil {
		return nil, err
	}
	tex := t.Texture(attachment)
	if tex == nil {
		return nil, fmt.Errorf("%w: resource %q attachment %d",
			device.ErrAttachmentOutOfRange, id, attachment)
	}
	return tex, nil
}

// Swap flips the read and write halves of a double-buffered resource so
// the next frame reads this frame's output. Callers swap exactly once per
// frame, after the write half has been produced. Swapping twice returns
// the halves to their original roles. No-op for single-buffered
// resources.
func (p *Pool) Swap(id string) {
	e, ok := p.entries[id]
	if !ok || !e.pingPong {
		return
	}
	e.index = 1 - e.index
}

// resolve looks up an entry and ensures its targets are allocated at the
// dimensions its sizing policy currently computes.
func (p *Pool) resolve(id string) (*entry, error) {
	if p.disposed {
		return nil, ErrPoolDisposed
	}
	e, ok := p.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, id)
	}
	if err := p.ensureAllocated(e); err != nil {
		return nil, err
	}
	return e, nil
}

// ensureAllocated (re)creates the entry's targets when missing or stale.
// On allocation failure the entry rolls back to the null state so the
// next frame retries cleanly, and the error is returned to the caller.
func (p *Pool) ensureAllocated(e *entry) error {
	w, h := e.config.Size.Resolve(p.viewportW, p.viewportH)

	stale := e.targets[0] == nil || w != e.lastW || h != e.lastH
	needSwapHalf := e.pingPong && e.targets[1] == nil
	if !stale && !needSwapHalf {
		return nil
	}

	if p.dev == nil {
		return fmt.Errorf("%w: resource %q", ErrNoDevice, e.config.ID)
	}

	if stale {
		p.disposeEntry(e)
	}

	desc := e.config.descriptor(w, h)
	if e.targets[0] == nil {
		t, err := p.dev.CreateTarget(desc)
		if err != nil {
			p.rollback(e)
			return fmt.Errorf("pool: allocating %q: %w", e.config.ID, err)
		}
		e.targets[0] = t
	}
	if e.pingPong && e.targets[1] == nil {
		desc.Label = e.config.ID + ".swap"
		t, err := p.dev.CreateTarget(desc)
		if err != nil {
			p.rollback(e)
			return fmt.Errorf("pool: allocating %q swap half: %w", e.config.ID, err)
		}
		e.targets[1] = t
	}

	e.lastW, e.lastH = w, h
	slogger().Debug("pool: allocated resource",
		"id", e.config.ID, "width", w, "height", h, "pingpong", e.pingPong)
	return nil
}

// rollback disposes any half-constructed targets and clears the cached
// dimensions so the next access retries from scratch.
func (p *Pool) rollback(e *entry) {
	for i, t := range e.targets {
		if t != nil {
			t.Destroy()
			e.targets[i] = nil
		}
	}
	e.lastW, e.lastH = 0, 0
}

// disposeEntry destroys the entry's live targets, keeping configuration.
func (p *Pool) disposeEntry(e *entry) {
	for i, t := range e.targets {
		if t != nil {
			t.Destroy()
			e.targets[i] = nil
		}
	}
	e.lastW, e.lastH = 0, 0
	e.index = 0
}

// Dispose releases every target and clears the registry. The pool must
// not be used afterwards.
func (p *Pool) Dispose() {
	if p.disposed {
		return
	}
	for _, e := range p.entries {
		p.disposeEntry(e)
	}
	p.entries = make(map[string]*entry)
	p.order = nil
	p.disposed = true
}

// InvalidateForContextLoss drops GPU object references without disposing
// them; the device already destroyed them. Cached dimensions reset so the
// next access reallocates. Reinitialize is then a no-op because
// allocation is lazy.
func (p *Pool) InvalidateForContextLoss() {
	for _, e := range p.entries {
		e.targets[0] = nil
		e.targets[1] = nil
		e.lastW, e.lastH = 0, 0
		e.index = 0
	}
	p.dev = nil
}

// Reinitialize re-primes the pool after device loss. Allocation being
// lazy, it only rebinds the device; targets reappear on next access.
func (p *Pool) Reinitialize(dev device.Device) {
	p.dev = dev
}

// EstimatedVRAM returns the estimated video memory of all registered
// resources in bytes, computed from configuration at current viewport
// size: width x height x bytes-per-pixel x attachments, doubled for
// double-buffered resources, plus a fixed per-pixel depth estimate.
// A budgeting aid, not a measurement.
func (p *Pool) EstimatedVRAM() uint64 {
	var total uint64
	for _, id := range p.order {
		e := p.entries[id]
		w, h := e.config.Size.Resolve(p.viewportW, p.viewportH)
		pixels := uint64(w) * uint64(h)
		bytes := pixels * uint64(e.config.Format.BytesPerPixel()) * uint64(e.config.attachmentCount())
		if e.config.Depth {
			bytes += pixels * device.DepthBytesPerPixel
		}
		if e.pingPong {
			bytes *= 2
		}
		total += bytes
	}
	return total
}

// PoolStats summarizes the pool for debug logging.
type PoolStats struct {
	// Resources is the number of registered resources.
	Resources int

	// Allocated is the number of live targets, counting both halves of
	// double-buffered resources.
	Allocated int

	// PingPong is the number of double-buffered resources.
	PingPong int

	// EstimatedBytes is the EstimatedVRAM value.
	EstimatedBytes uint64
}

// String returns a human-readable summary.
func (s PoolStats) String() string {
	return fmt.Sprintf("Pool[%d resources, %d targets, %d ping-pong, ~%.1f MB]",
		s.Resources, s.Allocated, s.PingPong,
		float64(s.EstimatedBytes)/(1024*1024))
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	s := PoolStats{
		Resources:      len(p.entries),
		EstimatedBytes: p.EstimatedVRAM(),
	}
	for _, e := range p.entries {
		if e.pingPong {
			s.PingPong++
		}
		for _, t := range e.targets {
			if t != nil {
				s.Allocated++
			}
		}
	}
	return s
}
