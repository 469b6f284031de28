// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package timing measures per-pass GPU time with pooled asynchronous
// timestamp queries.
//
// Results are inherently delayed: a query issued on frame N typically
// resolves on frame N+1 or N+2, so readings lag the work they measure.
// Callers treat stale or zero values as normal, never as errors. A device
// without timestamp support degrades to a no-op timer.
package timing

import (
	"errors"

	"github.com/gogpu/rendergraph/device"
)

// Defaults for Config fields.
const (
	// DefaultMaxPendingFrames is how many frames a query may stay
	// unresolved before it is discarded as invalid.
	DefaultMaxPendingFrames = 8

	// DefaultMaxPoolSize bounds the free list of reusable query objects.
	DefaultMaxPoolSize = 16
)

// Config holds configuration for creating a GPUTimer.
type Config struct {
	// MaxPendingFrames is the age bound for unresolved queries.
	// Defaults to DefaultMaxPendingFrames if <= 0.
	MaxPendingFrames int

	// MaxPoolSize bounds the reusable query pool; queries beyond the
	// bound are destroyed instead of pooled.
	// Defaults to DefaultMaxPoolSize if <= 0.
	MaxPoolSize int
}

// pendingQuery is a query whose span has ended but whose sample has not
// yet resolved.
type pendingQuery struct {
	query  device.TimerQuery
	passID string
	frame  uint64 // frame the query was issued on
}

// GPUTimer brackets pass execution with timestamp queries and resolves
// them asynchronously, one poll per frame.
//
// GPUTimer is NOT safe for concurrent use; it follows the render graph's
// single-threaded execution contract. At most one query is active at a
// time: BeginPass while another pass is open is ignored with a
// diagnostic.
type GPUTimer struct {
	dev         device.Device
	supported   bool
	initialized bool

	frame   uint64
	active  *pendingQuery
	pending []pendingQuery
	free    []device.TimerQuery

	// results holds the last resolved time per pass id, in milliseconds.
	results map[string]float64

	// discarded counts queries dropped for age or disjoint clock.
	discarded uint64

	maxPending  int
	maxPoolSize int
}

// New creates a timer with the given configuration. The timer is inert
// until Initialize is called with a device.
func New(config Config) *GPUTimer {
	maxPending := config.MaxPendingFrames
	if maxPending <= 0 {
		maxPending = DefaultMaxPendingFrames
	}
	maxPool := config.MaxPoolSize
	if maxPool <= 0 {
		maxPool = DefaultMaxPoolSize
	}
	return &GPUTimer{
		results:     make(map[string]float64),
		maxPending:  maxPending,
		maxPoolSize: maxPool,
	}
}

// Initialize probes the device for timestamp-query support. Absence is
// not an error: the timer reports unsupported and every subsequent call
// becomes a no-op.
func (t *GPUTimer) Initialize(dev device.Device) {
	t.dev = dev
	t.initialized = true

	q, err := dev.CreateTimerQuery()
	if err != nil {
		if !errors.Is(err, device.ErrTimingUnsupported) {
			slogger().Warn("timing: query probe failed", "error", err)
		}
		t.supported = false
		return
	}
	t.supported = true
	t.free = append(t.free, q)
	slogger().Debug("timing: timestamp queries available")
}

// Supported reports whether the device can time GPU work.
func (t *GPUTimer) Supported() bool {
	return t.initialized && t.supported
}

// Frame returns the current frame number.
func (t *GPUTimer) Frame() uint64 { return t.frame }

// DiscardedCount returns how many queries were dropped unresolved, for
// diagnostics.
func (t *GPUTimer) DiscardedCount() uint64 { return t.discarded }

// BeginFrame advances the frame counter, closes any dangling query left
// open by the previous frame, handles a disjoint clock signal, and polls
// pending queries for results.
func (t *GPUTimer) BeginFrame() {
	if !t.Supported() {
		return
	}
	t.frame++

	if t.active != nil {
		slogger().Warn("timing: query left open at frame end", "pass", t.active.passID)
		t.EndPass()
	}

	// A disjoint signal means the GPU clock was reset; every in-flight
	// sample is meaningless.
	if t.dev.TimingDisjoint() {
		slogger().Debug("timing: disjoint clock, discarding pending queries",
			"count", len(t.pending))
		t.discarded += uint64(len(t.pending))
		for i := range t.pending {
			t.recycle(t.pending[i].query)
		}
		t.pending = t.pending[:0]
		return
	}

	t.poll()
}

// poll resolves pending queries oldest-first and ages out queries that
// have been unresolved for too many frames.
func (t *GPUTimer) poll() {
	remaining := t.pending[:0]
	for i := range t.pending {
		pq := t.pending[i]
		if elapsed, ok := pq.query.Result(); ok {
			t.results[pq.passID] = float64(elapsed) / 1e6
			t.recycle(pq.query)
			continue
		}
		if t.frame-pq.frame > uint64(t.maxPending) {
			slogger().Warn("timing: query expired unresolved",
				"pass", pq.passID, "issued", pq.frame, "frame", t.frame)
			t.discarded++
			t.recycle(pq.query)
			continue
		}
		remaining = append(remaining, pq)
	}
	t.pending = remaining
}

// BeginPass opens a query bracketing one pass's GPU work. Ignored when a
// query is already active.
func (t *GPUTimer) BeginPass(passID string) {
	if !t.Supported() {
		return
	}
	if t.active != nil {
		slogger().Warn("timing: BeginPass while another query is active",
			"pass", passID, "active", t.active.passID)
		return
	}

	q := t.acquire()
	if q == nil {
		return
	}
	q.Begin()
	t.active = &pendingQuery{query: q, passID: passID, frame: t.frame}
}

// EndPass closes the active query and moves it to the pending set.
// No-op when no query is active.
func (t *GPUTimer) EndPass() {
	if t.active == nil {
		return
	}
	t.active.query.End()
	t.pending = append(t.pending, *t.active)
	t.active = nil
}

// PassTime returns the last resolved GPU time for a pass in milliseconds,
// or 0 if no sample has resolved yet. Values lag by one or more frames.
func (t *GPUTimer) PassTime(passID string) float64 {
	return t.results[passID]
}

// acquire pops a query from the free pool or creates a fresh one.
func (t *GPUTimer) acquire() device.TimerQuery {
	if n := len(t.free); n > 0 {
		q := t.free[n-1]
		t.free = t.free[:n-1]
		return q
	}
	q, err := t.dev.CreateTimerQuery()
	if err != nil {
		slogger().Warn("timing: query creation failed", "error", err)
		return nil
	}
	return q
}

// recycle returns a consumed query to the bounded pool, destroying it
// when the pool is full.
func (t *GPUTimer) recycle(q device.TimerQuery) {
	if len(t.free) < t.maxPoolSize {
		t.free = append(t.free, q)
		return
	}
	q.Destroy()
}

// Dispose destroys every query object and resets the timer.
func (t *GPUTimer) Dispose() {
	if t.active != nil {
		t.active.query.Destroy()
		t.active = nil
	}
	for i := range t.pending {
		t.pending[i].query.Destroy()
	}
	t.pending = nil
	for _, q := range t.free {
		q.Destroy()
	}
	t.free = nil
	t.results = make(map[string]float64)
	t.initialized = false
	t.supported = false
	t.dev = nil
}

// InvalidateForContextLoss drops query references without destroying
// them; the device already did. The timer must be re-initialized before
// use.
func (t *GPUTimer) InvalidateForContextLoss() {
	t.active = nil
	t.pending = nil
	t.free = nil
	t.initialized = false
	t.supported = false
	t.dev = nil
}
