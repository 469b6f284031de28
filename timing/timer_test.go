// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package timing

import (
	"errors"
	"testing"

	"github.com/gogpu/rendergraph/device"
)

// mockQuery is a timer query whose resolution the test controls directly.
type mockQuery struct {
	dev       *mockDevice
	value     uint64
	ready     bool
	ended     bool
	destroyed bool
}

func (q *mockQuery) Begin() {
	q.ended = false
	q.ready = false
}

func (q *mockQuery) End() { q.ended = true }

func (q *mockQuery) Result() (uint64, bool) {
	if !q.ended || !q.ready {
		return 0, false
	}
	return q.value, true
}

func (q *mockQuery) Destroy() {
	q.destroyed = true
	q.dev.live--
}

// mockDevice hands out mockQuery objects and records them so tests can
// script resolution order.
type mockDevice struct {
	timingOff bool
	disjoint  bool
	live      int
	queries   []*mockQuery
}

func (d *mockDevice) CreateTarget(device.TargetDescriptor) (device.Target, error) {
	return nil, errors.New("mock: targets not supported")
}

func (d *mockDevice) CreateTimerQuery() (device.TimerQuery, error) {
	if d.timingOff {
		return nil, device.ErrTimingUnsupported
	}
	q := &mockQuery{dev: d}
	d.queries = append(d.queries, q)
	d.live++
	return q, nil
}

func (d *mockDevice) TimingDisjoint() bool {
	v := d.disjoint
	d.disjoint = false
	return v
}

func (d *mockDevice) CopyTargetContents(device.Target, device.Texture) error { return nil }

func (d *mockDevice) Destroy() {}

// resolve marks a query ready with the given raw nanosecond sample.
func (q *mockQuery) resolve(nanos uint64) {
	q.value = nanos
	q.ready = true
}

func TestUnsupportedDeviceNoOps(t *testing.T) {
	dev := &mockDevice{timingOff: true}
	timer := New(Config{})
	timer.Initialize(dev)

	if timer.Supported() {
		t.Fatal("Supported() = true on a device without timestamp queries")
	}

	// Every call degrades to a no-op.
	timer.BeginFrame()
	timer.BeginPass("shadow")
	timer.EndPass()
	if got := timer.PassTime("shadow"); got != 0 {
		t.Errorf("PassTime() = %v, want 0", got)
	}
	if timer.Frame() != 0 {
		t.Errorf("Frame() = %d, want 0 (frames must not advance)", timer.Frame())
	}
}

func TestPassTimeResolvesInMilliseconds(t *testing.T) {
	dev := &mockDevice{}
	timer := New(Config{})
	timer.Initialize(dev)
	if !timer.Supported() {
		t.Fatal("Supported() = false")
	}

	timer.BeginFrame()
	timer.BeginPass("shadow")
	timer.EndPass()

	// Not resolved yet: reading now yields zero, not an error.
	if got := timer.PassTime("shadow"); got != 0 {
		t.Errorf("PassTime() before resolve = %v, want 0", got)
	}

	// The probe query from Initialize is the one acquired for the pass.
	dev.queries[0].resolve(5_000_000)
	timer.BeginFrame()

	if got := timer.PassTime("shadow"); got != 5.0 {
		t.Errorf("PassTime() = %v ms, want 5.0", got)
	}

	// Stale reads keep returning the last resolved value.
	timer.BeginFrame()
	if got := timer.PassTime("shadow"); got != 5.0 {
		t.Errorf("stale PassTime() = %v ms, want 5.0", got)
	}
}

func TestResolveAfterTwoFrames(t *testing.T) {
	dev := &mockDevice{}
	timer := New(Config{})
	timer.Initialize(dev)

	timer.BeginFrame()
	timer.BeginPass("bloom")
	timer.EndPass()

	// Frame N+1: still in flight.
	timer.BeginFrame()
	if got := timer.PassTime("bloom"); got != 0 {
		t.Errorf("PassTime() at N+1 = %v, want 0", got)
	}

	// Frame N+2: sample arrives.
	dev.queries[0].resolve(1_500_000)
	timer.BeginFrame()
	if got := timer.PassTime("bloom"); got != 1.5 {
		t.Errorf("PassTime() at N+2 = %v ms, want 1.5", got)
	}
	if timer.DiscardedCount() != 0 {
		t.Errorf("DiscardedCount() = %d, want 0", timer.DiscardedCount())
	}
}

func TestDisjointDiscardsPending(t *testing.T) {
	dev := &mockDevice{}
	timer := New(Config{})
	timer.Initialize(dev)

	timer.BeginFrame()
	timer.BeginPass("shadow")
	timer.EndPass()
	timer.BeginPass("lighting")
	timer.EndPass()

	// Clock reset: both in-flight samples are meaningless even if the
	// device would have resolved them.
	dev.queries[0].resolve(5_000_000)
	dev.queries[1].resolve(7_000_000)
	dev.disjoint = true
	timer.BeginFrame()

	if got := timer.DiscardedCount(); got != 2 {
		t.Errorf("DiscardedCount() = %d, want 2", got)
	}
	if got := timer.PassTime("shadow"); got != 0 {
		t.Errorf("PassTime(shadow) = %v after disjoint, want 0", got)
	}
	if got := timer.PassTime("lighting"); got != 0 {
		t.Errorf("PassTime(lighting) = %v after disjoint, want 0", got)
	}

	// Discarded queries return to the pool and keep working.
	timer.BeginPass("shadow")
	timer.EndPass()
	if len(dev.queries) != 2 {
		t.Errorf("created %d queries, want 2 (discards must be recycled)", len(dev.queries))
	}
}

func TestExpiredQueryDiscarded(t *testing.T) {
	dev := &mockDevice{}
	timer := New(Config{MaxPendingFrames: 2})
	timer.Initialize(dev)

	timer.BeginFrame()
	timer.BeginPass("stuck")
	timer.EndPass()

	// Never resolves; after the age bound it is dropped.
	for i := 0; i < 4; i++ {
		timer.BeginFrame()
	}
	if got := timer.DiscardedCount(); got != 1 {
		t.Errorf("DiscardedCount() = %d, want 1", got)
	}
	if got := timer.PassTime("stuck"); got != 0 {
		t.Errorf("PassTime() = %v, want 0", got)
	}
}

func TestNestedBeginPassIgnored(t *testing.T) {
	dev := &mockDevice{}
	timer := New(Config{})
	timer.Initialize(dev)

	timer.BeginFrame()
	timer.BeginPass("outer")
	timer.BeginPass("inner") // ignored, outer stays active
	timer.EndPass()

	dev.queries[0].resolve(3_000_000)
	timer.BeginFrame()

	if got := timer.PassTime("outer"); got != 3.0 {
		t.Errorf("PassTime(outer) = %v ms, want 3.0", got)
	}
	if got := timer.PassTime("inner"); got != 0 {
		t.Errorf("PassTime(inner) = %v, want 0", got)
	}
	if len(dev.queries) != 1 {
		t.Errorf("created %d queries, want 1", len(dev.queries))
	}
}

func TestDanglingQueryClosedAtFrameStart(t *testing.T) {
	dev := &mockDevice{}
	timer := New(Config{})
	timer.Initialize(dev)

	timer.BeginFrame()
	timer.BeginPass("forgotten")
	// No EndPass: the next frame closes it.
	timer.BeginFrame()

	dev.queries[0].resolve(2_000_000)
	timer.BeginFrame()
	if got := timer.PassTime("forgotten"); got != 2.0 {
		t.Errorf("PassTime() = %v ms, want 2.0", got)
	}
}

func TestPoolBounded(t *testing.T) {
	dev := &mockDevice{}
	timer := New(Config{MaxPoolSize: 1})
	timer.Initialize(dev)

	timer.BeginFrame()
	timer.BeginPass("a")
	timer.EndPass()
	timer.BeginPass("b")
	timer.EndPass()

	dev.queries[0].resolve(1_000_000)
	dev.queries[1].resolve(2_000_000)
	timer.BeginFrame()

	// Both resolved; the pool holds one, the overflow is destroyed.
	if !dev.queries[1].destroyed {
		t.Error("overflow query not destroyed with MaxPoolSize=1")
	}
	if dev.queries[0].destroyed {
		t.Error("pooled query destroyed")
	}
	if dev.live != 1 {
		t.Errorf("live queries = %d, want 1", dev.live)
	}
}

func TestDisposeDestroysEverything(t *testing.T) {
	dev := &mockDevice{}
	timer := New(Config{})
	timer.Initialize(dev)

	timer.BeginFrame()
	timer.BeginPass("a")
	timer.EndPass()
	timer.BeginPass("b") // left active

	timer.Dispose()
	if dev.live != 0 {
		t.Errorf("live queries = %d after Dispose, want 0", dev.live)
	}
	if timer.Supported() {
		t.Error("Supported() = true after Dispose")
	}
}

func TestContextLossDropsWithoutDestroying(t *testing.T) {
	dev := &mockDevice{}
	timer := New(Config{})
	timer.Initialize(dev)

	timer.BeginFrame()
	timer.BeginPass("a")
	timer.EndPass()

	// The device already destroyed its objects; the timer must only
	// forget them.
	timer.InvalidateForContextLoss()
	for i, q := range dev.queries {
		if q.destroyed {
			t.Errorf("query %d destroyed during context loss", i)
		}
	}
	if timer.Supported() {
		t.Error("Supported() = true after context loss")
	}

	// Re-initializing against a fresh device restores timing.
	fresh := &mockDevice{}
	timer.Initialize(fresh)
	if !timer.Supported() {
		t.Error("Supported() = false after re-initialize")
	}
	timer.BeginFrame()
	timer.BeginPass("a")
	timer.EndPass()
	fresh.queries[0].resolve(4_000_000)
	timer.BeginFrame()
	if got := timer.PassTime("a"); got != 4.0 {
		t.Errorf("PassTime() after re-initialize = %v ms, want 4.0", got)
	}
}
