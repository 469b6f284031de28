// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"
	"image"
	"time"

	"github.com/gogpu/wgpu/core"
	"golang.org/x/image/draw"
)

// SoftwareDevice is a CPU reference implementation of Device.
//
// Targets are backed by image.RGBA planes and timer queries by the
// monotonic clock, so the render graph runs end to end without GPU
// hardware. It is the default device for tests and headless tools.
//
// SoftwareDevice is NOT safe for concurrent use, matching the
// single-threaded execution contract of the render graph.
type SoftwareDevice struct {
	// resolveLatency is how many Result polls a timer query stays
	// in flight before its sample becomes available.
	resolveLatency int

	// failAllocs fails the next N CreateTarget calls, for testing the
	// pool's allocation rollback path.
	failAllocs int

	disjoint  bool
	timing    bool
	destroyed bool

	targetCount int
	queryCount  int
}

// SoftwareConfig holds configuration for creating a SoftwareDevice.
type SoftwareConfig struct {
	// ResolveLatency is the number of Result polls before a timer query
	// resolves. Defaults to 2 if <= 0, mimicking real hardware lag.
	ResolveLatency int

	// DisableTiming makes CreateTimerQuery return ErrTimingUnsupported,
	// for testing capability-absence degradation.
	DisableTiming bool
}

// NewSoftwareDevice creates a software device with default configuration.
func NewSoftwareDevice() *SoftwareDevice {
	return NewSoftwareDeviceWith(SoftwareConfig{})
}

// NewSoftwareDeviceWith creates a software device with the given configuration.
func NewSoftwareDeviceWith(config SoftwareConfig) *SoftwareDevice {
	latency := config.ResolveLatency
	if latency <= 0 {
		latency = 2
	}
	return &SoftwareDevice{
		resolveLatency: latency,
		timing:         !config.DisableTiming,
	}
}

// FailAllocations makes the next n CreateTarget calls fail with
// ErrAllocationFailed. Used by tests to exercise rollback behavior.
func (d *SoftwareDevice) FailAllocations(n int) {
	d.failAllocs = n
}

// InjectDisjoint sets the disjoint flag, as if the GPU clock was reset.
// The next TimingDisjoint call observes and clears it.
func (d *SoftwareDevice) InjectDisjoint() {
	d.disjoint = true
}

// TargetCount returns the number of live targets, for leak checks in tests.
func (d *SoftwareDevice) TargetCount() int {
	return d.targetCount
}

// QueryCount returns the number of live timer queries.
func (d *SoftwareDevice) QueryCount() int {
	return d.queryCount
}

// CreateTarget allocates a CPU-backed render target.
func (d *SoftwareDevice) CreateTarget(desc TargetDescriptor) (Target, error) {
	if d.destroyed {
		return nil, ErrDeviceDestroyed
	}
	if desc.Width < 1 || desc.Height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, desc.Width, desc.Height)
	}
	if d.failAllocs > 0 {
		d.failAllocs--
		return nil, fmt.Errorf("%w: injected failure (%q)", ErrAllocationFailed, desc.Label)
	}

	t := &softTarget{dev: d, desc: desc}
	for i := 0; i < desc.AttachmentCount(); i++ {
		t.attachments = append(t.attachments, &softTexture{
			img:    image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height)),
			format: desc.Format,
		})
	}
	if desc.Depth {
		t.depth = &softTexture{
			img:    image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height)),
			format: FormatR8,
		}
	}
	d.targetCount++
	return t, nil
}

// CreateTimerQuery allocates a clock-backed timer query.
func (d *SoftwareDevice) CreateTimerQuery() (TimerQuery, error) {
	if d.destroyed {
		return nil, ErrDeviceDestroyed
	}
	if !d.timing {
		return nil, ErrTimingUnsupported
	}
	d.queryCount++
	return &softQuery{dev: d, latency: d.resolveLatency}, nil
}

// TimingDisjoint reports and clears the injected disjoint flag.
func (d *SoftwareDevice) TimingDisjoint() bool {
	v := d.disjoint
	d.disjoint = false
	return v
}

// CopyTargetContents blits src into attachment zero of dst, scaling with
// a bilinear filter when the dimensions differ.
func (d *SoftwareDevice) CopyTargetContents(dst Target, src Texture) error {
	if d.destroyed {
		return ErrDeviceDestroyed
	}
	st, ok := src.(*softTexture)
	if !ok {
		return fmt.Errorf("device: foreign source texture %T", src)
	}
	tt, ok := dst.(*softTarget)
	if !ok {
		return fmt.Errorf("device: foreign destination target %T", dst)
	}
	out := tt.attachments[0].img
	if st.img.Bounds() == out.Bounds() {
		draw.Copy(out, image.Point{}, st.img, st.img.Bounds(), draw.Src, nil)
	} else {
		draw.ApproxBiLinear.Scale(out, out.Bounds(), st.img, st.img.Bounds(), draw.Src, nil)
	}
	return nil
}

// Destroy releases the device.
func (d *SoftwareDevice) Destroy() {
	d.destroyed = true
}

// Ensure SoftwareDevice implements Device.
var _ Device = (*SoftwareDevice)(nil)

// softTexture is a CPU-backed texture.
type softTexture struct {
	img      *image.RGBA
	format   Format
	released bool
}

func (t *softTexture) Width() int  { return t.img.Bounds().Dx() }
func (t *softTexture) Height() int { return t.img.Bounds().Dy() }

func (t *softTexture) Format() Format { return t.format }

// NativeView returns the zero view; software textures have no GPU backing.
func (t *softTexture) NativeView() core.TextureViewID { return core.TextureViewID{} }

func (t *softTexture) Destroy() { t.released = true }

// Image returns the backing pixels. Passes running on the software device
// type-assert to *softTexture via this package's SoftwareImage helper.
func (t *softTexture) Image() *image.RGBA { return t.img }

// softTarget is a CPU-backed render target.
type softTarget struct {
	dev         *SoftwareDevice
	desc        TargetDescriptor
	attachments []*softTexture
	depth       *softTexture
	released    bool
}

func (t *softTarget) Width() int  { return t.desc.Width }
func (t *softTarget) Height() int { return t.desc.Height }

func (t *softTarget) Descriptor() TargetDescriptor { return t.desc }

func (t *softTarget) Texture(attachment int) Texture {
	if attachment < 0 || attachment >= len(t.attachments) {
		return nil
	}
	return t.attachments[attachment]
}

func (t *softTarget) DepthTexture() Texture {
	if t.depth == nil {
		return nil
	}
	return t.depth
}

// NativeHandle returns the zero handle; software targets have no GPU backing.
func (t *softTarget) NativeHandle() core.TextureID { return core.TextureID{} }

func (t *softTarget) Destroy() {
	if t.released {
		return
	}
	t.released = true
	t.dev.targetCount--
}

// Released reports whether Destroy has been called, for tests.
func (t *softTarget) Released() bool { return t.released }

// SoftwareImage returns the CPU pixels behind a texture resolved from a
// SoftwareDevice target, or nil for textures of other devices.
func SoftwareImage(tex Texture) *image.RGBA {
	if st, ok := tex.(*softTexture); ok {
		return st.img
	}
	return nil
}

// SoftwareReleased reports whether a target created by a SoftwareDevice
// has been destroyed. Returns false for targets of other devices.
func SoftwareReleased(target Target) bool {
	if st, ok := target.(*softTarget); ok {
		return st.released
	}
	return false
}

// softQuery measures wall-clock time and resolves after a fixed number of
// Result polls, mimicking the frame lag of hardware timestamp queries.
type softQuery struct {
	dev     *SoftwareDevice
	latency int

	begin time.Time
	end   time.Time
	polls int
}

func (q *softQuery) Begin() {
	q.begin = time.Now()
	q.end = time.Time{}
	q.polls = 0
}

func (q *softQuery) End() {
	q.end = time.Now()
}

func (q *softQuery) Result() (uint64, bool) {
	if q.end.IsZero() {
		return 0, false
	}
	q.polls++
	if q.polls < q.latency {
		return 0, false
	}
	elapsed := q.end.Sub(q.begin)
	if elapsed < 0 {
		elapsed = 0
	}
	return uint64(elapsed.Nanoseconds()), true
}

func (q *softQuery) Destroy() {
	q.dev.queryCount--
}
