// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// Common device errors.
var (
	// ErrInvalidDimensions is returned when a target dimension is below one pixel.
	ErrInvalidDimensions = errors.New("device: invalid target dimensions")

	// ErrTimingUnsupported is returned by CreateTimerQuery when the device
	// has no hardware timestamp mechanism. Callers treat this as a
	// capability probe result, not a failure.
	ErrTimingUnsupported = errors.New("device: timestamp queries not supported")

	// ErrDeviceDestroyed is returned when operating on a destroyed device.
	ErrDeviceDestroyed = errors.New("device: device has been destroyed")

	// ErrAttachmentOutOfRange is returned when an attachment index exceeds
	// the target's attachment count.
	ErrAttachmentOutOfRange = errors.New("device: attachment index out of range")

	// ErrAllocationFailed is returned when the device cannot allocate a target.
	ErrAllocationFailed = errors.New("device: target allocation failed")
)

// Provider supplies GPU device access from the host application.
//
// The host (e.g. a gogpu.App) implements the provider and hands it to the
// render graph; the graph receives the device, it never creates one.
// Provider is an alias for gpucontext.DeviceProvider so any gpucontext
// host integrates without adapter code.
type Provider = gpucontext.DeviceProvider

// NullProvider is a Provider with nil implementations. Used for CPU-only
// rendering, where a SoftwareDevice runs without any GPU context.
type NullProvider struct{}

// Device returns nil for the null provider.
func (NullProvider) Device() gpucontext.Device { return nil }

// Queue returns nil for the null provider.
func (NullProvider) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null provider.
func (NullProvider) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo returns empty adapter information for the null provider.
func (NullProvider) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{} }

// SurfaceFormat returns undefined format for the null provider.
func (NullProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullProvider implements Provider.
var _ Provider = NullProvider{}

// SurfaceFormat returns the Format matching the provider's presentation
// surface, so targets the host composites to screen can be declared in
// the swapchain's format. Providers without a surface (NullProvider,
// headless hosts) fall back to FormatRGBA8.
func SurfaceFormat(p Provider) Format {
	if p == nil {
		return FormatRGBA8
	}
	switch p.SurfaceFormat() {
	case gputypes.TextureFormatBGRA8Unorm:
		return FormatBGRA8
	case gputypes.TextureFormatRGBA8Unorm:
		return FormatRGBA8
	case gputypes.TextureFormatRGBA16Float:
		return FormatRGBA16F
	default:
		return FormatRGBA8
	}
}

// TargetDescriptor describes parameters for creating a render target.
type TargetDescriptor struct {
	// Label is an optional debug label for the target.
	Label string

	// Width is the target width in pixels. Must be >= 1.
	Width int

	// Height is the target height in pixels. Must be >= 1.
	Height int

	// Format is the pixel format of every color attachment.
	Format Format

	// Attachments is the number of color attachments. Zero means one.
	Attachments int

	// Depth requests a depth/stencil attachment.
	Depth bool

	// Filter is the sampling filter for the color attachments.
	Filter FilterMode

	// Wrap is the texture coordinate wrap mode.
	Wrap WrapMode
}

// AttachmentCount returns the effective number of color attachments.
func (d TargetDescriptor) AttachmentCount() int {
	if d.Attachments < 1 {
		return 1
	}
	return d.Attachments
}

// Texture is a sampleable GPU surface, either a standalone texture or one
// color attachment of a Target.
type Texture interface {
	// Width returns the texture width in pixels.
	Width() int

	// Height returns the texture height in pixels.
	Height() int

	// Format returns the pixel format.
	Format() Format

	// NativeView returns the underlying wgpu texture view handle.
	// The zero value is returned by devices without native backing.
	NativeView() core.TextureViewID

	// Destroy releases the texture. Destroying an attachment texture is a
	// no-op; the owning target releases it.
	Destroy()
}

// Target is a GPU render target with one or more color attachments and an
// optional depth/stencil attachment.
type Target interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Descriptor returns the descriptor the target was created from.
	Descriptor() TargetDescriptor

	// Texture returns the color attachment at the given index.
	// Index 0 is always valid; nil is returned for an out-of-range index.
	Texture(attachment int) Texture

	// DepthTexture returns the depth attachment, or nil if the target has none.
	DepthTexture() Texture

	// NativeHandle returns the underlying wgpu texture handle.
	// The zero value is returned by devices without native backing.
	NativeHandle() core.TextureID

	// Destroy releases the target and all of its attachments.
	Destroy()
}

// TimerQuery measures elapsed GPU time between Begin and End.
//
// Results resolve asynchronously: Result reports ok=false until the
// device has the sample, typically one or two frames after End.
type TimerQuery interface {
	// Begin marks the start of the measured span.
	Begin()

	// End marks the end of the measured span.
	End()

	// Result polls for the elapsed time in nanoseconds.
	// ok is false while the sample is still in flight.
	Result() (elapsed uint64, ok bool)

	// Destroy releases the query object.
	Destroy()
}

// Device creates and copies render targets and issues timer queries.
//
// A Device is the render graph's only handle to the GPU. Implementations
// wrap a real backend (wgpu) or run entirely on the CPU (SoftwareDevice).
type Device interface {
	// CreateTarget allocates a render target matching the descriptor.
	CreateTarget(desc TargetDescriptor) (Target, error)

	// CreateTimerQuery allocates a timestamp query object.
	// Returns ErrTimingUnsupported if the device cannot time GPU work.
	CreateTimerQuery() (TimerQuery, error)

	// TimingDisjoint reports whether the GPU timing clock was reset since
	// the previous call, invalidating all in-flight timer queries.
	// Reading the flag clears it.
	TimingDisjoint() bool

	// CopyTargetContents copies the full contents of src into attachment
	// zero of dst, scaling if the dimensions differ.
	CopyTargetContents(dst Target, src Texture) error

	// Destroy releases the device and everything it allocated.
	Destroy()
}
