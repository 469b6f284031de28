// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pool

import (
	"fmt"

	"github.com/gogpu/rendergraph/device"
)

// Kind distinguishes the shapes of pooled resources.
type Kind uint8

const (
	// KindTarget is a single-attachment render target.
	KindTarget Kind = iota

	// KindMRT is a multi-attachment render target.
	KindMRT

	// KindTexture is a fixed-format texture that passes sample but never
	// render into through the graph (e.g. lookup tables).
	KindTexture
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindTarget:
		return "Target"
	case KindMRT:
		return "MRT"
	case KindTexture:
		return "Texture"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// sizeMode tags the sizing policy variants.
type sizeMode uint8

const (
	sizeScreen sizeMode = iota
	sizeFraction
	sizeFixed
)

// SizePolicy decides a resource's pixel dimensions. Construct one with
// ScreenSize, FractionSize or FixedSize.
type SizePolicy struct {
	mode     sizeMode
	fraction float64
	width    int
	height   int
}

// ScreenSize sizes the resource to the current viewport.
func ScreenSize() SizePolicy {
	return SizePolicy{mode: sizeScreen}
}

// FractionSize sizes the resource to a fraction of the viewport in each
// dimension. A bloom chain at 0.5 renders at quarter resolution.
func FractionSize(f float64) SizePolicy {
	return SizePolicy{mode: sizeFraction, fraction: f}
}

// FixedSize sizes the resource to fixed pixel dimensions, independent of
// the viewport.
func FixedSize(width, height int) SizePolicy {
	return SizePolicy{mode: sizeFixed, width: width, height: height}
}

// Resolve computes the target dimensions for the given viewport.
// Dimensions are clamped to at least one pixel.
func (p SizePolicy) Resolve(viewportW, viewportH int) (int, int) {
	var w, h int
	switch p.mode {
	case sizeFraction:
		w = int(float64(viewportW) * p.fraction)
		h = int(float64(viewportH) * p.fraction)
	case sizeFixed:
		w, h = p.width, p.height
	default:
		w, h = viewportW, viewportH
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// ViewportRelative reports whether the policy depends on viewport size.
func (p SizePolicy) ViewportRelative() bool {
	return p.mode != sizeFixed
}

// String returns a human-readable description of the policy.
func (p SizePolicy) String() string {
	switch p.mode {
	case sizeFraction:
		return fmt.Sprintf("fraction(%.3g)", p.fraction)
	case sizeFixed:
		return fmt.Sprintf("fixed(%dx%d)", p.width, p.height)
	default:
		return "screen"
	}
}

// ResourceConfig describes one named GPU resource.
type ResourceConfig struct {
	// ID is the unique resource identifier.
	ID string

	// Kind is the resource shape. KindMRT requires Attachments >= 2.
	Kind Kind

	// Size is the sizing policy. The zero value is ScreenSize.
	Size SizePolicy

	// Format is the pixel format of every color attachment.
	Format device.Format

	// Attachments is the color attachment count for KindMRT resources.
	// Ignored (treated as one) for other kinds.
	Attachments int

	// Depth requests a depth/stencil attachment.
	Depth bool

	// Filter is the sampling filter. The zero value is FilterLinear.
	Filter device.FilterMode

	// Wrap is the coordinate wrap mode. The zero value is ClampToEdge.
	Wrap device.WrapMode
}

// attachmentCount returns the effective color attachment count.
func (c ResourceConfig) attachmentCount() int {
	if c.Kind == KindMRT && c.Attachments > 1 {
		return c.Attachments
	}
	return 1
}

// descriptor builds the device descriptor for the given dimensions.
func (c ResourceConfig) descriptor(w, h int) device.TargetDescriptor {
	return device.TargetDescriptor{
		Label:       c.ID,
		Width:       w,
		Height:      h,
		Format:      c.Format,
		Attachments: c.attachmentCount(),
		Depth:       c.Depth,
		Filter:      c.Filter,
		Wrap:        c.Wrap,
	}
}
