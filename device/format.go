// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Format represents the pixel format of a render target or texture.
type Format uint8

const (
	// FormatRGBA8 is the standard RGBA format with 8 bits per channel.
	FormatRGBA8 Format = iota

	// FormatBGRA8 is BGRA format, often used for surface presentation.
	FormatBGRA8

	// FormatR8 is single-channel 8-bit format, used for masks.
	FormatR8

	// FormatRGBA16F is half-precision float RGBA, used for HDR targets.
	FormatRGBA16F

	// FormatRGBA32F is full-precision float RGBA.
	FormatRGBA32F
)

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	case FormatR8:
		return "R8"
	case FormatRGBA16F:
		return "RGBA16F"
	case FormatRGBA32F:
		return "RGBA32F"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// BytesPerPixel returns the number of bytes per pixel for the format.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBA8, FormatBGRA8:
		return 4
	case FormatR8:
		return 1
	case FormatRGBA16F:
		return 8
	case FormatRGBA32F:
		return 16
	default:
		return 4
	}
}

// GPUFormat converts to the wgpu gputypes.TextureFormat.
func (f Format) GPUFormat() gputypes.TextureFormat {
	switch f {
	case FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm
	case FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	case FormatR8:
		return gputypes.TextureFormatR8Unorm
	case FormatRGBA16F:
		return gputypes.TextureFormatRGBA16Float
	case FormatRGBA32F:
		return gputypes.TextureFormatRGBA32Float
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// DepthGPUFormat is the format used for depth/stencil attachments.
func DepthGPUFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatDepth24PlusStencil8
}

// DepthBytesPerPixel is the estimated size of one depth/stencil sample.
// Depth24PlusStencil8 occupies four bytes on every backend we target.
const DepthBytesPerPixel = 4

// FilterMode selects how a target is sampled when scaled.
type FilterMode uint8

const (
	// FilterLinear is bilinear filtering.
	FilterLinear FilterMode = iota

	// FilterNearest is nearest-neighbor filtering.
	FilterNearest
)

// String returns a human-readable name for the filter mode.
func (m FilterMode) String() string {
	switch m {
	case FilterLinear:
		return "Linear"
	case FilterNearest:
		return "Nearest"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(m))
	}
}

// WrapMode selects how texture coordinates outside [0,1] are treated.
type WrapMode uint8

const (
	// WrapClampToEdge clamps coordinates to the texture edge.
	WrapClampToEdge WrapMode = iota

	// WrapRepeat tiles the texture.
	WrapRepeat
)

// String returns a human-readable name for the wrap mode.
func (m WrapMode) String() string {
	switch m {
	case WrapClampToEdge:
		return "ClampToEdge"
	case WrapRepeat:
		return "Repeat"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(m))
	}
}
