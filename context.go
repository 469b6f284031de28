// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"github.com/gogpu/rendergraph/device"
	"github.com/gogpu/rendergraph/pool"
)

// PassContext is what the graph exposes to a pass during Execute.
//
// Resource accessors resolve identifiers through the pool for the current
// frame. Resolved handles must not be cached across frames: resize or
// device loss invalidates them.
type PassContext struct {
	// Device is the GPU device executing this frame.
	Device device.Device

	// Scene and Camera are opaque host objects passed through unmodified.
	Scene  any
	Camera any

	// Delta is the time since the previous frame in seconds.
	Delta float64

	// Time is the total elapsed time in seconds.
	Time float64

	// Width and Height are the current viewport dimensions in pixels.
	Width  int
	Height int

	pool *pool.Pool
}

// GetResource resolves the pass's current write target for a resource.
// Equivalent to GetWriteTarget.
func (c *PassContext) GetResource(id string) (device.Target, error) {
	return c.pool.Get(id)
}

// GetWriteTarget resolves the target half to render into this frame.
func (c *PassContext) GetWriteTarget(id string) (device.Target, error) {
	return c.pool.GetWriteTarget(id)
}

// GetReadTarget resolves the target half holding the previous frame's
// output of a double-buffered resource. For single-buffered resources it
// is the only target.
func (c *PassContext) GetReadTarget(id string) (device.Target, error) {
	return c.pool.GetReadTarget(id)
}

// GetReadTexture resolves one color attachment of the readable half for
// sampling. Attachment 0 is the primary color plane.
func (c *PassContext) GetReadTexture(id string, attachment int) (device.Texture, error) {
	return c.pool.GetTexture(id, attachment)
}
