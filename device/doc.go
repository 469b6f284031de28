// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device defines the GPU boundary of the render graph.
//
// The render graph never talks to a GPU API directly. It allocates render
// targets, copies their contents, and issues timestamp queries through the
// Device interface. Hosts hand a device in each frame; the graph owns what
// it allocates and nothing else.
//
// Two kinds of implementation exist:
//
//   - wgpu-backed devices provided by the host application, surfacing
//     native handles (core.TextureID, core.TextureViewID) for pass code
//     that binds attachments into real pipelines.
//   - SoftwareDevice, a complete CPU implementation backed by image.RGBA,
//     used by tests and headless tools.
//
// Provider aliases gpucontext.DeviceProvider, so gogpu hosts plug in
// without adapter code.
package device
