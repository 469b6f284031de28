// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rendergraph schedules declarative GPU rendering passes.
//
// Callers register named resources (render targets and textures) and
// passes declaring which resources they read and write. The graph
// compiles those declarations into a validated execution plan (a
// deterministic topological order with hazard analysis) and runs it once
// per frame, allocating targets lazily from a pool, double-buffering
// resources used for temporal feedback, and timing passes with
// asynchronous GPU timestamp queries.
//
// A minimal frame loop:
//
//	g := rendergraph.New(rendergraph.Config{Timing: true})
//	g.AddResource(pool.ResourceConfig{ID: "color", Size: pool.ScreenSize()})
//	g.AddPass(rendergraph.NewPass(rendergraph.PassConfig{
//		ID:     "scene",
//		Writes: []rendergraph.Binding{rendergraph.Write("color")},
//		Execute: func(ctx *rendergraph.PassContext) error {
//			_, err := ctx.GetWriteTarget("color")
//			return err
//		},
//	}))
//	g.SetSize(1920, 1080)
//	for running {
//		if err := g.Execute(dev, scene, camera, dt); err != nil {
//			return err
//		}
//	}
//
// The graph decides when passes run and into what buffer; what each pass
// renders is entirely the caller's concern. Shading, materials, cameras
// and input never enter this package.
//
// Execution is single-threaded and frame-synchronous. The only
// asynchrony is the GPU itself: timing results lag the frame that issued
// them, and callers must treat zero as "not yet measured".
package rendergraph
