// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"fmt"
	"strings"
)

// PassStats is the per-pass slice of one frame's statistics.
type PassStats struct {
	// ID is the pass identifier.
	ID string

	// CPUMillis is the wall-clock time spent in Execute.
	CPUMillis float64

	// GPUMillis is the last resolved GPU time. Zero until a timestamp
	// query resolves; readings lag the frame they measured.
	GPUMillis float64

	// Skipped reports that the pass was disabled this frame and a
	// pass-through copy ran in its place.
	Skipped bool
}

// FrameStats aggregates one frame's execution statistics.
type FrameStats struct {
	// Frame is the frame number the stats describe.
	Frame uint64

	// CPUMillis is the total wall-clock time of Execute.
	CPUMillis float64

	// Passes holds per-pass statistics in execution order.
	Passes []PassStats

	// EstimatedVRAM is the pool's estimated video memory in bytes.
	EstimatedVRAM uint64
}

// String returns a human-readable one-line summary.
func (s FrameStats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Frame %d [%.2f ms CPU, ~%.1f MB VRAM]",
		s.Frame, s.CPUMillis, float64(s.EstimatedVRAM)/(1024*1024))
	for _, p := range s.Passes {
		if p.Skipped {
			fmt.Fprintf(&b, " %s:skip", p.ID)
			continue
		}
		fmt.Fprintf(&b, " %s:%.2f/%.2f", p.ID, p.CPUMillis, p.GPUMillis)
	}
	return b.String()
}
