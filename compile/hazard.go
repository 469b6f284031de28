// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compile

import "fmt"

// detectPingPong returns the set of resources needing two physical
// buffers. A resource is double-buffered when:
//
//   - any pass declares read-write access to it,
//   - more than one pass writes it, or
//   - the same pass appears among both its writers and its readers
//     (a pass feeding its own output back as next frame's input).
//
// These shapes are the expected form of temporal and accumulation
// effects, so detection never warns. The cost is that a genuine two-writer
// conflict is indistinguishable from layered accumulation and is silently
// double-buffered as well; callers who mean single ownership should keep
// one writer per resource.
func detectPingPong(u *usageIndex) map[string]bool {
	out := make(map[string]bool)
	for _, id := range u.order {
		ru := u.resources[id]
		if len(ru.readWriters) > 0 || len(ru.writers) > 1 {
			out[id] = true
			continue
		}
		for _, w := range ru.writers {
			if contains(ru.readers, w) {
				out[id] = true
				break
			}
		}
	}
	return out
}

// checkReadBeforeWrite warns about resources consumed before their first
// production. Double-buffered resources are exempt: reading before this
// frame's write is exactly how one-frame-delayed feedback works.
func checkReadBeforeWrite(order []PassNode, u *usageIndex, pingPong map[string]bool) []Warning {
	rank := make(map[int]int, len(order))
	for pos, p := range order {
		rank[p.index] = pos
	}

	var out []Warning
	for _, id := range u.order {
		ru := u.resources[id]
		if !ru.known || len(ru.readers) == 0 || pingPong[id] {
			continue
		}

		if len(ru.writers) == 0 {
			out = append(out, Warning{
				Kind:     WarnNoWriter,
				Resource: id,
				Message:  fmt.Sprintf("resource %q is read but never written", id),
			})
			continue
		}

		firstWrite := len(order)
		for _, w := range ru.writers {
			if r := rank[u.passes[w].index]; r < firstWrite {
				firstWrite = r
			}
		}

		for _, r := range ru.readers {
			if rank[u.passes[r].index] < firstWrite {
				out = append(out, Warning{
					Kind:     WarnReadBeforeWrite,
					Resource: id,
					Pass:     u.passes[r].ID,
					Message: fmt.Sprintf("pass %q reads %q before any pass writes it",
						u.passes[r].ID, id),
				})
			}
		}
	}
	return out
}
