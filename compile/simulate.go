// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compile

import "fmt"

// resourceState is the simulated lifecycle state of a resource during one
// frame of execution.
type resourceState uint8

const (
	// stateCreated means allocated, never yet written this frame.
	stateCreated resourceState = iota

	// stateWriteTarget means currently bound as a pass's output.
	stateWriteTarget

	// stateShaderRead means populated and sampleable.
	stateShaderRead
)

// String returns a human-readable name for the state.
func (s resourceState) String() string {
	switch s {
	case stateCreated:
		return "Created"
	case stateWriteTarget:
		return "WriteTarget"
	case stateShaderRead:
		return "ShaderRead"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// simulateTransitions walks the ordered passes and drives a per-resource
// state machine, warning on transitions that would sample undefined data.
//
// Writing moves a resource Created/ShaderRead -> WriteTarget for the
// duration of the pass, then to ShaderRead when the pass completes.
// Reading requires ShaderRead. Read-write access tolerates Created: the
// first frame of a feedback loop legitimately reads the cleared buffer.
// Double-buffered resources are likewise tolerated in Created state,
// since their readers sample the previous frame's half.
func simulateTransitions(order []PassNode, u *usageIndex, pingPong map[string]bool) []Warning {
	states := make(map[string]resourceState)
	var out []Warning

	for _, p := range order {
		// The previous pass completed: its write targets become sampleable.
		for id, s := range states {
			if s == stateWriteTarget {
				states[id] = stateShaderRead
			}
		}

		for _, b := range p.Reads {
			ru := u.resources[b.Resource]
			if ru == nil || !ru.known {
				continue
			}
			state := states[b.Resource]
			if state == stateShaderRead {
				continue
			}
			if b.Access == AccessReadWrite || pingPong[b.Resource] {
				continue
			}
			out = append(out, Warning{
				Kind:     WarnInvalidTransition,
				Resource: b.Resource,
				Pass:     p.ID,
				Message: fmt.Sprintf("pass %q reads %q in %s state",
					p.ID, b.Resource, state),
			})
		}

		for _, b := range p.Writes {
			ru := u.resources[b.Resource]
			if ru == nil || !ru.known {
				continue
			}
			states[b.Resource] = stateWriteTarget
		}
	}
	return out
}
