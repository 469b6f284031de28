// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compile

import "fmt"

// Access describes how a pass touches a bound resource.
type Access uint8

const (
	// AccessRead is a read-only binding.
	AccessRead Access = iota

	// AccessWrite is a write-only binding.
	AccessWrite

	// AccessReadWrite reads the previous contents of a resource while
	// writing new ones. Such resources are double-buffered.
	AccessReadWrite
)

// String returns a human-readable name for the access mode.
func (a Access) String() string {
	switch a {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	case AccessReadWrite:
		return "ReadWrite"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(a))
	}
}

// Binding declares one resource access of a pass.
type Binding struct {
	// Resource is the resource identifier.
	Resource string

	// Access is how the pass touches the resource.
	Access Access
}

// PassNode is the compiler's snapshot of a registered pass. The compiler
// never holds live pass objects; the orchestrator registers snapshots so
// Compile stays pure over its declared inputs.
type PassNode struct {
	// ID is the unique pass identifier.
	ID string

	// Reads are the declared read bindings, AccessRead or AccessReadWrite.
	Reads []Binding

	// Writes are the declared write bindings, AccessWrite or AccessReadWrite.
	Writes []Binding

	// Priority orders ready passes; lower values run first. Ties break by
	// declaration order.
	Priority int

	// index is the declaration order, assigned by AddPass.
	index int
}

// ResourceDecl is the compiler's view of a registered resource. Sizing and
// format concerns live in the pool; the compiler only needs identity.
type ResourceDecl struct {
	// ID is the unique resource identifier.
	ID string
}

// Edge is one dependency in the compiled graph: To depends on From, so
// From executes first.
type Edge struct {
	From string
	To   string
}

// CompiledGraph is the derived, cached artifact of Compile. It is never
// mutated in place; every recompilation replaces it wholesale.
type CompiledGraph struct {
	// Order is the execution order of all passes.
	Order []PassNode

	// Edges are the dependencies the order was derived from.
	Edges []Edge

	// PingPong is the set of resource identifiers requiring two physical
	// buffers for one-frame-delayed feedback.
	PingPong map[string]bool

	// AllocationOrder lists resources by first appearance across the
	// ordered passes, outputs before inputs within each pass. Pools may
	// use it as a preallocation hint.
	AllocationOrder []string

	// Warnings are the non-fatal findings collected during compilation.
	Warnings []Warning
}
