// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import "github.com/gogpu/rendergraph/compile"

// Binding declares one resource access of a pass.
// It is an alias for compile.Binding so pass authors only import this
// package.
type Binding = compile.Binding

// Access describes how a pass touches a bound resource.
type Access = compile.Access

// Access modes, re-exported from compile.
const (
	// AccessRead is a read-only binding.
	AccessRead = compile.AccessRead

	// AccessWrite is a write-only binding.
	AccessWrite = compile.AccessWrite

	// AccessReadWrite reads the previous frame's contents while writing
	// this frame's. The bound resource is double-buffered.
	AccessReadWrite = compile.AccessReadWrite
)

// Read builds a read-only binding.
func Read(resource string) Binding {
	return Binding{Resource: resource, Access: AccessRead}
}

// Write builds a write-only binding.
func Write(resource string) Binding {
	return Binding{Resource: resource, Access: AccessWrite}
}

// ReadWrite builds a read-write binding.
func ReadWrite(resource string) Binding {
	return Binding{Resource: resource, Access: AccessReadWrite}
}

// Pass is a unit of GPU work registered with the graph. A pass owns no
// GPU resources; it references resources by identifier and resolves them
// through the PassContext at execution time. Passes are immutable once
// registered, except for the value their enabled predicate returns.
//
// Passes may additionally implement any of:
//
//	interface{ Priority() int }  // tie-break ordering, lower runs first
//	interface{ Enabled() bool }  // evaluated each frame; false substitutes a pass-through copy
//	interface{ Dispose() }       // called when the pass is removed or the graph disposed
type Pass interface {
	// ID returns the unique pass identifier.
	ID() string

	// Reads returns the declared read bindings.
	Reads() []Binding

	// Writes returns the declared write bindings.
	Writes() []Binding

	// Execute performs the pass's work for one frame.
	Execute(ctx *PassContext) error
}

// PassConfig builds a Pass from plain fields, for callers that do not
// need a dedicated type.
type PassConfig struct {
	// ID is the unique pass identifier.
	ID string

	// Reads are the declared read bindings.
	Reads []Binding

	// Writes are the declared write bindings.
	Writes []Binding

	// Priority tie-breaks ready passes; lower values run first.
	Priority int

	// Enabled is the per-frame predicate. Nil means always enabled.
	Enabled func() bool

	// Execute performs the pass's work. Nil makes the pass a no-op.
	Execute func(ctx *PassContext) error

	// Dispose releases pass-owned state. Optional.
	Dispose func()
}

// NewPass creates a Pass from a PassConfig.
func NewPass(config PassConfig) Pass {
	return &funcPass{config: config}
}

// funcPass adapts PassConfig to the Pass contract and its optional
// capability interfaces.
type funcPass struct {
	config PassConfig
}

func (p *funcPass) ID() string        { return p.config.ID }
func (p *funcPass) Reads() []Binding  { return p.config.Reads }
func (p *funcPass) Writes() []Binding { return p.config.Writes }
func (p *funcPass) Priority() int     { return p.config.Priority }

func (p *funcPass) Enabled() bool {
	if p.config.Enabled == nil {
		return true
	}
	return p.config.Enabled()
}

func (p *funcPass) Execute(ctx *PassContext) error {
	if p.config.Execute == nil {
		return nil
	}
	return p.config.Execute(ctx)
}

func (p *funcPass) Dispose() {
	if p.config.Dispose != nil {
		p.config.Dispose()
	}
}

// snapshot extracts the compiler's view of a pass.
func snapshot(p Pass) compile.PassNode {
	node := compile.PassNode{
		ID:     p.ID(),
		Reads:  append([]Binding(nil), p.Reads()...),
		Writes: append([]Binding(nil), p.Writes()...),
	}
	if pr, ok := p.(interface{ Priority() int }); ok {
		node.Priority = pr.Priority()
	}
	return node
}

// passEnabled evaluates a pass's optional enabled predicate.
func passEnabled(p Pass) bool {
	if e, ok := p.(interface{ Enabled() bool }); ok {
		return e.Enabled()
	}
	return true
}

// disposePass invokes a pass's optional Dispose.
func disposePass(p Pass) {
	if d, ok := p.(interface{ Dispose() }); ok {
		d.Dispose()
	}
}
