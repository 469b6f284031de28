// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compile turns declared passes and resources into a validated
// execution plan: a deterministic pass order, the set of resources that
// need double-buffering, and an allocation order, alongside non-fatal
// warnings. Only dependency cycles fail compilation.
package compile

import (
	"errors"
	"fmt"
	"sort"
)

// Compiler errors.
var (
	// ErrDuplicatePass is returned when a pass id is registered twice.
	ErrDuplicatePass = errors.New("compile: duplicate pass id")

	// ErrEmptyPassID is returned when a pass is registered without an id.
	ErrEmptyPassID = errors.New("compile: empty pass id")
)

// Options tunes a single Compile call.
type Options struct {
	// NoWarnings drops all warning collection. The compiled order, hazard
	// set and allocation order are unaffected.
	NoWarnings bool
}

// Compiler accumulates pass and resource declarations and compiles them
// into a CompiledGraph. Compile is pure over the declared state: the same
// declarations always produce an identical plan.
//
// Compiler is NOT safe for concurrent use.
type Compiler struct {
	passes    []PassNode
	passIDs   map[string]bool
	resources map[string]ResourceDecl
}

// NewCompiler creates an empty compiler.
func NewCompiler() *Compiler {
	return &Compiler{
		passIDs:   make(map[string]bool),
		resources: make(map[string]ResourceDecl),
	}
}

// AddPass registers a pass snapshot. Fails if the id is empty or already
// registered.
func (c *Compiler) AddPass(node PassNode) error {
	if node.ID == "" {
		return ErrEmptyPassID
	}
	if c.passIDs[node.ID] {
		return fmt.Errorf("%w: %q", ErrDuplicatePass, node.ID)
	}
	node.index = len(c.passes)
	c.passes = append(c.passes, node)
	c.passIDs[node.ID] = true
	return nil
}

// RemovePass unregisters a pass by id. Unknown ids are ignored.
func (c *Compiler) RemovePass(id string) {
	if !c.passIDs[id] {
		return
	}
	delete(c.passIDs, id)
	passes := c.passes[:0]
	for _, p := range c.passes {
		if p.ID != id {
			p.index = len(passes)
			passes = append(passes, p)
		}
	}
	c.passes = passes
}

// AddResource registers a resource declaration, replacing any previous
// declaration with the same id.
func (c *Compiler) AddResource(decl ResourceDecl) {
	c.resources[decl.ID] = decl
}

// RemoveResource unregisters a resource by id. Unknown ids are ignored.
func (c *Compiler) RemoveResource(id string) {
	delete(c.resources, id)
}

// PassCount returns the number of registered passes.
func (c *Compiler) PassCount() int { return len(c.passes) }

// HasPass reports whether a pass with the given id is registered.
func (c *Compiler) HasPass(id string) bool { return c.passIDs[id] }

// Compile builds the execution plan from the current declarations.
//
// The only fatal failure is a dependency cycle, reported as *CycleError.
// Every other finding (unknown resources, read-before-write hazards,
// state-machine violations) is collected as a warning so the caller can
// keep rendering with degraded correctness.
func (c *Compiler) Compile(opts Options) (*CompiledGraph, error) {
	usage := buildUsageIndex(c.passes, c.resources)

	var warnings []Warning
	if !opts.NoWarnings {
		warnings = append(warnings, usage.unknownResourceWarnings()...)
	}

	edges := buildDependencyEdges(c.passes, usage)
	order, err := topoSort(c.passes, edges)
	if err != nil {
		return nil, err
	}

	pingPong := detectPingPong(usage)

	if !opts.NoWarnings {
		warnings = append(warnings, checkReadBeforeWrite(order, usage, pingPong)...)
		warnings = append(warnings, simulateTransitions(order, usage, pingPong)...)
	}

	return &CompiledGraph{
		Order:           order,
		Edges:           edgeList(c.passes, edges),
		PingPong:        pingPong,
		AllocationOrder: allocationOrder(order, c.resources),
		Warnings:        warnings,
	}, nil
}

// allocationOrder lists known resources by first appearance across the
// ordered passes, write bindings before read bindings within each pass.
// Resources no pass touches come last, sorted by id for determinism.
func allocationOrder(order []PassNode, resources map[string]ResourceDecl) []string {
	var out []string
	seen := make(map[string]bool, len(resources))

	appendRes := func(id string) {
		if seen[id] {
			return
		}
		if _, known := resources[id]; !known {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	for _, p := range order {
		for _, b := range p.Writes {
			appendRes(b.Resource)
		}
		for _, b := range p.Reads {
			appendRes(b.Resource)
		}
	}

	var untouched []string
	for id := range resources {
		if !seen[id] {
			untouched = append(untouched, id)
		}
	}
	sort.Strings(untouched)
	return append(out, untouched...)
}
