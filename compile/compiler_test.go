// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compile

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// buildCompiler registers the given resources and passes in order.
func buildCompiler(t *testing.T, resources []string, passes []PassNode) *Compiler {
	t.Helper()
	c := NewCompiler()
	for _, id := range resources {
		c.AddResource(ResourceDecl{ID: id})
	}
	for _, p := range passes {
		if err := c.AddPass(p); err != nil {
			t.Fatalf("AddPass(%q) = %v", p.ID, err)
		}
	}
	return c
}

func orderIDs(g *CompiledGraph) []string {
	ids := make([]string, len(g.Order))
	for i, p := range g.Order {
		ids[i] = p.ID
	}
	return ids
}

func TestAddPassDuplicate(t *testing.T) {
	c := NewCompiler()
	if err := c.AddPass(PassNode{ID: "a"}); err != nil {
		t.Fatalf("first AddPass = %v", err)
	}
	err := c.AddPass(PassNode{ID: "a"})
	if !errors.Is(err, ErrDuplicatePass) {
		t.Errorf("duplicate AddPass = %v, want ErrDuplicatePass", err)
	}
	if err := c.AddPass(PassNode{}); !errors.Is(err, ErrEmptyPassID) {
		t.Errorf("empty-id AddPass = %v, want ErrEmptyPassID", err)
	}
}

func TestCompileOrdering(t *testing.T) {
	tests := []struct {
		name      string
		resources []string
		passes    []PassNode
		wantOrder []string
	}{
		{
			name:      "writer before reader",
			resources: []string{"color"},
			passes: []PassNode{
				{ID: "post", Reads: []Binding{{Resource: "color", Access: AccessRead}}},
				{ID: "scene", Writes: []Binding{{Resource: "color", Access: AccessWrite}}},
			},
			wantOrder: []string{"scene", "post"},
		},
		{
			name:      "chain of three",
			resources: []string{"a", "b"},
			passes: []PassNode{
				{ID: "p3", Reads: []Binding{{Resource: "b", Access: AccessRead}}},
				{ID: "p2",
					Reads:  []Binding{{Resource: "a", Access: AccessRead}},
					Writes: []Binding{{Resource: "b", Access: AccessWrite}}},
				{ID: "p1", Writes: []Binding{{Resource: "a", Access: AccessWrite}}},
			},
			wantOrder: []string{"p1", "p2", "p3"},
		},
		{
			name:      "independent passes follow declaration order",
			resources: []string{"x", "y"},
			passes: []PassNode{
				{ID: "b", Writes: []Binding{{Resource: "x", Access: AccessWrite}}},
				{ID: "a", Writes: []Binding{{Resource: "y", Access: AccessWrite}}},
			},
			wantOrder: []string{"b", "a"},
		},
		{
			name:      "priority overrides declaration order",
			resources: []string{"x", "y"},
			passes: []PassNode{
				{ID: "late", Priority: 10, Writes: []Binding{{Resource: "x", Access: AccessWrite}}},
				{ID: "early", Priority: -1, Writes: []Binding{{Resource: "y", Access: AccessWrite}}},
			},
			wantOrder: []string{"early", "late"},
		},
		{
			name:      "priority cannot break dependencies",
			resources: []string{"color"},
			passes: []PassNode{
				{ID: "reader", Priority: -100,
					Reads: []Binding{{Resource: "color", Access: AccessRead}}},
				{ID: "writer", Priority: 100,
					Writes: []Binding{{Resource: "color", Access: AccessWrite}}},
			},
			wantOrder: []string{"writer", "reader"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := buildCompiler(t, tt.resources, tt.passes)
			g, err := c.Compile(Options{})
			if err != nil {
				t.Fatalf("Compile() = %v", err)
			}
			if got := orderIDs(g); !reflect.DeepEqual(got, tt.wantOrder) {
				t.Errorf("order = %v, want %v", got, tt.wantOrder)
			}
		})
	}
}

func TestCompileDeterministic(t *testing.T) {
	passes := []PassNode{
		{ID: "d", Writes: []Binding{{Resource: "r4", Access: AccessWrite}}},
		{ID: "c", Writes: []Binding{{Resource: "r3", Access: AccessWrite}}},
		{ID: "b", Writes: []Binding{{Resource: "r2", Access: AccessWrite}}},
		{ID: "a", Reads: []Binding{
			{Resource: "r2", Access: AccessRead},
			{Resource: "r3", Access: AccessRead},
		}},
	}
	c := buildCompiler(t, []string{"r2", "r3", "r4"}, passes)

	first, err := c.Compile(Options{})
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}
	for i := 0; i < 10; i++ {
		g, err := c.Compile(Options{})
		if err != nil {
			t.Fatalf("Compile() = %v", err)
		}
		if !reflect.DeepEqual(orderIDs(g), orderIDs(first)) {
			t.Fatalf("compile %d produced %v, first produced %v", i, orderIDs(g), orderIDs(first))
		}
	}
}

func TestCompileCycle(t *testing.T) {
	c := buildCompiler(t, []string{"a", "b"}, []PassNode{
		{ID: "p1",
			Reads:  []Binding{{Resource: "b", Access: AccessRead}},
			Writes: []Binding{{Resource: "a", Access: AccessWrite}}},
		{ID: "p2",
			Reads:  []Binding{{Resource: "a", Access: AccessRead}},
			Writes: []Binding{{Resource: "b", Access: AccessWrite}}},
	})

	_, err := c.Compile(Options{})
	if err == nil {
		t.Fatal("Compile() succeeded on a cyclic graph")
	}
	var cerr *CycleError
	if !errors.As(err, &cerr) {
		t.Fatalf("Compile() = %v, want *CycleError", err)
	}
	want := map[string]bool{"p1": true, "p2": true}
	if len(cerr.Passes) != 2 {
		t.Fatalf("cycle members = %v, want both of p1, p2", cerr.Passes)
	}
	for _, id := range cerr.Passes {
		if !want[id] {
			t.Errorf("unexpected cycle member %q", id)
		}
	}
	if !strings.Contains(cerr.Error(), "p1") {
		t.Errorf("error text %q does not name the cycle", cerr.Error())
	}
}

func TestCompileCycleNamesOnlyCycleMembers(t *testing.T) {
	// "down" depends on the cycle but is not on it.
	c := buildCompiler(t, []string{"a", "b", "c"}, []PassNode{
		{ID: "p1",
			Reads:  []Binding{{Resource: "b", Access: AccessRead}},
			Writes: []Binding{{Resource: "a", Access: AccessWrite}}},
		{ID: "p2",
			Reads:  []Binding{{Resource: "a", Access: AccessRead}},
			Writes: []Binding{{Resource: "b", Access: AccessWrite}, {Resource: "c", Access: AccessWrite}}},
		{ID: "down", Reads: []Binding{{Resource: "c", Access: AccessRead}}},
	})

	_, err := c.Compile(Options{})
	var cerr *CycleError
	if !errors.As(err, &cerr) {
		t.Fatalf("Compile() = %v, want *CycleError", err)
	}
	for _, id := range cerr.Passes {
		if id == "down" {
			t.Errorf("cycle members %v include %q, which only depends on the cycle", cerr.Passes, id)
		}
	}
}

func TestPingPongDetection(t *testing.T) {
	tests := []struct {
		name     string
		passes   []PassNode
		resource string
		want     bool
	}{
		{
			name: "read-write access",
			passes: []PassNode{
				{ID: "taa", Writes: []Binding{{Resource: "history", Access: AccessReadWrite}}},
			},
			resource: "history",
			want:     true,
		},
		{
			name: "two writers",
			passes: []PassNode{
				{ID: "w1", Writes: []Binding{{Resource: "accum", Access: AccessWrite}}},
				{ID: "w2", Writes: []Binding{{Resource: "accum", Access: AccessWrite}}},
			},
			resource: "accum",
			want:     true,
		},
		{
			name: "same pass reads and writes via separate bindings",
			passes: []PassNode{
				{ID: "feedback",
					Reads:  []Binding{{Resource: "trail", Access: AccessRead}},
					Writes: []Binding{{Resource: "trail", Access: AccessWrite}}},
			},
			resource: "trail",
			want:     true,
		},
		{
			name: "single writer single reader",
			passes: []PassNode{
				{ID: "scene", Writes: []Binding{{Resource: "color", Access: AccessWrite}}},
				{ID: "post", Reads: []Binding{{Resource: "color", Access: AccessRead}}},
			},
			resource: "color",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := buildCompiler(t, []string{tt.resource}, tt.passes)
			g, err := c.Compile(Options{})
			if err != nil {
				t.Fatalf("Compile() = %v", err)
			}
			if g.PingPong[tt.resource] != tt.want {
				t.Errorf("PingPong[%q] = %v, want %v", tt.resource, g.PingPong[tt.resource], tt.want)
			}
			// Hazard handling is the sanctioned shape; it must not warn.
			for _, w := range g.Warnings {
				if w.Resource == tt.resource && tt.want {
					t.Errorf("unexpected warning for double-buffered resource: %v", w)
				}
			}
		})
	}
}

func TestCompileWarnings(t *testing.T) {
	tests := []struct {
		name      string
		resources []string
		passes    []PassNode
		wantKind  WarningKind
		wantNone  bool
	}{
		{
			name:      "unknown resource reference",
			resources: nil,
			passes: []PassNode{
				{ID: "p", Reads: []Binding{{Resource: "ghost", Access: AccessRead}}},
			},
			wantKind: WarnUnknownResource,
		},
		{
			name:      "resource read but never written",
			resources: []string{"lut"},
			passes: []PassNode{
				{ID: "p", Reads: []Binding{{Resource: "lut", Access: AccessRead}}},
			},
			wantKind: WarnNoWriter,
		},
		{
			name:      "clean graph has no warnings",
			resources: []string{"color"},
			passes: []PassNode{
				{ID: "scene", Writes: []Binding{{Resource: "color", Access: AccessWrite}}},
				{ID: "post", Reads: []Binding{{Resource: "color", Access: AccessRead}}},
			},
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := buildCompiler(t, tt.resources, tt.passes)
			g, err := c.Compile(Options{})
			if err != nil {
				t.Fatalf("Compile() = %v", err)
			}
			if tt.wantNone {
				if len(g.Warnings) != 0 {
					t.Errorf("warnings = %v, want none", g.Warnings)
				}
				return
			}
			found := false
			for _, w := range g.Warnings {
				if w.Kind == tt.wantKind {
					found = true
				}
			}
			if !found {
				t.Errorf("warnings = %v, want one of kind %v", g.Warnings, tt.wantKind)
			}
		})
	}
}

func TestSimulationStates(t *testing.T) {
	// Write in one pass, sample in the next: the target is promoted to
	// sampleable at pass completion and the chain stays clean.
	c := buildCompiler(t, []string{"a", "b"}, []PassNode{
		{ID: "p1", Writes: []Binding{{Resource: "a", Access: AccessWrite}}},
		{ID: "p2",
			Reads:  []Binding{{Resource: "a", Access: AccessRead}},
			Writes: []Binding{{Resource: "b", Access: AccessWrite}}},
		{ID: "p3", Reads: []Binding{{Resource: "b", Access: AccessRead}}},
	})
	g, err := c.Compile(Options{})
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}
	for _, w := range g.Warnings {
		if w.Kind == WarnInvalidTransition {
			t.Errorf("unexpected transition warning: %v", w)
		}
	}

	// A read with no writer anywhere samples the resource still in its
	// created state.
	c = buildCompiler(t, []string{"lut"}, []PassNode{
		{ID: "p", Reads: []Binding{{Resource: "lut", Access: AccessRead}}},
	})
	g, err = c.Compile(Options{})
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}
	found := false
	for _, w := range g.Warnings {
		if w.Kind == WarnInvalidTransition && strings.Contains(w.Message, "Created") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want InvalidTransition naming the Created state", g.Warnings)
	}
}

func TestCompileNoWarningsOption(t *testing.T) {
	c := buildCompiler(t, nil, []PassNode{
		{ID: "p", Reads: []Binding{{Resource: "ghost", Access: AccessRead}}},
	})
	g, err := c.Compile(Options{NoWarnings: true})
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}
	if len(g.Warnings) != 0 {
		t.Errorf("warnings = %v, want none with NoWarnings", g.Warnings)
	}
}

func TestAllocationOrder(t *testing.T) {
	c := buildCompiler(t, []string{"color", "bloom", "unused"}, []PassNode{
		{ID: "scene", Writes: []Binding{{Resource: "color", Access: AccessWrite}}},
		{ID: "blur",
			Reads:  []Binding{{Resource: "color", Access: AccessRead}},
			Writes: []Binding{{Resource: "bloom", Access: AccessWrite}}},
	})
	g, err := c.Compile(Options{})
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}
	// First appearance wins, outputs before inputs, untouched resources last.
	want := []string{"color", "bloom", "unused"}
	if !reflect.DeepEqual(g.AllocationOrder, want) {
		t.Errorf("AllocationOrder = %v, want %v", g.AllocationOrder, want)
	}
}

func TestRemovePassAndResource(t *testing.T) {
	c := buildCompiler(t, []string{"color"}, []PassNode{
		{ID: "scene", Writes: []Binding{{Resource: "color", Access: AccessWrite}}},
		{ID: "post", Reads: []Binding{{Resource: "color", Access: AccessRead}}},
	})

	c.RemovePass("post")
	if c.HasPass("post") {
		t.Error("HasPass(post) = true after RemovePass")
	}
	g, err := c.Compile(Options{})
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}
	if got := orderIDs(g); !reflect.DeepEqual(got, []string{"scene"}) {
		t.Errorf("order = %v, want [scene]", got)
	}

	c.RemoveResource("color")
	g, err = c.Compile(Options{})
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}
	found := false
	for _, w := range g.Warnings {
		if w.Kind == WarnUnknownResource && w.Resource == "color" {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want UnknownResource for removed resource", g.Warnings)
	}
}

// TestEndToEndScenario is the canonical two-pass shape: A writes "color",
// B reads "color" and read-writes "history".
func TestEndToEndScenario(t *testing.T) {
	c := buildCompiler(t, []string{"color", "history"}, []PassNode{
		{ID: "B",
			Reads:  []Binding{{Resource: "color", Access: AccessRead}},
			Writes: []Binding{{Resource: "history", Access: AccessReadWrite}}},
		{ID: "A", Writes: []Binding{{Resource: "color", Access: AccessWrite}}},
	})

	g, err := c.Compile(Options{})
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}
	if got := orderIDs(g); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("order = %v, want [A B]", got)
	}
	if !g.PingPong["history"] {
		t.Error("history not marked for double-buffering")
	}
	if g.PingPong["color"] {
		t.Error("color wrongly marked for double-buffering")
	}
	for _, w := range g.Warnings {
		if w.Resource == "color" {
			t.Errorf("unexpected warning for color: %v", w)
		}
	}
}

func TestDOT(t *testing.T) {
	c := buildCompiler(t, []string{"color", "history"}, []PassNode{
		{ID: "scene", Writes: []Binding{{Resource: "color", Access: AccessWrite}}},
		{ID: "taa",
			Reads:  []Binding{{Resource: "color", Access: AccessRead}},
			Writes: []Binding{{Resource: "history", Access: AccessReadWrite}}},
	})
	g, err := c.Compile(Options{})
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}

	dot := g.DOT()
	for _, want := range []string{
		"digraph rendergraph",
		`"scene" -> "taa"`,
		"double-buffered: history",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}
