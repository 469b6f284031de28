// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compile

import (
	"container/heap"
	"fmt"
)

// resourceUsage records which passes touch one resource, in declaration
// order. Pass references are indices into the compiler's pass slice.
type resourceUsage struct {
	id    string
	known bool

	writers     []int // AccessWrite and AccessReadWrite
	readers     []int // AccessRead and AccessReadWrite
	readWriters []int // AccessReadWrite only
}

// usageIndex is the per-resource usage map plus a deterministic iteration
// order (first reference wins).
type usageIndex struct {
	passes    []PassNode
	resources map[string]*resourceUsage
	order     []string
}

func (u *usageIndex) get(id string, known bool) *resourceUsage {
	ru, ok := u.resources[id]
	if !ok {
		ru = &resourceUsage{id: id, known: known}
		u.resources[id] = ru
		u.order = append(u.order, id)
	}
	return ru
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// buildUsageIndex walks every pass binding and indexes writers, readers
// and read-write users per resource.
func buildUsageIndex(passes []PassNode, resources map[string]ResourceDecl) *usageIndex {
	u := &usageIndex{
		passes:    passes,
		resources: make(map[string]*resourceUsage),
	}
	for i, p := range passes {
		for _, b := range p.Writes {
			_, known := resources[b.Resource]
			ru := u.get(b.Resource, known)
			if !contains(ru.writers, i) {
				ru.writers = append(ru.writers, i)
			}
			if b.Access == AccessReadWrite {
				if !contains(ru.readWriters, i) {
					ru.readWriters = append(ru.readWriters, i)
				}
				if !contains(ru.readers, i) {
					ru.readers = append(ru.readers, i)
				}
			}
		}
		for _, b := range p.Reads {
			_, known := resources[b.Resource]
			ru := u.get(b.Resource, known)
			if !contains(ru.readers, i) {
				ru.readers = append(ru.readers, i)
			}
			if b.Access == AccessReadWrite {
				if !contains(ru.readWriters, i) {
					ru.readWriters = append(ru.readWriters, i)
				}
				if !contains(ru.writers, i) {
					ru.writers = append(ru.writers, i)
				}
			}
		}
	}
	return u
}

// unknownResourceWarnings reports bindings that reference unregistered
// resources. These never fail compilation; the pool simply has nothing to
// resolve and downstream passes see unbound inputs.
func (u *usageIndex) unknownResourceWarnings() []Warning {
	var out []Warning
	for _, id := range u.order {
		ru := u.resources[id]
		if ru.known {
			continue
		}
		users := make(map[int]bool)
		var order []int
		for _, lists := range [][]int{ru.writers, ru.readers} {
			for _, pi := range lists {
				if !users[pi] {
					users[pi] = true
					order = append(order, pi)
				}
			}
		}
		for _, pi := range order {
			out = append(out, Warning{
				Kind:     WarnUnknownResource,
				Resource: id,
				Pass:     u.passes[pi].ID,
				Message:  fmt.Sprintf("pass %q references unregistered resource %q", u.passes[pi].ID, id),
			})
		}
	}
	return out
}

// edgeSet is a dependency adjacency list with duplicate suppression.
type edgeSet struct {
	n        int
	out      [][]int
	inDegree []int
	seen     map[[2]int]bool
}

func newEdgeSet(n int) *edgeSet {
	return &edgeSet{
		n:        n,
		out:      make([][]int, n),
		inDegree: make([]int, n),
		seen:     make(map[[2]int]bool),
	}
}

// add records the edge from -> to, meaning to depends on from.
func (e *edgeSet) add(from, to int) {
	if from == to {
		return
	}
	key := [2]int{from, to}
	if e.seen[key] {
		return
	}
	e.seen[key] = true
	e.out[from] = append(e.out[from], to)
	e.inDegree[to]++
}

// buildDependencyEdges derives the pass dependency graph from resource
// usage: a reader depends on every writer of the resource it reads.
//
// Two read-write users of the same resource would depend on each other
// under that rule, so read-write users are instead chained in declaration
// order; that is the sanctioned shape for layered temporal effects.
func buildDependencyEdges(passes []PassNode, u *usageIndex) *edgeSet {
	edges := newEdgeSet(len(passes))
	for _, id := range u.order {
		ru := u.resources[id]

		rw := make(map[int]bool, len(ru.readWriters))
		for _, pi := range ru.readWriters {
			rw[pi] = true
		}

		for _, w := range ru.writers {
			for _, r := range ru.readers {
				if rw[w] && rw[r] {
					continue // chained below
				}
				edges.add(w, r)
			}
		}

		for i := 1; i < len(ru.readWriters); i++ {
			edges.add(ru.readWriters[i-1], ru.readWriters[i])
		}
	}
	return edges
}

// readyQueue is a priority queue over pass indices, ordered by declared
// priority then declaration index. The ordering is total, which makes the
// topological sort deterministic.
type readyQueue struct {
	passes  []PassNode
	indices []int
}

func (q *readyQueue) Len() int { return len(q.indices) }

func (q *readyQueue) Less(i, j int) bool {
	a, b := q.passes[q.indices[i]], q.passes[q.indices[j]]
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.index < b.index
}

func (q *readyQueue) Swap(i, j int) {
	q.indices[i], q.indices[j] = q.indices[j], q.indices[i]
}

func (q *readyQueue) Push(x any) {
	q.indices = append(q.indices, x.(int))
}

func (q *readyQueue) Pop() any {
	old := q.indices
	n := len(old)
	v := old[n-1]
	q.indices = old[:n-1]
	return v
}

// topoSort runs Kahn's algorithm over the dependency edges. If any pass
// remains unemitted the remainder contains at least one cycle, which is
// extracted and returned as a *CycleError.
func topoSort(passes []PassNode, edges *edgeSet) ([]PassNode, error) {
	inDegree := make([]int, len(passes))
	copy(inDegree, edges.inDegree)

	q := &readyQueue{passes: passes}
	for i := range passes {
		if inDegree[i] == 0 {
			q.indices = append(q.indices, i)
		}
	}
	heap.Init(q)

	order := make([]PassNode, 0, len(passes))
	emitted := make([]bool, len(passes))
	for q.Len() > 0 {
		i := heap.Pop(q).(int)
		emitted[i] = true
		order = append(order, passes[i])
		for _, dep := range edges.out[i] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				heap.Push(q, dep)
			}
		}
	}

	if len(order) < len(passes) {
		return nil, &CycleError{Passes: extractCycle(passes, edges, emitted)}
	}
	return order, nil
}

// extractCycle walks the unemitted remainder with a coloring DFS and
// returns the pass ids on the first cycle found, in edge order.
func extractCycle(passes []PassNode, edges *edgeSet, emitted []bool) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(passes))
	var path []int
	var cycle []int

	var dfs func(i int) bool
	dfs = func(i int) bool {
		color[i] = gray
		path = append(path, i)
		for _, next := range edges.out[i] {
			if emitted[next] {
				continue
			}
			if color[next] == gray {
				start := 0
				for k, p := range path {
					if p == next {
						start = k
						break
					}
				}
				cycle = append(cycle, path[start:]...)
				return true
			}
			if color[next] == white && dfs(next) {
				return true
			}
		}
		color[i] = black
		path = path[:len(path)-1]
		return false
	}

	for i := range passes {
		if !emitted[i] && color[i] == white {
			if dfs(i) {
				break
			}
		}
	}

	ids := make([]string, len(cycle))
	for i, p := range cycle {
		ids[i] = passes[p].ID
	}
	return ids
}
