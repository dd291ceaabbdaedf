package dfg

import (
	"container/list"

	"golang.org/x/tools/container/intsets"

	"github.com/l3aro/go-deodorant/pkg/cfg"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

// ReachingDefsAnalyzer performs reaching definitions analysis on a control flow graph.
// It uses a worklist-based algorithm to compute which definitions reach each node,
// then builds def-use chains from these results.
type ReachingDefsAnalyzer struct {
	defs []Definition
	// gen maps node ID to the definitions generated there
	gen []intsets.Sparse
	// kill maps node ID to the definitions it overwrites
	kill []intsets.Sparse
}

// NewReachingDefsAnalyzer creates a new ReachingDefsAnalyzer.
func NewReachingDefsAnalyzer() *ReachingDefsAnalyzer {
	return &ReachingDefsAnalyzer{}
}

// Definitions returns every definition found by the last run, indexed by
// definition ID.
func (r *ReachingDefsAnalyzer) Definitions() []Definition { return r.defs }

// ComputeDefUseChains returns one dependence per definition that reaches a
// use of the same variable in another node. Dependences that only exist
// around a loop back edge are marked loop carried.
func (r *ReachingDefsAnalyzer) ComputeDefUseChains(g *cfg.CFG, du DefUse) []Dependence {
	if g == nil || len(g.Nodes) == 0 {
		return nil
	}
	r.initialize(g, du)

	full := r.solve(g, false)
	forward := r.solve(g, true)

	var deps []Dependence
	type pair struct {
		from, to cfg.NodeID
		v        variable.AbstractVariable
	}
	seen := map[pair]bool{}
	var ids []int
	for _, n := range g.Nodes {
		uses := du.Used(n.ID)
		if len(uses) == 0 {
			continue
		}
		ids = full[n.ID].AppendTo(ids[:0])
		for _, u := range uses {
			for _, id := range ids {
				d := r.defs[id]
				if d.Node == n.ID || d.Variable != u {
					continue
				}
				p := pair{d.Node, n.ID, u}
				if seen[p] {
					continue
				}
				seen[p] = true
				dep := Dependence{From: d.Node, To: n.ID, Variable: u, Name: u.Name()}
				if !forward[n.ID].Has(id) {
					if loop := g.InnermostLoop(d.Node, n.ID); loop != nil {
						dep.LoopCarried = true
						dep.LoopHeader = loop.Header
					}
				}
				deps = append(deps, dep)
			}
		}
	}
	return deps
}

// initialize numbers definitions and builds gen/kill sets.
func (r *ReachingDefsAnalyzer) initialize(g *cfg.CFG, du DefUse) {
	r.defs = r.defs[:0]
	r.gen = make([]intsets.Sparse, len(g.Nodes))
	r.kill = make([]intsets.Sparse, len(g.Nodes))

	defined := make([][]variable.AbstractVariable, len(g.Nodes))
	for _, n := range g.Nodes {
		defined[n.ID] = du.Defined(n.ID)
		for _, v := range defined[n.ID] {
			r.gen[n.ID].Insert(len(r.defs))
			r.defs = append(r.defs, Definition{Node: n.ID, Variable: v})
		}
	}

	// A definition of v kills every other definition of v and of paths
	// rooted at v.
	for _, n := range g.Nodes {
		for _, v := range defined[n.ID] {
			for id, d := range r.defs {
				if d.Node != n.ID && variable.StartsWith(d.Variable, v) {
					r.kill[n.ID].Insert(id)
				}
			}
		}
	}
}

// solve runs the worklist to a fixed point and returns the in set of every
// node. With forwardOnly the loop-closing edges are ignored.
func (r *ReachingDefsAnalyzer) solve(g *cfg.CFG, forwardOnly bool) []intsets.Sparse {
	in := make([]intsets.Sparse, len(g.Nodes))
	out := make([]intsets.Sparse, len(g.Nodes))

	worklist := list.New()
	queued := make([]bool, len(g.Nodes))
	for _, id := range g.Order() {
		worklist.PushBack(id)
		queued[id] = true
	}

	var next intsets.Sparse
	for worklist.Len() > 0 {
		id := worklist.Remove(worklist.Front()).(cfg.NodeID)
		queued[id] = false

		// in[n] = union of out[p] for all predecessors
		in[id].Clear()
		for _, e := range g.Predecessors(id) {
			if forwardOnly && e.Back {
				continue
			}
			in[id].UnionWith(&out[e.From])
		}

		// out[n] = gen[n] U (in[n] - kill[n])
		next.Copy(&in[id])
		next.DifferenceWith(&r.kill[id])
		next.UnionWith(&r.gen[id])

		if next.Equals(&out[id]) {
			continue
		}
		out[id].Copy(&next)
		for _, e := range g.Successors(id) {
			if forwardOnly && e.Back {
				continue
			}
			if !queued[e.To] {
				worklist.PushBack(e.To)
				queued[e.To] = true
			}
		}
	}
	return in
}
