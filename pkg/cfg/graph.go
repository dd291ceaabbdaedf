package cfg

import (
	"sort"

	"github.com/yourbasic/graph"
)

func (c *CFG) index() {
	c.succ = make([][]Edge, len(c.Nodes))
	c.pred = make([][]Edge, len(c.Nodes))
	for _, e := range c.Edges {
		c.succ[e.From] = append(c.succ[e.From], e)
		c.pred[e.To] = append(c.pred[e.To], e)
	}
}

// Node returns the node with the given id, or nil.
func (c *CFG) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(c.Nodes) {
		return nil
	}
	return c.Nodes[id]
}

// Successors returns the outgoing edges of id.
func (c *CFG) Successors(id NodeID) []Edge { return c.succ[id] }

// Predecessors returns the incoming edges of id.
func (c *CFG) Predecessors(id NodeID) []Edge { return c.pred[id] }

// Statements returns every node except entry and exit.
func (c *CFG) Statements() []*Node {
	var out []*Node
	for _, n := range c.Nodes {
		if n.Type != NodeTypeEntry && n.Type != NodeTypeExit {
			out = append(out, n)
		}
	}
	return out
}

// NodeAtLine returns the first statement node starting on line.
func (c *CFG) NodeAtLine(line int) *Node {
	for _, n := range c.Statements() {
		if n.Line == line {
			return n
		}
	}
	return nil
}

// Loops returns the loop statements, outer loops first.
func (c *CFG) Loops() []*Loop {
	out := append([]*Loop(nil), c.loops...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Nodes.Len() > out[j].Nodes.Len() })
	return out
}

// InnermostLoop returns the smallest loop containing every id, or nil.
func (c *CFG) InnermostLoop(ids ...NodeID) *Loop {
	var best *Loop
	for _, l := range c.loops {
		all := true
		for _, id := range ids {
			if !l.Contains(id) {
				all = false
				break
			}
		}
		if all && (best == nil || l.Nodes.Len() < best.Nodes.Len()) {
			best = l
		}
	}
	return best
}

// Graph returns the adjacency graph. With forwardOnly the loop-closing
// edges are left out, which makes the graph acyclic.
func (c *CFG) Graph(forwardOnly bool) *graph.Mutable {
	g := graph.New(len(c.Nodes))
	for _, e := range c.Edges {
		if forwardOnly && e.Back {
			continue
		}
		g.Add(int(e.From), int(e.To))
	}
	return g
}

// Order returns the nodes in a topological order of the forward graph.
// Worklist solvers converge fastest when seeded in this order.
func (c *CFG) Order() []NodeID {
	order, ok := graph.TopSort(c.Graph(true))
	if !ok {
		order = make([]int, len(c.Nodes))
		for i := range order {
			order[i] = i
		}
	}
	out := make([]NodeID, len(order))
	for i, v := range order {
		out[i] = NodeID(v)
	}
	return out
}

// Cycles returns the strongly connected components that contain a cycle.
func (c *CFG) Cycles() [][]NodeID {
	var out [][]NodeID
	for _, comp := range graph.StrongComponents(c.Graph(false)) {
		if len(comp) < 2 {
			continue
		}
		ids := make([]NodeID, len(comp))
		for i, v := range comp {
			ids[i] = NodeID(v)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Reachable reports whether to can be reached from from.
func (c *CFG) Reachable(from, to NodeID) bool {
	found := from == to
	graph.BFS(c.Graph(false), int(from), func(_, w int, _ int64) {
		if NodeID(w) == to {
			found = true
		}
	})
	return found
}

func (c *CFG) basicBlocks() []BasicBlock {
	leader := make([]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		preds := c.pred[n.ID]
		switch {
		case n.ID == EntryID, len(preds) != 1:
			leader[n.ID] = true
		case len(c.succ[preds[0].From]) != 1:
			leader[n.ID] = true
		}
	}

	blockOf := make([]int, len(c.Nodes))
	var blocks []BasicBlock
	for _, n := range c.Nodes {
		if !leader[n.ID] {
			continue
		}
		bb := BasicBlock{ID: len(blocks)}
		for cur := n.ID; ; {
			bb.Nodes = append(bb.Nodes, cur)
			blockOf[cur] = bb.ID
			succ := c.succ[cur]
			if len(succ) != 1 || leader[succ[0].To] {
				break
			}
			cur = succ[0].To
		}
		blocks = append(blocks, bb)
	}

	for i := range blocks {
		last := blocks[i].Nodes[len(blocks[i].Nodes)-1]
		seen := map[int]bool{}
		for _, e := range c.succ[last] {
			to := blockOf[e.To]
			if !seen[to] {
				seen[to] = true
				blocks[i].Successors = append(blocks[i].Successors, to)
				blocks[to].Predecessors = append(blocks[to].Predecessors, i)
			}
		}
	}
	return blocks
}

// complexity counts one plus the extra ways out of every decision.
func (c *CFG) complexity() int {
	n := 1
	for _, succ := range c.succ {
		targets := map[NodeID]bool{}
		for _, e := range succ {
			targets[e.To] = true
		}
		if len(targets) > 1 {
			n += len(targets) - 1
		}
	}
	return n
}
