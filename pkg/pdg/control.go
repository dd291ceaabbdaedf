package pdg

import (
	"sort"

	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/l3aro/go-deodorant/pkg/cfg"
)

// postDominators computes the post-dominator tree of the CFG, augmented
// with an entry -> exit edge so that every top-level statement is governed
// by the entry.
func postDominators(c *cfg.CFG) flow.DominatorTree {
	g := simple.NewDirectedGraph()
	for _, n := range c.Nodes {
		g.AddNode(simple.Node(n.ID))
	}
	// reversed edges; simple graphs reject self loops
	add := func(from, to cfg.NodeID) {
		if from == to || g.HasEdgeFromTo(int64(from), int64(to)) {
			return
		}
		g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}
	for _, e := range c.Edges {
		add(e.To, e.From)
	}
	add(c.Exit, cfg.EntryID)
	return flow.Dominators(simple.Node(c.Exit), g)
}

// linkControl adds a control dependence A -> N for every node N that lies
// on a path from a successor of A up to, but excluding, the immediate
// post-dominator of A. A loop header is not made dependent on itself.
func (b *PDGBuilder) linkControl() {
	c := b.pdg.CFG
	pdom := postDominators(c)
	ipdom := func(id cfg.NodeID) (cfg.NodeID, bool) {
		d := pdom.DominatorOf(int64(id))
		if d == nil {
			return -1, false
		}
		return cfg.NodeID(d.ID()), true
	}

	type dep struct {
		from  cfg.NodeID
		label string
	}
	deps := make([][]dep, len(c.Nodes))
	seen := map[[2]cfg.NodeID]bool{}
	for _, e := range c.Edges {
		stop, hasStop := ipdom(e.From)
		runner := e.To
		for {
			if hasStop && runner == stop {
				break
			}
			if runner != e.From && runner != c.Exit && runner != cfg.EntryID && !seen[[2]cfg.NodeID{e.From, runner}] {
				seen[[2]cfg.NodeID{e.From, runner}] = true
				deps[runner] = append(deps[runner], dep{from: e.From, label: string(e.Type)})
			}
			next, ok := ipdom(runner)
			if !ok {
				break
			}
			runner = next
		}
	}

	for _, n := range b.pdg.Nodes {
		id := n.ID
		if id == cfg.EntryID || id == c.Exit {
			n.advance(StateControlLinked)
			continue
		}
		ds := deps[id]
		if len(ds) == 0 {
			// unreachable from entry or unable to reach exit
			ds = []dep{{from: cfg.EntryID, label: string(cfg.EdgeTypeUnconditional)}}
		}
		// innermost enclosing decision first
		sort.SliceStable(ds, func(i, j int) bool {
			ei, ej := encloses(c.Node(ds[i].from), n.CFG), encloses(c.Node(ds[j].from), n.CFG)
			if ei != ej {
				return ei
			}
			return ds[i].from > ds[j].from
		})
		for _, d := range ds {
			b.pdg.addEdge(&Edge{From: d.from, To: id, Type: DepTypeControl, Label: d.label})
		}
		n.advance(StateControlLinked)
	}
}

// encloses reports whether the statement of a syntactically contains n.
func encloses(a, n *cfg.Node) bool {
	if a.ID == cfg.EntryID {
		return true
	}
	if a.Fragment == nil || n.Fragment == nil {
		return false
	}
	for f := n.Fragment.Parent(); f != nil; f = f.Parent() {
		if f == a.Fragment {
			return true
		}
	}
	return false
}
