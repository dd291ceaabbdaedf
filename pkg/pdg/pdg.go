// Package pdg builds Program Dependence Graphs over Java method CFGs. Nodes
// carry the variables they declare, define and use; edges record control
// and data dependences. A may-alias analysis widens the variable sets of
// each node with the access paths reachable through aliased references.
package pdg

import (
	"context"
	"fmt"

	"github.com/l3aro/go-deodorant/pkg/cfg"
	"github.com/l3aro/go-deodorant/pkg/dfg"
	"github.com/l3aro/go-deodorant/pkg/diag"
	"github.com/l3aro/go-deodorant/pkg/fragment"
	"github.com/l3aro/go-deodorant/pkg/resolve"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

// PDGBuilder builds a Program Dependence Graph from a CFG.
type PDGBuilder struct {
	pdg *PDG
}

// NewPDGBuilder creates a builder over c. The resolver must be the one the
// fragment tree of c was built with.
func NewPDGBuilder(c *cfg.CFG, r resolve.Resolver, reporter *diag.Reporter) *PDGBuilder {
	return &PDGBuilder{pdg: &PDG{
		Method:   c.Method,
		CFG:      c,
		resolver: r,
		reporter: reporter,
	}}
}

// Build constructs the PDG of a method from its fragment tree.
func Build(ctx context.Context, root *fragment.Fragment, r resolve.Resolver, reporter *diag.Reporter) (*PDG, error) {
	c, err := cfg.Build(r.Method().ID(), root, r.Source())
	if err != nil {
		return nil, err
	}
	return NewPDGBuilder(c, r, reporter).Build(ctx)
}

// Build runs the stages in order: node facts, control dependences, data
// dependences, then alias widening with the data dependences it adds.
func (b *PDGBuilder) Build(ctx context.Context) (*PDG, error) {
	b.createNodes()

	steps := []struct {
		name string
		run  func()
	}{
		{"control dependences", b.linkControl},
		{"data dependences", b.linkData},
		{"alias analysis", b.widenAliases},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return b.pdg, fmt.Errorf("building pdg for %s: %s: %w", b.pdg.Method, s.name, err)
		}
		s.run()
	}
	return b.pdg, nil
}

// createNodes wraps every CFG node and collects its facts.
func (b *PDGBuilder) createNodes() {
	p := b.pdg
	p.Nodes = make([]*Node, len(p.CFG.Nodes))
	for _, cn := range p.CFG.Nodes {
		n := &Node{
			ID:       cn.ID,
			CFG:      cn,
			declared: variable.NewSet[variable.AbstractVariable](),
			defined:  variable.NewSet[variable.AbstractVariable](),
			used:     variable.NewSet[variable.AbstractVariable](),
			thrown:   variable.NewSet[string](),
			pdg:      p,
		}
		if cn.ID == cfg.EntryID {
			b.entryFacts(n)
		}
		for _, f := range cn.Facts() {
			for _, v := range f.DeclaredLocalVariables() {
				n.declared.Add(v)
			}
			n.defined.AddAll(f.DefinedVariables()...)
			n.used.AddAll(f.UsedVariables()...)
			n.created = append(n.created, f.Creations()...)
			for _, t := range f.ExceptionsInThrowStatements() {
				n.thrown.Add(t.Type)
			}
			for _, m := range f.MethodInvocations() {
				n.thrown.AddAll(m.ThrownExceptions...)
			}
			for _, m := range f.SuperMethodInvocations() {
				n.thrown.AddAll(m.ThrownExceptions...)
			}
			for _, m := range f.ConstructorInvocations() {
				n.thrown.AddAll(m.ThrownExceptions...)
			}
		}
		p.Nodes[cn.ID] = n
	}
}

// entryFacts makes the entry declare and define the parameters and define
// every field the method accesses.
func (b *PDGBuilder) entryFacts(n *Node) {
	for _, d := range b.pdg.resolver.Parameters() {
		n.declared.Add(variable.NewPlain(d))
		n.defined.Add(variable.NewPlain(d))
	}
	root := n.CFG.Fragment
	if root == nil {
		return
	}
	accessed := append(root.DefinedVariables(), root.UsedVariables()...)
	for _, v := range accessed {
		if v.InitialVariable().IsField() {
			n.defined.Add(v.InitialVariable())
		}
	}
	for _, v := range accessed {
		if variable.IsComposite(v) && v.InitialVariable().IsField() {
			n.defined.Add(v)
		}
	}
}

// nodeDefUse exposes the current node sets to the reaching definitions
// analysis.
type nodeDefUse struct{ p *PDG }

func (d nodeDefUse) Defined(id cfg.NodeID) []variable.AbstractVariable {
	return d.p.Nodes[id].defined.Items()
}

func (d nodeDefUse) Used(id cfg.NodeID) []variable.AbstractVariable {
	return d.p.Nodes[id].used.Items()
}

// addDataEdges runs reaching definitions over the node sets and adds every
// dependence not already present.
func (b *PDGBuilder) addDataEdges() {
	p := b.pdg
	deps := dfg.NewReachingDefsAnalyzer().ComputeDefUseChains(p.CFG, nodeDefUse{p})
	for _, d := range deps {
		if p.hasDataEdge(d.From, d.To, d.Variable) {
			continue
		}
		p.addEdge(&Edge{
			From:        d.From,
			To:          d.To,
			Type:        DepTypeData,
			Label:       d.Name,
			Variable:    d.Variable,
			LoopCarried: d.LoopCarried,
			LoopHeader:  d.LoopHeader,
		})
	}
}

func (b *PDGBuilder) linkData() {
	b.addDataEdges()
	for _, n := range b.pdg.Nodes {
		n.advance(StateDataLinked)
	}
}

// widenAliases propagates reaching alias sets forward to a fixed point,
// widens every node with the set reaching it, and adds the data
// dependences the widened sets introduce.
func (b *PDGBuilder) widenAliases() {
	in := b.reachingAliases()
	for _, n := range b.pdg.Nodes {
		n.ApplyReachingAliasSet(in[n.ID])
	}
	b.addDataEdges()
	for _, n := range b.pdg.Nodes {
		n.advance(StateAliasWidened)
	}
}

// reachingAliases returns the alias set reaching each node. Sets merge by
// union at joins.
func (b *PDGBuilder) reachingAliases() []*ReachingAliasSet {
	p := b.pdg
	c := p.CFG
	in := make([]*ReachingAliasSet, len(p.Nodes))
	out := make([]*ReachingAliasSet, len(p.Nodes))
	for i := range p.Nodes {
		in[i] = NewReachingAliasSet()
		out[i] = NewReachingAliasSet()
	}

	worklist := c.Order()
	queued := make([]bool, len(p.Nodes))
	for _, id := range worklist {
		queued[id] = true
	}
	// each link can only be added a bounded number of times
	budget := len(p.Nodes) * (len(p.Nodes) + 8)
	for len(worklist) > 0 && budget > 0 {
		budget--
		id := worklist[0]
		worklist = worklist[1:]
		queued[id] = false

		merged := NewReachingAliasSet()
		for _, e := range c.Predecessors(id) {
			merged.Union(out[e.From])
		}
		in[id] = merged

		next := merged.Clone()
		p.Nodes[id].UpdateReachingAliasSet(next)
		if next.Equal(out[id]) {
			continue
		}
		out[id] = next
		for _, e := range c.Successors(id) {
			if !queued[e.To] {
				worklist = append(worklist, e.To)
				queued[e.To] = true
			}
		}
	}
	return in
}
