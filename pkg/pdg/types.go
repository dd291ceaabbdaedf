// Package pdg defines data structures for representing Program Dependence Graphs (PDGs).
// A PDG wraps every CFG node with its declared, defined and used variables
// and links the nodes with control and data dependences.
package pdg

import (
	"fmt"

	"github.com/l3aro/go-deodorant/pkg/cfg"
	"github.com/l3aro/go-deodorant/pkg/diag"
	"github.com/l3aro/go-deodorant/pkg/facts"
	"github.com/l3aro/go-deodorant/pkg/resolve"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

// State is the construction stage a node has reached. Nodes only move
// forward.
type State int

const (
	StateUnlinked      State = iota // direct facts only
	StateControlLinked              // governing decision attached
	StateDataLinked                 // data dependences computed
	StateAliasWidened               // alias analysis applied
)

func (s State) String() string {
	switch s {
	case StateUnlinked:
		return "unlinked"
	case StateControlLinked:
		return "control_linked"
	case StateDataLinked:
		return "data_linked"
	case StateAliasWidened:
		return "alias_widened"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DepType represents the type of dependence in a PDG edge.
type DepType string

const (
	DepTypeControl DepType = "control" // Control dependence
	DepTypeData    DepType = "data"    // Data dependence
)

// Edge represents a directed dependence between two PDG nodes.
type Edge struct {
	From cfg.NodeID `json:"from" msgpack:"from"`
	To   cfg.NodeID `json:"to" msgpack:"to"`
	Type DepType    `json:"type" msgpack:"type"`
	// Label is the branch outcome of a control edge or the variable name
	// of a data edge.
	Label    string                    `json:"label" msgpack:"label"`
	Variable variable.AbstractVariable `json:"-" msgpack:"-"`

	LoopCarried bool       `json:"loop_carried,omitempty" msgpack:"loop_carried,omitempty"`
	LoopHeader  cfg.NodeID `json:"loop_header,omitempty" msgpack:"loop_header,omitempty"`
}

// Node is one statement of the PDG. Its id equals the CFG node id.
type Node struct {
	ID  cfg.NodeID
	CFG *cfg.Node

	state    State
	declared *variable.Set[variable.AbstractVariable]
	defined  *variable.Set[variable.AbstractVariable]
	used     *variable.Set[variable.AbstractVariable]
	created  []facts.CreationObject
	thrown   *variable.Set[string]

	// snapshots taken before the first widening
	originalDefined *variable.Set[variable.AbstractVariable]
	originalUsed    *variable.Set[variable.AbstractVariable]

	in  []*Edge
	out []*Edge
	pdg *PDG
}

// PDG represents the complete Program Dependence Graph for a method.
type PDG struct {
	Method string
	CFG    *cfg.CFG
	Nodes  []*Node
	Edges  []*Edge

	resolver resolve.Resolver
	reporter *diag.Reporter
}

// Entry returns the method entry node.
func (p *PDG) Entry() *Node { return p.Nodes[cfg.EntryID] }

// Node returns the node with the given id, or nil.
func (p *PDG) Node(id cfg.NodeID) *Node {
	if id < 0 || int(id) >= len(p.Nodes) {
		return nil
	}
	return p.Nodes[id]
}

// Statements returns every node except entry and exit.
func (p *PDG) Statements() []*Node {
	var out []*Node
	for _, n := range p.Nodes {
		if n.CFG.Type != cfg.NodeTypeEntry && n.CFG.Type != cfg.NodeTypeExit {
			out = append(out, n)
		}
	}
	return out
}

func (p *PDG) addEdge(e *Edge) {
	p.Edges = append(p.Edges, e)
	p.Nodes[e.From].out = append(p.Nodes[e.From].out, e)
	p.Nodes[e.To].in = append(p.Nodes[e.To].in, e)
}

// hasDataEdge reports whether a data edge for v already links from and to.
func (p *PDG) hasDataEdge(from, to cfg.NodeID, v variable.AbstractVariable) bool {
	for _, e := range p.Nodes[from].out {
		if e.Type == DepTypeData && e.To == to && e.Variable == v {
			return true
		}
	}
	return false
}
