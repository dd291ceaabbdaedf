// Package dfg computes data dependences over a control flow graph using
// reaching definitions.
package dfg

import (
	"github.com/l3aro/go-deodorant/pkg/cfg"
	"github.com/l3aro/go-deodorant/pkg/fragment"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

// DefUse supplies the variables each node defines and uses.
type DefUse interface {
	Defined(id cfg.NodeID) []variable.AbstractVariable
	Used(id cfg.NodeID) []variable.AbstractVariable
}

// Definition is a definition of a variable at a node.
type Definition struct {
	Node     cfg.NodeID
	Variable variable.AbstractVariable
}

// Dependence is a def-use chain between two nodes.
type Dependence struct {
	From     cfg.NodeID                `json:"from" msgpack:"from"`
	To       cfg.NodeID                `json:"to" msgpack:"to"`
	Variable variable.AbstractVariable `json:"-" msgpack:"-"`
	Name     string                    `json:"variable" msgpack:"variable"`

	// LoopCarried is set when the definition reaches the use only around
	// the loop headed by LoopHeader.
	LoopCarried bool       `json:"loop_carried,omitempty" msgpack:"loop_carried,omitempty"`
	LoopHeader  cfg.NodeID `json:"loop_header,omitempty" msgpack:"loop_header,omitempty"`
}

// FactsDefUse reads definitions and uses off the fragments owned by each
// node.
type FactsDefUse struct {
	Graph *cfg.CFG
}

func (d FactsDefUse) collect(id cfg.NodeID, get func(*fragment.Fragment) []variable.AbstractVariable) []variable.AbstractVariable {
	n := d.Graph.Node(id)
	if n == nil {
		return nil
	}
	s := variable.NewSet[variable.AbstractVariable]()
	for _, f := range n.Facts() {
		s.AddAll(get(f)...)
	}
	return s.Items()
}

// Defined returns declared and defined variables of the node.
func (d FactsDefUse) Defined(id cfg.NodeID) []variable.AbstractVariable {
	return d.collect(id, (*fragment.Fragment).DefinedVariables)
}

// Used returns the variables the node reads.
func (d FactsDefUse) Used(id cfg.NodeID) []variable.AbstractVariable {
	return d.collect(id, (*fragment.Fragment).UsedVariables)
}
