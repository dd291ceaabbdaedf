package pdg

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-deodorant/pkg/cfg"
	"github.com/l3aro/go-deodorant/pkg/facts"
	"github.com/l3aro/go-deodorant/pkg/fragment"
	"github.com/l3aro/go-deodorant/pkg/syntax"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

// State returns the construction stage of the node.
func (n *Node) State() State { return n.state }

// advance moves the node to a later stage.
func (n *Node) advance(to State) {
	if to < n.state {
		panic("pdg: node " + n.CFG.Text + " moved from " + n.state.String() + " back to " + to.String())
	}
	n.state = to
}

// Declared returns the variables the node declares.
func (n *Node) Declared() []variable.AbstractVariable { return n.declared.Items() }

// Defined returns the variables the node defines, alias widening included.
func (n *Node) Defined() []variable.AbstractVariable { return n.defined.Items() }

// Used returns the variables the node uses, alias widening included.
func (n *Node) Used() []variable.AbstractVariable { return n.used.Items() }

// ThrownExceptionTypes returns the exception types the node may throw.
func (n *Node) ThrownExceptionTypes() []string { return n.thrown.Items() }

// Incoming returns the dependences ending at the node.
func (n *Node) Incoming() []*Edge { return n.in }

// Outgoing returns the dependences leaving the node.
func (n *Node) Outgoing() []*Edge { return n.out }

// ControlDependenceParent returns the source of the first incoming control
// dependence, or nil for the entry node.
func (n *Node) ControlDependenceParent() *Node {
	for _, e := range n.in {
		if e.Type == DepTypeControl {
			return n.pdg.Nodes[e.From]
		}
	}
	return nil
}

// HasIncomingControlDependenceFromEntry reports whether the node is governed
// directly by the method entry.
func (n *Node) HasIncomingControlDependenceFromEntry() bool {
	for _, e := range n.in {
		if e.Type == DepTypeControl && e.From == cfg.EntryID {
			return true
		}
	}
	return false
}

func (n *Node) DeclaresLocalVariable(v variable.AbstractVariable) bool {
	return n.declared.Contains(v)
}

func (n *Node) DefinesLocalVariable(v variable.AbstractVariable) bool {
	return n.defined.Contains(v)
}

func (n *Node) UsesLocalVariable(v variable.AbstractVariable) bool {
	return n.used.Contains(v)
}

// ContainsClassInstanceCreation reports whether the node creates an object.
func (n *Node) ContainsClassInstanceCreation() bool {
	for _, c := range n.created {
		if _, ok := c.(facts.ClassInstanceCreation); ok {
			return true
		}
	}
	return false
}

// ThrowsException reports whether the node is a throw statement.
func (n *Node) ThrowsException() bool {
	return n.CFG.Statement == fragment.StatementThrow
}

// InstantiatesLocalVariable reports whether the node defines the plain
// variable v with an object whose class, superclass or one of the
// superclass's interfaces is the declared type of v.
func (n *Node) InstantiatesLocalVariable(v variable.AbstractVariable) bool {
	p, ok := v.(variable.Plain)
	if !ok || !n.defined.Contains(p) {
		return false
	}
	want := syntax.BaseTypeName(p.Type())
	for _, c := range n.created {
		creation, ok := c.(facts.ClassInstanceCreation)
		if !ok {
			continue
		}
		class := creation.Type.SimpleName()
		if class == want {
			return true
		}
		super := n.pdg.resolver.Superclass(class)
		if super == "" {
			continue
		}
		if syntax.SimpleName(super) == want {
			return true
		}
		for _, iface := range n.pdg.resolver.Interfaces(super) {
			if syntax.SimpleName(iface) == want {
				return true
			}
		}
	}
	return false
}

// ChangesStateOfReference reports whether the node writes through d.
func (n *Node) ChangesStateOfReference(d variable.Decl) bool {
	for _, v := range n.defined.Items() {
		if c, ok := v.(variable.Composite); ok && c.Head == d {
			return true
		}
	}
	return false
}

// AccessesReference reports whether the node reads d itself.
func (n *Node) AccessesReference(d variable.Decl) bool {
	for _, v := range n.used.Items() {
		if p, ok := v.(variable.Plain); ok && p.Decl == d {
			return true
		}
	}
	return false
}

// AssignsReference reports whether the node copies d into another variable
// by initialization or assignment.
func (n *Node) AssignsReference(d variable.Decl) bool {
	for _, rhs := range n.assignedValues() {
		if got, ok := n.reference(rhs); ok && got == d {
			return true
		}
	}
	return false
}

// Instantiation is a variable assigned a freshly created object.
type Instantiation struct {
	Variable variable.Decl
	Creation syntax.Key
	Type     string
}

// ClassInstantiations returns the variables the node initializes or assigns
// with a `new` expression.
func (n *Node) ClassInstantiations() []Instantiation {
	stmt := n.syntax()
	if stmt == nil {
		return nil
	}
	r := n.pdg.resolver
	src := r.Source()
	var out []Instantiation
	add := func(d variable.Decl, value *sitter.Node) {
		if value == nil || value.Type() != "object_creation_expression" {
			return
		}
		out = append(out, Instantiation{
			Variable: d,
			Creation: src.Key(value),
			Type:     syntax.BaseTypeName(src.Text(value.ChildByFieldName("type"))),
		})
	}
	switch stmt.Type() {
	case "local_variable_declaration":
		for _, decl := range syntax.ChildrenOfType(stmt, "variable_declarator") {
			if d, ok := r.Declares(decl.ChildByFieldName("name")); ok {
				add(d, decl.ChildByFieldName("value"))
			}
		}
	case "expression_statement":
		for _, a := range syntax.Collect(stmt, "assignment_expression") {
			if d, ok := n.reference(a.ChildByFieldName("left")); ok {
				add(d, a.ChildByFieldName("right"))
			}
		}
	}
	return out
}

// syntax locates the statement node, or returns nil for synthetic nodes.
func (n *Node) syntax() *sitter.Node {
	if n.CFG.Key.IsZero() || n.CFG.Type == cfg.NodeTypeEntry || n.CFG.Type == cfg.NodeTypeExit {
		return nil
	}
	node, ok := n.pdg.resolver.Source().Locate(n.CFG.Key)
	if !ok {
		return nil
	}
	return node
}

// assignedValues returns initializers and assignment right-hand sides.
func (n *Node) assignedValues() []*sitter.Node {
	stmt := n.syntax()
	if stmt == nil {
		return nil
	}
	var out []*sitter.Node
	switch stmt.Type() {
	case "local_variable_declaration":
		for _, decl := range syntax.ChildrenOfType(stmt, "variable_declarator") {
			if v := decl.ChildByFieldName("value"); v != nil {
				out = append(out, v)
			}
		}
	case "expression_statement":
		for _, a := range syntax.Collect(stmt, "assignment_expression") {
			out = append(out, a.ChildByFieldName("right"))
		}
	}
	return out
}

// reference resolves a simple reference expression to its declaration.
func (n *Node) reference(expr *sitter.Node) (variable.Decl, bool) {
	if expr == nil {
		return variable.Decl{}, false
	}
	switch expr.Type() {
	case "identifier", "field_access":
	default:
		return variable.Decl{}, false
	}
	v, ok := n.pdg.resolver.Variable(expr)
	if !ok {
		return variable.Decl{}, false
	}
	p, ok := v.(variable.Plain)
	if !ok {
		return variable.Decl{}, false
	}
	return p.Decl, true
}

// UpdateReachingAliasSet applies the node's reference copies to set.
func (n *Node) UpdateReachingAliasSet(set *ReachingAliasSet) {
	stmt := n.syntax()
	if stmt == nil {
		return
	}
	switch stmt.Type() {
	case "local_variable_declaration":
		decl := syntax.FindChildByType(stmt, "variable_declarator")
		if decl == nil {
			return
		}
		d, ok := n.pdg.resolver.Declares(decl.ChildByFieldName("name"))
		if !ok || d.IsPrimitive() {
			return
		}
		if src, ok := n.reference(decl.ChildByFieldName("value")); ok {
			set.InsertAlias(d, src)
		}
	case "expression_statement":
		if expr := syntax.Unparen(stmt.NamedChild(0)); expr != nil && expr.Type() == "assignment_expression" {
			n.processAssignment(set, expr)
		}
	}
}

func (n *Node) processAssignment(set *ReachingAliasSet, assign *sitter.Node) {
	lhs, ok := n.reference(assign.ChildByFieldName("left"))
	if !ok || lhs.IsPrimitive() {
		return
	}
	rhs := assign.ChildByFieldName("right")
	if rhs == nil {
		return
	}
	if rhs.Type() == "assignment_expression" {
		n.processAssignment(set, rhs)
		if src, ok := n.reference(rhs.ChildByFieldName("left")); ok {
			set.InsertAlias(lhs, src)
			return
		}
		set.RemoveAlias(lhs)
		return
	}
	if src, ok := n.reference(rhs); ok {
		set.InsertAlias(lhs, src)
		return
	}
	set.RemoveAlias(lhs)
}

// ApplyReachingAliasSet adds, for every access path the node defines or
// uses, the same path rooted at each alias of its head. It always widens
// the sets the node had before its first call.
func (n *Node) ApplyReachingAliasSet(set *ReachingAliasSet) {
	if n.originalDefined == nil {
		n.originalDefined = n.defined.Clone()
		n.originalUsed = n.used.Clone()
	}
	widen := func(original, target *variable.Set[variable.AbstractVariable]) {
		for _, v := range original.Items() {
			c, ok := v.(variable.Composite)
			if !ok || !set.ContainsAlias(c.Head) {
				continue
			}
			for _, alias := range set.Aliases(c.Head, n.CFG.Key, n.pdg.reporter) {
				target.Add(variable.NewComposite(alias, c.Rest))
			}
		}
	}
	widen(n.originalDefined, n.defined)
	widen(n.originalUsed, n.used)
}
