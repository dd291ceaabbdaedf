package fragment

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-deodorant/pkg/diag"
	"github.com/l3aro/go-deodorant/pkg/facts"
	"github.com/l3aro/go-deodorant/pkg/resolve"
	"github.com/l3aro/go-deodorant/pkg/syntax"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

// processor classifies the syntax owned by one fragment.
type processor struct {
	frag     *Fragment
	resolver resolve.Resolver
	reporter *diag.Reporter
	src      *syntax.Source
}

func newProcessor(frag *Fragment, r resolve.Resolver, reporter *diag.Reporter) *processor {
	return &processor{frag: frag, resolver: r, reporter: reporter, src: r.Source()}
}

// process records every fact found under roots on the fragment.
func (p *processor) process(roots []*sitter.Node) {
	p.processDeclarations(roots)
	p.processVariables(roots)
	p.processMethodInvocations(syntax.CollectAll(roots, syntax.KindMethodInvocation))
	p.processConstructorInvocations(syntax.CollectAll(roots, syntax.KindConstructorInvocation))
	p.processClassInstanceCreations(syntax.CollectAll(roots, syntax.KindObjectCreation))
	p.processArrayCreations(syntax.CollectAll(roots, syntax.KindArrayCreation))
	p.processLiterals(syntax.CollectAll(roots, syntax.LiteralKinds...))
}

// declareLocal records the declaration introduced by nameNode.
func (p *processor) declareLocal(nameNode, site *sitter.Node) {
	if nameNode == nil {
		return
	}
	d, ok := p.resolver.Declares(nameNode)
	if !ok {
		p.reporter.Report(diag.UnresolvedReference, p.src.Key(nameNode), "cannot bind declaration of %s", p.src.Text(nameNode))
		return
	}
	p.frag.addLocalDeclaration(facts.LocalVariableDeclaration{
		Type: facts.TypeOf(d.Type),
		Name: d.Name,
		Decl: d.Key,
		Site: p.src.Key(site),
	})
	p.frag.addDeclaredLocal(variable.NewPlain(d))
}

// processDeclarations records declarators of local variable declarations,
// catch parameters and resources.
func (p *processor) processDeclarations(roots []*sitter.Node) {
	for _, decl := range syntax.CollectAll(roots, "local_variable_declaration") {
		for _, d := range syntax.ChildrenOfType(decl, "variable_declarator") {
			p.declareLocal(d.ChildByFieldName("name"), decl)
		}
	}
	for _, root := range roots {
		switch root.Type() {
		case "catch_formal_parameter", "resource":
			p.declareLocal(root.ChildByFieldName("name"), root)
		}
	}
}

// mutation classifies how an access is written to.
type mutation int

const (
	readOnly mutation = iota
	plainWrite
	readWrite
)

// mutationOf applies the four-way rule: `=` writes, compound assignments
// and increments both read and write, anything else reads.
func (p *processor) mutationOf(access *sitter.Node) mutation {
	outer := access
	for outer.Parent() != nil && outer.Parent().Type() == "parenthesized_expression" {
		outer = outer.Parent()
	}
	parent := outer.Parent()
	if parent == nil {
		return readOnly
	}
	switch parent.Type() {
	case syntax.KindAssignment:
		if !syntax.IsField(parent, "left", outer) {
			return readOnly
		}
		if p.src.Text(parent.ChildByFieldName("operator")) == "=" {
			return plainWrite
		}
		return readWrite
	case syntax.KindUpdate:
		return readWrite
	}
	return readOnly
}

// processVariables classifies every identifier and field access.
func (p *processor) processVariables(roots []*sitter.Node) {
	for _, node := range syntax.CollectAll(roots, syntax.KindIdentifier, syntax.KindFieldAccess) {
		if node.Type() == syntax.KindIdentifier && !syntax.IsReferenceIdentifier(node) {
			continue
		}
		if node.Type() == syntax.KindFieldAccess {
			if object := syntax.Unparen(node.ChildByFieldName("object")); object != nil && object.Type() == "super" {
				p.processSuperField(node)
				continue
			}
		}

		v, ok := p.resolver.Variable(node)
		if !ok {
			if !isTypeReceiver(node, p.src) && !p.isArrayLength(node) {
				p.reporter.Report(diag.UnresolvedReference, p.src.Key(node), "cannot bind %s", p.src.Text(node))
			}
			continue
		}

		m := p.mutationOf(node)
		leaf := v.Leaf()
		if !leaf.IsField() {
			plain := variable.NewPlain(leaf)
			p.frag.addLocalInstruction(facts.LocalVariableInstruction{
				Type: facts.TypeOf(leaf.Type),
				Name: leaf.Name,
				Decl: leaf.Key,
				Site: p.src.Key(node),
			})
			switch m {
			case plainWrite:
				p.frag.addDefinedLocal(plain)
			case readWrite:
				p.frag.addDefinedLocal(plain)
				p.frag.addUsedLocal(plain)
			default:
				p.frag.addUsedLocal(plain)
			}
			continue
		}

		p.frag.addFieldInstruction(facts.FieldInstruction{
			OwnerClass: leaf.Owner,
			Type:       facts.TypeOf(leaf.Type),
			Name:       leaf.Name,
			Static:     leaf.Static,
			Binding:    leaf.Key,
			Site:       p.src.Key(node),
		})
		switch m {
		case plainWrite:
			p.frag.handleDefinedField(v)
		case readWrite:
			p.frag.handleDefinedField(v)
			p.frag.handleUsedField(v)
		default:
			p.frag.handleUsedField(v)
		}
	}
}

func (p *processor) processSuperField(access *sitter.Node) {
	f, ok := p.resolver.SuperField(access)
	if !ok {
		p.reporter.Report(diag.UnresolvedReference, p.src.Key(access), "cannot bind %s", p.src.Text(access))
		return
	}
	p.frag.addSuperFieldInstruction(facts.SuperFieldInstruction{
		OwnerClass: f.Class,
		Type:       facts.TypeOf(f.Type),
		Name:       f.Name,
		Static:     f.Static,
		Binding:    f.Decl.Key,
		Site:       p.src.Key(access),
	})
}

// isTypeReceiver reports whether an unbound identifier is a class name used
// as a receiver, as in Math.max(a, b).
func isTypeReceiver(node *sitter.Node, src *syntax.Source) bool {
	if node.Type() != syntax.KindIdentifier || !syntax.StartsUpper(src.Text(node)) {
		return false
	}
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case syntax.KindMethodInvocation, syntax.KindFieldAccess:
		return syntax.IsField(parent, "object", node)
	}
	return false
}

// isArrayLength reports whether node is arr.length on an array.
func (p *processor) isArrayLength(node *sitter.Node) bool {
	if node.Type() != syntax.KindFieldAccess || p.src.Text(node.ChildByFieldName("field")) != "length" {
		return false
	}
	return syntax.ParseTypeName(p.resolver.TypeOf(node.ChildByFieldName("object"))).ArrayDimension > 0
}

func (p *processor) invocation(m *resolve.MethodInfo, site *sitter.Node) facts.Invocation {
	ret := m.ReturnType
	if ret == "" {
		p.reporter.Report(diag.MissingType, p.src.Key(site), "no return type for %s", m.Name)
		ret = syntax.ObjectType
	}
	inv := facts.Invocation{
		OwnerClass:       m.Class,
		Name:             m.Name,
		ReturnType:       facts.TypeOf(ret),
		ThrownExceptions: append([]string(nil), m.Thrown...),
		Static:           m.Static(),
		Site:             p.src.Key(site),
	}
	for _, param := range m.Parameters {
		inv.ParameterTypes = append(inv.ParameterTypes, facts.TypeOf(param.Type))
	}
	return inv
}

// parameterArguments returns the parameters passed directly as arguments.
func (p *processor) parameterArguments(call *sitter.Node) []variable.Plain {
	var out []variable.Plain
	for _, arg := range syntax.NamedChildren(call.ChildByFieldName("arguments")) {
		arg = syntax.Unparen(arg)
		if arg.Type() != syntax.KindIdentifier {
			continue
		}
		if d, ok := p.resolver.Bind(arg); ok && d.IsParameter() {
			out = append(out, variable.NewPlain(d))
		}
	}
	return out
}

// processMethodInvocations records calls. A call whose target cannot be
// resolved is skipped.
func (p *processor) processMethodInvocations(calls []*sitter.Node) {
	for _, call := range calls {
		object := syntax.Unparen(call.ChildByFieldName("object"))
		m, ok := p.resolver.Invocation(call)
		if !ok {
			continue
		}

		if object != nil && object.Type() == "super" {
			sup := facts.SuperMethodInvocation{Invocation: p.invocation(m, call)}
			p.frag.addSuperMethodInvocation(sup)
			for _, param := range p.parameterArguments(call) {
				p.frag.addParameterInSuperMethodInvocation(param, sup)
			}
			continue
		}

		inv := facts.MethodInvocation{Invocation: p.invocation(m, call)}
		p.frag.addMethodInvocation(inv)

		var invoker variable.AbstractVariable
		if object != nil && object.Type() != "this" {
			invoker, _ = p.resolver.Variable(object)
		}
		switch {
		case invoker != nil:
			p.frag.addInvokedThrough(invoker, inv)
		case inv.Static:
			p.frag.addInvokedStatic(inv)
		case object == nil || object.Type() == "this":
			p.frag.addInvokedThroughThis(inv)
		}

		for _, param := range p.parameterArguments(call) {
			p.frag.addParameterInMethodInvocation(param, inv)
		}
	}
}

func (p *processor) processConstructorInvocations(calls []*sitter.Node) {
	for _, call := range calls {
		m, ok := p.resolver.ConstructorCall(call)
		if !ok {
			continue
		}
		inv := facts.ConstructorInvocation{Invocation: p.invocation(m, call)}
		p.frag.addConstructorInvocation(inv)
		for _, param := range p.parameterArguments(call) {
			p.frag.addParameterInConstructorInvocation(param, inv)
		}
	}
}

func (p *processor) processClassInstanceCreations(creations []*sitter.Node) {
	for _, node := range creations {
		creation := facts.ClassInstanceCreation{
			Type: facts.TypeOf(p.src.Text(node.ChildByFieldName("type"))),
			Site: p.src.Key(node),
		}
		for _, arg := range syntax.NamedChildren(node.ChildByFieldName("arguments")) {
			t := p.resolver.TypeOf(arg)
			if t == "" {
				t = syntax.ObjectType
			}
			creation.ParameterTypes = append(creation.ParameterTypes, facts.TypeOf(t))
		}
		if body := syntax.FindChildByType(node, "class_body"); body != nil {
			anonymous := decomposeAnonymous(p.src, p.resolver.AnonymousClassName(node), node, body)
			creation.Anonymous = anonymous.Name
			p.frag.addAnonymousClass(anonymous)
		}
		p.frag.addCreation(creation)

		if target, ok := p.assignmentTarget(node); ok {
			p.frag.addAssignedWithCreation(target, creation)
		}
	}
}

// assignmentTarget finds the plain variable a creation is stored into, via a
// declarator initializer or the right side of an assignment.
func (p *processor) assignmentTarget(expr *sitter.Node) (variable.Plain, bool) {
	outer := expr
	for outer.Parent() != nil && outer.Parent().Type() == "parenthesized_expression" {
		outer = outer.Parent()
	}
	parent := outer.Parent()
	if parent == nil {
		return variable.Plain{}, false
	}
	switch parent.Type() {
	case "variable_declarator":
		if !syntax.IsField(parent, "value", outer) {
			return variable.Plain{}, false
		}
		d, ok := p.resolver.Declares(parent.ChildByFieldName("name"))
		return variable.NewPlain(d), ok
	case syntax.KindAssignment:
		if !syntax.IsField(parent, "right", outer) {
			return variable.Plain{}, false
		}
		v, ok := p.resolver.Variable(parent.ChildByFieldName("left"))
		if !ok {
			return variable.Plain{}, false
		}
		plain, isPlain := v.(variable.Plain)
		return plain, isPlain
	}
	return variable.Plain{}, false
}

func (p *processor) processArrayCreations(creations []*sitter.Node) {
	for _, node := range creations {
		t := p.resolver.TypeOf(node)
		if t == "" {
			t = p.src.Text(node.ChildByFieldName("type")) + "[]"
		}
		p.frag.addCreation(facts.ArrayCreation{
			Type: facts.TypeOf(t),
			Site: p.src.Key(node),
		})
	}
}

func (p *processor) processLiterals(literals []*sitter.Node) {
	for _, node := range literals {
		p.frag.addLiteral(facts.Literal{
			Type:  facts.LiteralTypeOf(node.Type()),
			Value: p.src.Text(node),
			Site:  p.src.Key(node),
		})
	}
}

// processThrowStatement records the operand of a throw statement.
func (p *processor) processThrowStatement(stmt *sitter.Node) {
	children := syntax.NamedChildren(stmt)
	if len(children) == 0 {
		return
	}
	expr := children[0]
	t := p.resolver.TypeOf(expr)
	if t == "" {
		p.reporter.Report(diag.MissingType, p.src.Key(expr), "type of thrown expression unavailable")
		t = syntax.ObjectType
	}
	p.frag.addThrown(facts.ThrowExpression{
		Type: syntax.BaseTypeName(t),
		Text: p.src.Text(expr),
		Site: p.src.Key(expr),
	})
}
