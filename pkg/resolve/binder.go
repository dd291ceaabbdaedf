package resolve

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-deodorant/pkg/syntax"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

// Binder binds identifiers inside one method body to local declarations.
// Fields are left to the resolver.
type Binder struct {
	src    *syntax.Source
	method *sitter.Node
	params map[string]variable.Decl
	cache  map[syntax.Key]bindResult

	// inferring guards `var` type inference against self reference.
	inferring map[syntax.Key]bool
	infer     func(expr *sitter.Node) string
}

type bindResult struct {
	decl variable.Decl
	ok   bool
}

// NewBinder creates a binder for the method or constructor declaration node.
// infer computes the static type of an initializer for `var` declarations.
func NewBinder(src *syntax.Source, method *sitter.Node, info *MethodInfo, infer func(*sitter.Node) string) *Binder {
	b := &Binder{
		src:       src,
		method:    method,
		params:    make(map[string]variable.Decl),
		cache:     make(map[syntax.Key]bindResult),
		inferring: make(map[syntax.Key]bool),
		infer:     infer,
	}
	for _, p := range info.Parameters {
		b.params[p.Name] = variable.Decl{
			Role: variable.RoleParameter,
			Name: p.Name,
			Type: p.Type,
			Key:  p.Key,
		}
	}
	return b
}

// Parameters returns the method's parameters as declarations, in order.
func (b *Binder) Parameters(info *MethodInfo) []variable.Decl {
	out := make([]variable.Decl, 0, len(info.Parameters))
	for _, p := range info.Parameters {
		out = append(out, b.params[p.Name])
	}
	return out
}

// Bind resolves an identifier node to the innermost local declaration in
// scope, or to a parameter of the method.
func (b *Binder) Bind(ident *sitter.Node) (variable.Decl, bool) {
	key := b.src.Key(ident)
	if r, ok := b.cache[key]; ok {
		return r.decl, r.ok
	}
	decl, ok := b.bind(ident, b.src.Text(ident), ident.StartByte())
	b.cache[key] = bindResult{decl: decl, ok: ok}
	return decl, ok
}

func (b *Binder) bind(ident *sitter.Node, name string, pos uint32) (variable.Decl, bool) {
	child := ident
	for scope := ident.Parent(); scope != nil; child, scope = scope, scope.Parent() {
		if syntax.Same(scope, b.method) {
			if d, ok := b.params[name]; ok {
				return d, true
			}
			return variable.Decl{}, false
		}
		switch scope.Type() {
		case "block", "constructor_body", "switch_block_statement_group":
			if d, ok := b.scanStatements(scope, name, pos); ok {
				return d, true
			}
		case "switch_block":
			for _, group := range syntax.NamedChildren(scope) {
				if group.StartByte() >= pos {
					break
				}
				if d, ok := b.scanStatements(group, name, pos); ok {
					return d, true
				}
			}
		case "for_statement":
			for _, init := range syntax.ChildrenOfType(scope, "local_variable_declaration") {
				if d, ok := b.declarator(init, name, pos); ok {
					return d, true
				}
			}
		case "enhanced_for_statement":
			if syntax.IsField(scope, "body", child) {
				nameNode := scope.ChildByFieldName("name")
				if b.src.Text(nameNode) == name {
					return b.local(nameNode, b.src.Text(scope.ChildByFieldName("type")), nil), true
				}
			}
		case "catch_clause":
			if param := syntax.FindChildByType(scope, "catch_formal_parameter"); param != nil {
				nameNode := param.ChildByFieldName("name")
				if b.src.Text(nameNode) == name {
					var types []string
					if ct := syntax.FindChildByType(param, "catch_type"); ct != nil {
						for _, t := range syntax.NamedChildren(ct) {
							types = append(types, b.src.Text(t))
						}
					}
					t := syntax.ObjectType
					if len(types) == 1 {
						t = types[0]
					}
					return b.local(nameNode, t, nil), true
				}
			}
		case "try_with_resources_statement":
			if specs := scope.ChildByFieldName("resources"); specs != nil {
				for _, res := range syntax.ChildrenOfType(specs, "resource") {
					nameNode := res.ChildByFieldName("name")
					if nameNode != nil && b.src.Text(nameNode) == name && nameNode.StartByte() < pos {
						return b.local(nameNode, b.src.Text(res.ChildByFieldName("type")), res.ChildByFieldName("value")), true
					}
				}
			}
		case "lambda_expression":
			if d, ok := b.lambdaParam(scope, name); ok {
				return d, true
			}
		case "instanceof_expression":
			if nameNode := scope.ChildByFieldName("name"); nameNode != nil && b.src.Text(nameNode) == name {
				return b.local(nameNode, b.src.Text(scope.ChildByFieldName("right")), nil), true
			}
		}
	}
	return variable.Decl{}, false
}

func (b *Binder) scanStatements(scope *sitter.Node, name string, pos uint32) (variable.Decl, bool) {
	var found variable.Decl
	ok := false
	for _, stmt := range syntax.NamedChildren(scope) {
		if stmt.StartByte() >= pos {
			break
		}
		if stmt.Type() != "local_variable_declaration" {
			continue
		}
		if d, hit := b.declarator(stmt, name, pos); hit {
			found, ok = d, true
		}
	}
	return found, ok
}

func (b *Binder) declarator(decl *sitter.Node, name string, pos uint32) (variable.Decl, bool) {
	typeText := b.src.Text(decl.ChildByFieldName("type"))
	for _, d := range syntax.ChildrenOfType(decl, "variable_declarator") {
		nameNode := d.ChildByFieldName("name")
		if nameNode == nil || nameNode.StartByte() >= pos || b.src.Text(nameNode) != name {
			continue
		}
		t := typeText + strings.Repeat("[]", syntax.DeclaratorDimensions(d))
		return b.local(nameNode, t, d.ChildByFieldName("value")), true
	}
	return variable.Decl{}, false
}

func (b *Binder) lambdaParam(lambda *sitter.Node, name string) (variable.Decl, bool) {
	params := lambda.ChildByFieldName("parameters")
	if params == nil {
		return variable.Decl{}, false
	}
	if params.Type() == "identifier" {
		if b.src.Text(params) == name {
			return b.local(params, syntax.ObjectType, nil), true
		}
		return variable.Decl{}, false
	}
	for _, p := range syntax.NamedChildren(params) {
		switch p.Type() {
		case "identifier":
			if b.src.Text(p) == name {
				return b.local(p, syntax.ObjectType, nil), true
			}
		case "formal_parameter":
			nameNode := p.ChildByFieldName("name")
			if b.src.Text(nameNode) == name {
				return b.local(nameNode, b.src.Text(p.ChildByFieldName("type")), nil), true
			}
		}
	}
	return variable.Decl{}, false
}

func (b *Binder) local(nameNode *sitter.Node, typeText string, value *sitter.Node) variable.Decl {
	key := b.src.Key(nameNode)
	if typeText == "var" || typeText == "" {
		typeText = syntax.ObjectType
		if value != nil && b.infer != nil && !b.inferring[key] {
			b.inferring[key] = true
			if t := b.infer(value); t != "" {
				typeText = t
			}
			delete(b.inferring, key)
		}
	}
	return variable.Decl{
		Role: variable.RoleLocal,
		Name: b.src.Text(nameNode),
		Type: typeText,
		Key:  key,
	}
}

// Declares returns the declaration introduced by a declarator name node.
func (b *Binder) Declares(nameNode *sitter.Node) (variable.Decl, bool) {
	parent := nameNode.Parent()
	if parent != nil && parent.Type() == "enhanced_for_statement" && syntax.IsField(parent, "name", nameNode) {
		return b.local(nameNode, b.src.Text(parent.ChildByFieldName("type")), nil), true
	}
	return b.bind(nameNode, b.src.Text(nameNode), nameNode.EndByte())
}
