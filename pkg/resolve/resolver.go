package resolve

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-deodorant/pkg/diag"
	"github.com/l3aro/go-deodorant/pkg/syntax"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

// Resolver is the capability the fragment and PDG builders use to turn
// syntax into declarations and types.
type Resolver interface {
	// Source is the compilation unit being analysed.
	Source() *syntax.Source
	// Method is the method being analysed.
	Method() *MethodInfo
	// Parameters lists the method's parameters as declarations.
	Parameters() []variable.Decl
	// Bind resolves an identifier to a local, parameter or field.
	Bind(ident *sitter.Node) (variable.Decl, bool)
	// Declares returns the declaration a declarator name introduces.
	Declares(nameNode *sitter.Node) (variable.Decl, bool)
	// Variable maps a reference expression to its canonical variable.
	Variable(expr *sitter.Node) (variable.AbstractVariable, bool)
	// Invocation resolves a method_invocation node.
	Invocation(call *sitter.Node) (*MethodInfo, bool)
	// ConstructorCall resolves an explicit this(...) or super(...) call.
	ConstructorCall(call *sitter.Node) (*MethodInfo, bool)
	// SuperField resolves super.f to the field of the superclass.
	SuperField(access *sitter.Node) (*FieldInfo, bool)
	// TypeOf returns the static type of an expression, or "" if unknown.
	TypeOf(expr *sitter.Node) string
	// Superclass returns the superclass of a class, or "".
	Superclass(class string) string
	// Interfaces returns the interfaces a class implements.
	Interfaces(class string) []string
	// AnonymousClassName names an anonymous class creation.
	AnonymousClassName(creation *sitter.Node) string
}

// Options tunes resolution.
type Options struct {
	// ExternalCalls records calls on receivers whose type is known but not
	// indexed, with an Object return type.
	ExternalCalls bool
}

// DefaultOptions returns the default resolution options.
func DefaultOptions() Options {
	return Options{ExternalCalls: true}
}

// MethodResolver resolves names inside one method body against a Program.
type MethodResolver struct {
	program  *Program
	src      *syntax.Source
	class    *ClassInfo
	method   *MethodInfo
	opts     Options
	reporter *diag.Reporter
	binder   *Binder
	types    map[syntax.Key]string
	calls    map[syntax.Key]*MethodInfo
}

// NewMethodResolver creates a resolver for method, declared in src. The
// method must have been indexed by program.
func NewMethodResolver(program *Program, src *syntax.Source, method *MethodInfo, opts Options, reporter *diag.Reporter) (*MethodResolver, error) {
	class, ok := program.Class(method.Class)
	if !ok {
		return nil, fmt.Errorf("class %s not indexed", method.Class)
	}
	node, ok := src.Locate(method.Key)
	if !ok {
		return nil, fmt.Errorf("method %s not found in %s", method.ID(), src.Path)
	}
	r := &MethodResolver{
		program:  program,
		src:      src,
		class:    class,
		method:   method,
		opts:     opts,
		reporter: reporter,
		types:    make(map[syntax.Key]string),
		calls:    make(map[syntax.Key]*MethodInfo),
	}
	r.binder = NewBinder(src, node, method, r.TypeOf)
	return r, nil
}

func (r *MethodResolver) Source() *syntax.Source { return r.src }
func (r *MethodResolver) Method() *MethodInfo    { return r.method }

func (r *MethodResolver) Parameters() []variable.Decl {
	return r.binder.Parameters(r.method)
}

func (r *MethodResolver) Superclass(class string) string   { return r.program.Superclass(class) }
func (r *MethodResolver) Interfaces(class string) []string { return r.program.Interfaces(class) }

func (r *MethodResolver) AnonymousClassName(creation *sitter.Node) string {
	if name := r.program.AnonymousClassName(r.src.Key(creation)); name != "" {
		return name
	}
	return r.class.Name + "$" + fmt.Sprint(creation.StartPoint().Row+1)
}

// Bind resolves ident to a local or parameter first, then to a field of the
// enclosing class chain.
func (r *MethodResolver) Bind(ident *sitter.Node) (variable.Decl, bool) {
	if d, ok := r.binder.Bind(ident); ok {
		return d, true
	}
	if f, ok := r.field(r.src.Text(ident)); ok {
		return f.Decl, true
	}
	return variable.Decl{}, false
}

func (r *MethodResolver) Declares(nameNode *sitter.Node) (variable.Decl, bool) {
	return r.binder.Declares(nameNode)
}

// field looks name up in the enclosing class chain, then outer classes.
func (r *MethodResolver) field(name string) (*FieldInfo, bool) {
	for class := r.class; class != nil; {
		if f, ok := r.program.Field(class.Name, name); ok {
			return f, true
		}
		if class.Outer == "" {
			break
		}
		outer, ok := r.program.Class(class.Outer)
		if !ok {
			break
		}
		class = outer
	}
	return nil, false
}

// Variable maps identifiers and field accesses to canonical variables.
// Accesses through this are plain; accesses through a traceable receiver
// extend the receiver's path.
func (r *MethodResolver) Variable(expr *sitter.Node) (variable.AbstractVariable, bool) {
	expr = syntax.Unparen(expr)
	if expr == nil {
		return nil, false
	}
	switch expr.Type() {
	case "identifier":
		d, ok := r.Bind(expr)
		if !ok {
			return nil, false
		}
		return variable.NewPlain(d), true
	case "field_access":
		object := syntax.Unparen(expr.ChildByFieldName("object"))
		name := r.src.Text(expr.ChildByFieldName("field"))
		if object == nil {
			return nil, false
		}
		switch object.Type() {
		case "this":
			if f, ok := r.program.Field(r.class.Name, name); ok {
				return variable.NewPlain(f.Decl), true
			}
			return nil, false
		case "super":
			if f, ok := r.SuperField(expr); ok {
				return variable.NewPlain(f.Decl), true
			}
			return nil, false
		}
		base, ok := r.Variable(object)
		if !ok {
			// Class.STATIC_FIELD
			if object.Type() == "identifier" && syntax.StartsUpper(r.src.Text(object)) {
				if f, found := r.program.Field(r.src.Text(object), name); found {
					return variable.NewPlain(f.Decl), true
				}
			}
			return nil, false
		}
		f, ok := r.program.Field(base.Type(), name)
		if !ok {
			return nil, false
		}
		return variable.Append(base, variable.NewPlain(f.Decl)), true
	}
	return nil, false
}

// SuperField resolves super.name against the superclass chain.
func (r *MethodResolver) SuperField(access *sitter.Node) (*FieldInfo, bool) {
	if r.class.Superclass == "" {
		return nil, false
	}
	return r.program.Field(r.class.Superclass, r.src.Text(access.ChildByFieldName("field")))
}

// Invocation resolves a method call. Calls whose receiver type is known but
// not indexed are synthesized when external calls are enabled.
func (r *MethodResolver) Invocation(call *sitter.Node) (*MethodInfo, bool) {
	key := r.src.Key(call)
	if m, seen := r.calls[key]; seen {
		return m, m != nil
	}
	m, ok := r.invocation(call, key)
	r.calls[key] = m
	return m, ok
}

func (r *MethodResolver) invocation(call *sitter.Node, key syntax.Key) (*MethodInfo, bool) {
	name := r.src.Text(call.ChildByFieldName("name"))
	args := syntax.NamedChildren(call.ChildByFieldName("arguments"))
	object := syntax.Unparen(call.ChildByFieldName("object"))

	var owner string
	static := false
	switch {
	case object == nil:
		for class := r.class; class != nil; {
			if m := r.pick(r.program.Methods(class.Name, name), args); m != nil {
				return m, true
			}
			outer, ok := r.program.Class(class.Outer)
			if class.Outer == "" || !ok {
				break
			}
			class = outer
		}
		owner = r.class.Name
	case object.Type() == "this":
		owner = r.class.Name
	case object.Type() == "super":
		owner = r.class.Superclass
		if owner == "" {
			owner = syntax.ObjectType
		}
	default:
		owner = r.TypeOf(object)
		if owner == "" && object.Type() == "identifier" && syntax.StartsUpper(r.src.Text(object)) {
			owner = r.src.Text(object)
			static = true
		}
	}

	if owner == "" {
		r.reporter.Report(diag.UnresolvedReference, key, "cannot resolve receiver of %s", name)
		return nil, false
	}
	if m := r.pick(r.program.Methods(owner, name), args); m != nil {
		return m, true
	}
	if !r.opts.ExternalCalls {
		r.reporter.Report(diag.UnresolvedReference, key, "cannot resolve method %s.%s", syntax.BaseTypeName(owner), name)
		return nil, false
	}
	return r.external(owner, name, args, static, key), true
}

// ConstructorCall resolves this(...) and super(...).
func (r *MethodResolver) ConstructorCall(call *sitter.Node) (*MethodInfo, bool) {
	ctor := call.ChildByFieldName("constructor")
	args := syntax.NamedChildren(call.ChildByFieldName("arguments"))
	owner := r.class.Name
	if ctor != nil && ctor.Type() == "super" {
		owner = r.class.Superclass
		if owner == "" {
			owner = syntax.ObjectType
		}
	}
	if m := r.pick(r.program.Constructors(owner), args); m != nil {
		return m, true
	}
	if _, indexed := r.program.Class(owner); indexed && len(args) == 0 {
		// implicit default constructor
		return &MethodInfo{Class: owner, Name: owner, Constructor: true, ReturnType: "void"}, true
	}
	if !r.opts.ExternalCalls {
		r.reporter.Report(diag.UnresolvedReference, r.src.Key(call), "cannot resolve constructor of %s", owner)
		return nil, false
	}
	m := r.external(owner, syntax.BaseTypeName(owner), args, false, r.src.Key(call))
	m.Constructor = true
	m.ReturnType = "void"
	return m, true
}

// pick selects the overload matching the arguments best.
func (r *MethodResolver) pick(candidates []*MethodInfo, args []*sitter.Node) *MethodInfo {
	var fallback *MethodInfo
	for _, m := range candidates {
		if !m.Accepts(len(args)) {
			continue
		}
		if fallback == nil {
			fallback = m
		}
		if r.argumentsMatch(m, args) {
			return m
		}
	}
	return fallback
}

func (r *MethodResolver) argumentsMatch(m *MethodInfo, args []*sitter.Node) bool {
	for i, arg := range args {
		if i >= len(m.Parameters) {
			break
		}
		want := syntax.BaseTypeName(m.Parameters[i].Type)
		got := syntax.BaseTypeName(r.TypeOf(arg))
		if got == "" || want == got || want == syntax.ObjectType {
			continue
		}
		return false
	}
	return true
}

func (r *MethodResolver) external(owner, name string, args []*sitter.Node, static bool, key syntax.Key) *MethodInfo {
	m := &MethodInfo{
		Class:      syntax.BaseTypeName(owner),
		Name:       name,
		ReturnType: syntax.ObjectType,
		External:   true,
		Key:        key,
	}
	m.Modifiers.Static = static
	for i, arg := range args {
		t := r.TypeOf(arg)
		if t == "" {
			t = syntax.ObjectType
		}
		m.Parameters = append(m.Parameters, ParamInfo{Name: fmt.Sprintf("arg%d", i), Type: t})
	}
	r.reporter.Report(diag.MissingType, key, "return type of %s.%s unavailable, using %s", m.Class, name, syntax.ObjectType)
	return m
}

// TypeOf computes the static type of expr. Results are cached per node.
func (r *MethodResolver) TypeOf(expr *sitter.Node) string {
	expr = syntax.Unparen(expr)
	if expr == nil {
		return ""
	}
	key := r.src.Key(expr)
	if t, ok := r.types[key]; ok {
		return t
	}
	r.types[key] = "" // cut recursion through self-referencing initializers
	t := r.typeOf(expr)
	r.types[key] = t
	return t
}

func (r *MethodResolver) typeOf(expr *sitter.Node) string {
	switch expr.Type() {
	case "identifier", "field_access":
		if v, ok := r.Variable(expr); ok {
			return v.Type()
		}
		if expr.Type() == "field_access" && r.src.Text(expr.ChildByFieldName("field")) == "length" {
			if strings.HasSuffix(r.TypeOf(expr.ChildByFieldName("object")), "]") {
				return "int"
			}
		}
		return ""
	case "method_invocation":
		if m, ok := r.Invocation(expr); ok {
			return m.ReturnType
		}
		return ""
	case "object_creation_expression":
		return r.src.Text(expr.ChildByFieldName("type"))
	case "array_creation_expression":
		dims := 0
		for _, d := range syntax.NamedChildren(expr) {
			switch d.Type() {
			case "dimensions_expr":
				dims++
			case "dimensions":
				dims += len(syntax.ChildrenOfType(d, "["))
			}
		}
		return r.src.Text(expr.ChildByFieldName("type")) + strings.Repeat("[]", dims)
	case "array_access":
		t := r.TypeOf(expr.ChildByFieldName("array"))
		return strings.TrimSuffix(t, "[]")
	case "cast_expression":
		return r.src.Text(expr.ChildByFieldName("type"))
	case "this":
		return r.class.Name
	case "string_literal", "text_block":
		return "String"
	case "character_literal":
		return "char"
	case "true", "false", "instanceof_expression":
		return "boolean"
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		if strings.HasSuffix(strings.ToLower(r.src.Text(expr)), "l") {
			return "long"
		}
		return "int"
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		if strings.HasSuffix(strings.ToLower(r.src.Text(expr)), "f") {
			return "float"
		}
		return "double"
	case "assignment_expression":
		return r.TypeOf(expr.ChildByFieldName("left"))
	case "ternary_expression":
		if t := r.TypeOf(expr.ChildByFieldName("consequence")); t != "" {
			return t
		}
		return r.TypeOf(expr.ChildByFieldName("alternative"))
	case "update_expression", "unary_expression":
		for _, child := range syntax.NamedChildren(expr) {
			return r.TypeOf(child)
		}
	case "binary_expression":
		switch r.src.Text(expr.ChildByFieldName("operator")) {
		case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
			return "boolean"
		}
		left := r.TypeOf(expr.ChildByFieldName("left"))
		right := r.TypeOf(expr.ChildByFieldName("right"))
		if left == "String" || right == "String" {
			return "String"
		}
		if left != "" {
			return left
		}
		return right
	}
	return ""
}
