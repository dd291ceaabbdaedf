// Package resolve binds names inside Java method bodies to declarations. It
// is the resolver capability threaded through fragment and PDG construction.
package resolve

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-deodorant/pkg/facts"
	"github.com/l3aro/go-deodorant/pkg/syntax"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

// typeDeclarationKinds are the declarations indexed as classes.
var typeDeclarationKinds = map[string]bool{
	"class_declaration":     true,
	"interface_declaration": true,
	"enum_declaration":      true,
	"record_declaration":    true,
}

// ClassInfo describes one declared type.
type ClassInfo struct {
	Name       string   `json:"name"`
	Qualified  string   `json:"qualified"`
	Superclass string   `json:"superclass,omitempty"`
	Interfaces []string `json:"interfaces,omitempty"`
	Interface  bool     `json:"interface,omitempty"`
	Outer      string   `json:"outer,omitempty"`
	Modifiers  syntax.Modifiers
	Fields     []*FieldInfo  `json:"fields,omitempty"`
	Methods    []*MethodInfo `json:"methods,omitempty"`
	Key        syntax.Key    `json:"key"`
	Source     *syntax.Source
}

// Field returns the field declared directly by c.
func (c *ClassInfo) Field(name string) (*FieldInfo, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// FieldInfo describes a declared field.
type FieldInfo struct {
	Class  string        `json:"class"`
	Name   string        `json:"name"`
	Type   string        `json:"type"`
	Static bool          `json:"static,omitempty"`
	Access facts.Access  `json:"access"`
	Decl   variable.Decl `json:"decl"`
}

// ParamInfo describes a declared parameter.
type ParamInfo struct {
	Name    string     `json:"name"`
	Type    string     `json:"type"`
	Varargs bool       `json:"varargs,omitempty"`
	Key     syntax.Key `json:"key"`
}

// MethodInfo describes a declared method or constructor. Methods outside the
// indexed sources are synthesized with External set.
type MethodInfo struct {
	Class       string      `json:"class"`
	Name        string      `json:"name"`
	Constructor bool        `json:"constructor,omitempty"`
	Parameters  []ParamInfo `json:"parameters,omitempty"`
	ReturnType  string      `json:"return_type"`
	Thrown      []string    `json:"thrown,omitempty"`
	Modifiers   syntax.Modifiers
	External    bool       `json:"external,omitempty"`
	Key         syntax.Key `json:"key"`
	Body        syntax.Key `json:"body"`
}

// ID is the method identifier used in diagnostics and incomplete errors.
func (m *MethodInfo) ID() string {
	types := make([]string, 0, len(m.Parameters))
	for _, p := range m.Parameters {
		types = append(types, p.Type)
	}
	return fmt.Sprintf("%s.%s(%s)", m.Class, m.Name, strings.Join(types, ","))
}

// Static reports whether the method is static.
func (m *MethodInfo) Static() bool { return m.Modifiers.Static }

// Accepts reports whether the method can be called with n arguments.
func (m *MethodInfo) Accepts(n int) bool {
	if len(m.Parameters) > 0 && m.Parameters[len(m.Parameters)-1].Varargs {
		return n >= len(m.Parameters)-1
	}
	return n == len(m.Parameters)
}

// Program is a declaration index over parsed sources.
type Program struct {
	classes   map[string]*ClassInfo
	order     []*ClassInfo
	anonymous map[syntax.Key]string
}

// NewProgram creates an empty index.
func NewProgram() *Program {
	return &Program{
		classes:   make(map[string]*ClassInfo),
		anonymous: make(map[syntax.Key]string),
	}
}

// AddSource indexes every type declared in src.
func (p *Program) AddSource(src *syntax.Source) {
	root := src.Root()
	if root == nil {
		return
	}
	pkg := ""
	if decl := syntax.FindChildByType(root, "package_declaration"); decl != nil {
		for _, child := range syntax.NamedChildren(decl) {
			if child.Type() == "scoped_identifier" || child.Type() == "identifier" {
				pkg = src.Text(child)
			}
		}
	}
	for _, child := range syntax.NamedChildren(root) {
		if typeDeclarationKinds[child.Type()] {
			p.addClass(src, child, pkg, "")
		}
	}
}

func (p *Program) addClass(src *syntax.Source, node *sitter.Node, pkg, outer string) {
	name := src.Text(node.ChildByFieldName("name"))
	if name == "" {
		return
	}
	qualified := name
	if outer != "" {
		qualified = outer + "." + name
	} else if pkg != "" {
		qualified = pkg + "." + name
	}

	class := &ClassInfo{
		Name:      name,
		Qualified: qualified,
		Interface: node.Type() == "interface_declaration",
		Outer:     outer,
		Modifiers: syntax.ReadModifiers(node, src.Content),
		Key:       src.Key(node),
		Source:    src,
	}
	if super := node.ChildByFieldName("superclass"); super != nil {
		for _, t := range syntax.NamedChildren(super) {
			class.Superclass = syntax.BaseTypeName(src.Text(t))
		}
	}
	interfaces := node.ChildByFieldName("interfaces")
	if interfaces == nil {
		interfaces = syntax.FindChildByType(node, "extends_interfaces")
	}
	if interfaces != nil {
		for _, list := range syntax.NamedChildren(interfaces) {
			for _, t := range syntax.NamedChildren(list) {
				class.Interfaces = append(class.Interfaces, syntax.BaseTypeName(src.Text(t)))
			}
		}
	}

	if _, exists := p.classes[name]; !exists {
		p.classes[name] = class
	}
	p.order = append(p.order, class)

	body := node.ChildByFieldName("body")
	for _, member := range syntax.NamedChildren(body) {
		p.addMember(src, class, member, pkg)
	}
	if body != nil && body.Type() == "enum_body" {
		if decls := syntax.FindChildByType(body, "enum_body_declarations"); decls != nil {
			for _, member := range syntax.NamedChildren(decls) {
				p.addMember(src, class, member, pkg)
			}
		}
	}
	p.numberAnonymous(src, class, body)
}

func (p *Program) addMember(src *syntax.Source, class *ClassInfo, member *sitter.Node, pkg string) {
	switch member.Type() {
	case "field_declaration", "constant_declaration":
		mods := syntax.ReadModifiers(member, src.Content)
		static := mods.Static || class.Interface
		typeText := src.Text(member.ChildByFieldName("type"))
		for _, decl := range syntax.ChildrenOfType(member, "variable_declarator") {
			nameNode := decl.ChildByFieldName("name")
			t := typeText + strings.Repeat("[]", syntax.DeclaratorDimensions(decl))
			class.Fields = append(class.Fields, &FieldInfo{
				Class:  class.Name,
				Name:   src.Text(nameNode),
				Type:   t,
				Static: static,
				Access: facts.AccessOf(mods),
				Decl: variable.Decl{
					Role:   variable.RoleField,
					Name:   src.Text(nameNode),
					Type:   t,
					Owner:  class.Name,
					Static: static,
					Key:    src.Key(nameNode),
				},
			})
		}
	case "method_declaration", "constructor_declaration", "compact_constructor_declaration":
		class.Methods = append(class.Methods, MethodFromDeclaration(src, class.Name, member))
	default:
		if typeDeclarationKinds[member.Type()] {
			p.addClass(src, member, pkg, class.Name)
		}
	}
}

// numberAnonymous names anonymous classes Outer$1, Outer$2, ... in source
// order within the nearest named class.
func (p *Program) numberAnonymous(src *syntax.Source, class *ClassInfo, body *sitter.Node) {
	n := 0
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child == nil || typeDeclarationKinds[child.Type()] {
				continue
			}
			if child.Type() == syntax.KindObjectCreation && syntax.FindChildByType(child, "class_body") != nil {
				n++
				p.anonymous[src.Key(child)] = fmt.Sprintf("%s$%d", class.Name, n)
			}
			walk(child)
		}
	}
	if body != nil {
		walk(body)
	}
}

// MethodFromDeclaration builds a MethodInfo from a method or constructor node.
func MethodFromDeclaration(src *syntax.Source, className string, node *sitter.Node) *MethodInfo {
	m := &MethodInfo{
		Class:       className,
		Name:        src.Text(node.ChildByFieldName("name")),
		Constructor: node.Type() != "method_declaration",
		Modifiers:   syntax.ReadModifiers(node, src.Content),
		Key:         src.Key(node),
		Body:        src.Key(node.ChildByFieldName("body")),
	}
	if m.Constructor {
		m.ReturnType = "void"
	} else {
		m.ReturnType = src.Text(node.ChildByFieldName("type"))
		m.ReturnType += strings.Repeat("[]", syntax.DeclaratorDimensions(node))
	}
	for _, param := range syntax.NamedChildren(node.ChildByFieldName("parameters")) {
		switch param.Type() {
		case "formal_parameter":
			nameNode := param.ChildByFieldName("name")
			m.Parameters = append(m.Parameters, ParamInfo{
				Name: src.Text(nameNode),
				Type: src.Text(param.ChildByFieldName("type")) + strings.Repeat("[]", syntax.DeclaratorDimensions(param)),
				Key:  src.Key(nameNode),
			})
		case "spread_parameter":
			var typeNode, nameNode *sitter.Node
			for _, child := range syntax.NamedChildren(param) {
				switch child.Type() {
				case "variable_declarator":
					nameNode = child.ChildByFieldName("name")
				case "modifiers":
				default:
					if typeNode == nil {
						typeNode = child
					}
				}
			}
			m.Parameters = append(m.Parameters, ParamInfo{
				Name:    src.Text(nameNode),
				Type:    src.Text(typeNode) + "[]",
				Varargs: true,
				Key:     src.Key(nameNode),
			})
		}
	}
	if throws := syntax.FindChildByType(node, "throws"); throws != nil {
		for _, t := range syntax.NamedChildren(throws) {
			m.Thrown = append(m.Thrown, syntax.BaseTypeName(src.Text(t)))
		}
	}
	return m
}

// Classes returns every indexed class in declaration order.
func (p *Program) Classes() []*ClassInfo {
	return append([]*ClassInfo(nil), p.order...)
}

// Class looks a class up by simple or qualified name, ignoring generics.
func (p *Program) Class(name string) (*ClassInfo, bool) {
	c, ok := p.classes[syntax.BaseTypeName(name)]
	return c, ok
}

// Superclass returns the declared superclass of name, or "".
func (p *Program) Superclass(name string) string {
	if c, ok := p.Class(name); ok {
		return c.Superclass
	}
	return ""
}

// Interfaces returns the interfaces name declares.
func (p *Program) Interfaces(name string) []string {
	if c, ok := p.Class(name); ok {
		return c.Interfaces
	}
	return nil
}

// hierarchy lists name followed by its indexed supertypes, breadth first.
func (p *Program) hierarchy(name string) []*ClassInfo {
	var out []*ClassInfo
	seen := make(map[string]bool)
	queue := []string{syntax.BaseTypeName(name)}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == "" || seen[current] {
			continue
		}
		seen[current] = true
		c, ok := p.classes[current]
		if !ok {
			continue
		}
		out = append(out, c)
		queue = append(queue, c.Superclass)
		queue = append(queue, c.Interfaces...)
	}
	return out
}

// Field finds a field declared by class or one of its supertypes.
func (p *Program) Field(class, name string) (*FieldInfo, bool) {
	for _, c := range p.hierarchy(class) {
		if f, ok := c.Field(name); ok {
			return f, true
		}
	}
	return nil, false
}

// Methods lists methods named name visible in class, nearest first.
func (p *Program) Methods(class, name string) []*MethodInfo {
	var out []*MethodInfo
	for _, c := range p.hierarchy(class) {
		for _, m := range c.Methods {
			if m.Name == name && !m.Constructor {
				out = append(out, m)
			}
		}
	}
	return out
}

// Constructors lists the constructors declared by class.
func (p *Program) Constructors(class string) []*MethodInfo {
	c, ok := p.Class(class)
	if !ok {
		return nil
	}
	var out []*MethodInfo
	for _, m := range c.Methods {
		if m.Constructor {
			out = append(out, m)
		}
	}
	return out
}

// AnonymousClassName returns the synthetic name of an anonymous class
// creation, or "" if the creation is unknown.
func (p *Program) AnonymousClassName(key syntax.Key) string {
	return p.anonymous[key]
}

// FindMethod looks a method up by class and name. A positive line selects
// among overloads by declaration line.
func (p *Program) FindMethod(class, name string, line int) (*MethodInfo, error) {
	c, ok := p.Class(class)
	if !ok {
		return nil, fmt.Errorf("class %s not found", class)
	}
	var candidates []*MethodInfo
	for _, m := range c.Methods {
		if m.Name == name {
			candidates = append(candidates, m)
		}
	}
	if line > 0 {
		for _, m := range candidates {
			if m.Key.Line == line {
				return m, nil
			}
		}
		return nil, fmt.Errorf("method %s.%s not declared at line %d", class, name, line)
	}
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("method %s.%s not found", class, name)
	case 1:
		return candidates[0], nil
	}
	return nil, fmt.Errorf("method %s.%s is overloaded (%d declarations), give a line", class, name, len(candidates))
}
