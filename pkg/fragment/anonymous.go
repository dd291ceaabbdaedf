package fragment

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-deodorant/pkg/facts"
	"github.com/l3aro/go-deodorant/pkg/syntax"
)

// decomposeAnonymous turns an anonymous class body into synthetic field and
// method declarations. The body itself is never analysed as part of the
// enclosing method.
func decomposeAnonymous(src *syntax.Source, name string, creation, body *sitter.Node) facts.AnonymousClassDeclaration {
	anon := facts.AnonymousClassDeclaration{
		Name: name,
		Site: src.Key(creation),
	}
	for _, member := range syntax.NamedChildren(body) {
		switch member.Type() {
		case "field_declaration":
			mods := syntax.ReadModifiers(member, src.Content)
			typeText := src.Text(member.ChildByFieldName("type"))
			for _, d := range syntax.ChildrenOfType(member, "variable_declarator") {
				nameNode := d.ChildByFieldName("name")
				anon.Fields = append(anon.Fields, facts.FieldObject{
					ClassName: name,
					Name:      src.Text(nameNode),
					Type:      facts.TypeOf(typeText + strings.Repeat("[]", syntax.DeclaratorDimensions(d))),
					Access:    facts.AccessOf(mods),
					Static:    mods.Static,
					Decl:      src.Key(nameNode),
				})
			}
		case "method_declaration":
			anon.Methods = append(anon.Methods, anonymousMethod(src, name, member))
		}
	}
	return anon
}

func anonymousMethod(src *syntax.Source, className string, node *sitter.Node) facts.MethodObject {
	mods := syntax.ReadModifiers(node, src.Content)
	m := facts.MethodObject{
		ClassName:      className,
		Name:           src.Text(node.ChildByFieldName("name")),
		Access:         facts.AccessOf(mods),
		ReturnType:     facts.TypeOf(src.Text(node.ChildByFieldName("type")) + strings.Repeat("[]", syntax.DeclaratorDimensions(node))),
		TestAnnotation: mods.HasAnnotation("Test"),
		Abstract:       mods.Abstract,
		Static:         mods.Static,
		Synchronized:   mods.Synchronized,
		Native:         mods.Native,
		Decl:           src.Key(node),
	}
	for _, param := range syntax.NamedChildren(node.ChildByFieldName("parameters")) {
		switch param.Type() {
		case "formal_parameter":
			m.Parameters = append(m.Parameters, facts.ParameterObject{
				Name: src.Text(param.ChildByFieldName("name")),
				Type: facts.TypeOf(src.Text(param.ChildByFieldName("type")) + strings.Repeat("[]", syntax.DeclaratorDimensions(param))),
			})
		case "spread_parameter":
			var typeText, name string
			for _, child := range syntax.NamedChildren(param) {
				switch child.Type() {
				case "modifiers":
				case "variable_declarator":
					name = src.Text(child.ChildByFieldName("name"))
				default:
					if typeText == "" {
						typeText = src.Text(child)
					}
				}
			}
			t := facts.TypeOf(typeText)
			t.ArrayDimension = 1
			m.Parameters = append(m.Parameters, facts.ParameterObject{Name: name, Type: t, Varargs: true})
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		m.Body = &facts.BodySummary{
			Statements: len(syntax.NamedChildren(body)),
			Key:        src.Key(body),
		}
	}
	return m
}
