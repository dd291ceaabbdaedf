package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Expression kinds the fact collector asks for.
const (
	KindMethodInvocation      = "method_invocation"
	KindObjectCreation        = "object_creation_expression"
	KindArrayCreation         = "array_creation_expression"
	KindAssignment            = "assignment_expression"
	KindUpdate                = "update_expression"
	KindFieldAccess           = "field_access"
	KindIdentifier            = "identifier"
	KindConstructorInvocation = "explicit_constructor_invocation"
	KindLambda                = "lambda_expression"
)

// LiteralKinds lists the tree-sitter literal node types.
var LiteralKinds = []string{
	"decimal_integer_literal",
	"hex_integer_literal",
	"octal_integer_literal",
	"binary_integer_literal",
	"decimal_floating_point_literal",
	"hex_floating_point_literal",
	"string_literal",
	"text_block",
	"character_literal",
	"true",
	"false",
	"null_literal",
}

// opaqueKinds are never entered: the body of an anonymous class and local
// type declarations belong to another method.
var opaqueKinds = map[string]bool{
	"class_body":                  true,
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

// Collect returns every node under root (root included) whose type is one of
// kinds, in source order. Anonymous class bodies and local type declarations
// are not entered.
func Collect(root *sitter.Node, kinds ...string) []*sitter.Node {
	if root == nil {
		return nil
	}
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if want[n.Type()] {
			out = append(out, n)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child == nil || opaqueKinds[child.Type()] {
				continue
			}
			walk(child)
		}
	}
	walk(root)
	return out
}

// CollectAll concatenates Collect over several roots.
func CollectAll(roots []*sitter.Node, kinds ...string) []*sitter.Node {
	var out []*sitter.Node
	for _, r := range roots {
		out = append(out, Collect(r, kinds...)...)
	}
	return out
}

// IsReferenceIdentifier reports whether an identifier node is a use of a
// variable rather than a member name, declarator, label or type name
// position.
func IsReferenceIdentifier(ident *sitter.Node) bool {
	if ident == nil || ident.Type() != KindIdentifier {
		return false
	}
	parent := ident.Parent()
	if parent == nil {
		return true
	}
	switch parent.Type() {
	case "method_invocation":
		return !IsField(parent, "name", ident)
	case "field_access":
		return !IsField(parent, "field", ident)
	case "variable_declarator", "formal_parameter", "catch_formal_parameter",
		"spread_parameter", "resource":
		return !IsField(parent, "name", ident)
	case "enhanced_for_statement":
		return !IsField(parent, "name", ident)
	case "lambda_expression":
		return !IsField(parent, "parameters", ident)
	case "inferred_parameters", "labeled_statement", "break_statement",
		"continue_statement", "method_reference", "scoped_identifier",
		"marker_annotation", "annotation", "element_value_pair",
		"method_declaration", "constructor_declaration", "class_declaration",
		"enum_constant", "module_declaration", "package_declaration",
		"import_declaration":
		return false
	case "variable_declarator_id":
		return false
	}
	return true
}

// ReferenceIdentifiers collects identifiers under root that reference variables.
func ReferenceIdentifiers(root *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, n := range Collect(root, KindIdentifier) {
		if IsReferenceIdentifier(n) {
			out = append(out, n)
		}
	}
	return out
}
