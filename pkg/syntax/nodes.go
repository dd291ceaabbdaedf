package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ObjectType is the placeholder type used when a type cannot be determined.
const ObjectType = "Object"

var primitiveTypes = map[string]bool{
	"boolean": true,
	"byte":    true,
	"char":    true,
	"short":   true,
	"int":     true,
	"long":    true,
	"float":   true,
	"double":  true,
	"void":    true,
}

// IsPrimitive reports whether typeName is a Java primitive (or void).
func IsPrimitive(typeName string) bool {
	return primitiveTypes[strings.TrimSpace(typeName)]
}

// IsComment reports whether node is a line or block comment.
func IsComment(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	t := node.Type()
	return t == "line_comment" || t == "block_comment"
}

// NamedChildren returns the named, non-comment children of node.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	var children []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || IsComment(child) {
			continue
		}
		children = append(children, child)
	}
	return children
}

// ChildrenOfType returns the direct children of node with the given type.
func ChildrenOfType(node *sitter.Node, nodeType string) []*sitter.Node {
	if node == nil {
		return nil
	}
	var children []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.Type() == nodeType {
			children = append(children, child)
		}
	}
	return children
}

// FindChildByType returns the first direct child of node with the given type.
func FindChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// Same reports whether a and b denote the same node.
func Same(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// IsField reports whether child sits in the named field of parent.
func IsField(parent *sitter.Node, field string, child *sitter.Node) bool {
	if parent == nil {
		return false
	}
	return Same(parent.ChildByFieldName(field), child)
}

// Unparen strips any enclosing parenthesized_expression wrappers.
func Unparen(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == "parenthesized_expression" {
		children := NamedChildren(node)
		if len(children) == 0 {
			return node
		}
		node = children[0]
	}
	return node
}

// Modifiers is the decoded content of a modifiers node.
type Modifiers struct {
	Public       bool
	Protected    bool
	Private      bool
	Static       bool
	Abstract     bool
	Final        bool
	Synchronized bool
	Native       bool
	Annotations  []string
}

// HasAnnotation reports whether an annotation with the given simple name is present.
func (m Modifiers) HasAnnotation(name string) bool {
	for _, a := range m.Annotations {
		if a == name || strings.HasSuffix(a, "."+name) {
			return true
		}
	}
	return false
}

// ReadModifiers decodes the modifiers child of a declaration node.
func ReadModifiers(decl *sitter.Node, content []byte) Modifiers {
	var mods Modifiers
	node := FindChildByType(decl, "modifiers")
	if node == nil {
		return mods
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "public":
			mods.Public = true
		case "protected":
			mods.Protected = true
		case "private":
			mods.Private = true
		case "static":
			mods.Static = true
		case "abstract":
			mods.Abstract = true
		case "final":
			mods.Final = true
		case "synchronized":
			mods.Synchronized = true
		case "native":
			mods.Native = true
		case "marker_annotation", "annotation":
			if name := child.ChildByFieldName("name"); name != nil {
				mods.Annotations = append(mods.Annotations, name.Content(content))
			}
		}
	}
	return mods
}

// TypeName is a Java type reference split into its parts.
type TypeName struct {
	ClassType      string // qualified as written, without generics or dimensions
	Generic        string // "<...>" or empty
	ArrayDimension int
}

// ParseTypeName splits the source text of a type.
func ParseTypeName(text string) TypeName {
	text = strings.Join(strings.Fields(text), "")
	var t TypeName
	for strings.HasSuffix(text, "[]") {
		t.ArrayDimension++
		text = strings.TrimSuffix(text, "[]")
	}
	for strings.HasSuffix(text, "...") {
		t.ArrayDimension++
		text = strings.TrimSuffix(text, "...")
	}
	if i := strings.Index(text, "<"); i >= 0 {
		t.Generic = text[i:]
		text = text[:i]
	}
	t.ClassType = text
	return t
}

// String renders the type back to Java source form.
func (t TypeName) String() string {
	return t.ClassType + t.Generic + strings.Repeat("[]", t.ArrayDimension)
}

// SimpleName drops any package qualifier from a class name.
func SimpleName(className string) string {
	if i := strings.LastIndex(className, "."); i >= 0 {
		return className[i+1:]
	}
	return className
}

// BaseTypeName returns the simple class name of a type, without generics or dimensions.
func BaseTypeName(text string) string {
	return SimpleName(ParseTypeName(text).ClassType)
}

// DeclaratorDimensions counts the "[]" suffixes on a variable declarator
// such as `int a[]`.
func DeclaratorDimensions(declarator *sitter.Node) int {
	if declarator == nil {
		return 0
	}
	dims := declarator.ChildByFieldName("dimensions")
	if dims == nil {
		return 0
	}
	return len(ChildrenOfType(dims, "["))
}

// StartsUpper reports whether name begins with an upper case ASCII letter.
// Receivers such as `Math` in `Math.max(a, b)` are type names, not variables.
func StartsUpper(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}
