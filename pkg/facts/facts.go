// Package facts defines the records the fragment collector produces for
// every syntactic fact it finds in a method body.
package facts

import (
	"strings"

	"github.com/l3aro/go-deodorant/pkg/syntax"
)

// Kind is the closed set of fact record kinds.
type Kind string

const (
	KindField                     Kind = "field"
	KindSuperField                Kind = "super_field"
	KindLocalDeclaration          Kind = "local_declaration"
	KindLocalInstruction          Kind = "local_instruction"
	KindMethodInvocation          Kind = "method_invocation"
	KindSuperMethodInvocation     Kind = "super_method_invocation"
	KindConstructorInvocation     Kind = "constructor_invocation"
	KindClassInstanceCreation     Kind = "class_instance_creation"
	KindArrayCreation             Kind = "array_creation"
	KindLiteral                   Kind = "literal"
	KindAnonymousClassDeclaration Kind = "anonymous_class_declaration"
)

// Fact is implemented by every record payload.
type Fact interface {
	Kind() Kind
	// Identity is the structural identity. Records with equal identities
	// describe the same fact, possibly found at different sites.
	Identity() string
	// Origin is the syntax location the record was built from.
	Origin() syntax.Key
}

// TypeObject is a resolved or written type reference.
type TypeObject struct {
	ClassType      string `json:"class_type" msgpack:"class_type"`
	Generic        string `json:"generic,omitempty" msgpack:"generic,omitempty"`
	ArrayDimension int    `json:"array_dimension,omitempty" msgpack:"array_dimension,omitempty"`
}

// TypeOf builds a TypeObject from type text. Empty text yields Object.
func TypeOf(text string) TypeObject {
	if strings.TrimSpace(text) == "" {
		return TypeObject{ClassType: syntax.ObjectType}
	}
	t := syntax.ParseTypeName(text)
	return TypeObject{ClassType: t.ClassType, Generic: t.Generic, ArrayDimension: t.ArrayDimension}
}

func (t TypeObject) String() string {
	return syntax.TypeName{ClassType: t.ClassType, Generic: t.Generic, ArrayDimension: t.ArrayDimension}.String()
}

// SimpleName is the class type without its package qualifier.
func (t TypeObject) SimpleName() string {
	return syntax.SimpleName(t.ClassType)
}

// Access is a member's declared visibility.
type Access string

const (
	AccessNone      Access = "none"
	AccessPublic    Access = "public"
	AccessProtected Access = "protected"
	AccessPrivate   Access = "private"
)

// AccessOf picks the visibility out of decoded modifiers.
func AccessOf(mods syntax.Modifiers) Access {
	switch {
	case mods.Public:
		return AccessPublic
	case mods.Protected:
		return AccessProtected
	case mods.Private:
		return AccessPrivate
	}
	return AccessNone
}

// Distinct drops records whose identity was already seen, keeping order.
func Distinct[F Fact](records []F) []F {
	seen := make(map[string]bool, len(records))
	var out []F
	for _, r := range records {
		id := r.Identity()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, r)
	}
	return out
}

// Contains reports whether a record with the identity of f is in records.
func Contains[F Fact](records []F, f F) bool {
	id := f.Identity()
	for _, r := range records {
		if r.Identity() == id {
			return true
		}
	}
	return false
}
