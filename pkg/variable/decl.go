// Package variable provides canonical identities for Java variables and
// field-access paths inside one analysed method.
package variable

import (
	"github.com/l3aro/go-deodorant/pkg/syntax"
)

// Role is the kind of declaration a variable is bound to.
type Role string

const (
	RoleField     Role = "field"
	RoleParameter Role = "parameter"
	RoleLocal     Role = "local"
)

// Decl is a declaring entity: a local variable, a parameter or a field.
// Decls are comparable and two Decls are equal iff they denote the same
// declaration.
type Decl struct {
	Role   Role       `json:"role" msgpack:"role"`
	Name   string     `json:"name" msgpack:"name"`
	Type   string     `json:"type" msgpack:"type"`
	Owner  string     `json:"owner,omitempty" msgpack:"owner,omitempty"` // declaring class for fields
	Static bool       `json:"static,omitempty" msgpack:"static,omitempty"`
	Key    syntax.Key `json:"key" msgpack:"key"`
}

// IsZero reports whether d is the empty declaration.
func (d Decl) IsZero() bool {
	return d == Decl{}
}

// IsField reports whether d declares a field.
func (d Decl) IsField() bool { return d.Role == RoleField }

// IsParameter reports whether d declares a method parameter.
func (d Decl) IsParameter() bool { return d.Role == RoleParameter }

// IsLocal reports whether d declares a local variable.
func (d Decl) IsLocal() bool { return d.Role == RoleLocal }

// IsPrimitive reports whether the declared type is a Java primitive.
// Arrays of primitives are references and are not primitive.
func (d Decl) IsPrimitive() bool {
	return syntax.IsPrimitive(d.Type)
}

func (d Decl) String() string {
	if d.IsField() && d.Owner != "" {
		return d.Owner + "::" + d.Name
	}
	return d.Name
}
