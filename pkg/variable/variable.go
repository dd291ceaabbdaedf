package variable

import "strings"

// AbstractVariable is either a Plain variable or a Composite access path.
// Implementations are comparable values and can be used as map keys.
type AbstractVariable interface {
	// Origin is the declaration the path starts from.
	Origin() Decl
	// InitialVariable is the root of the path as a plain variable.
	InitialVariable() Plain
	// Leaf is the last declaration on the path.
	Leaf() Decl
	// Path lists the declarations from root to leaf.
	Path() []Decl
	// Name is the dotted source form, e.g. "a.b.c".
	Name() string
	// Type is the static type of the leaf.
	Type() string
	String() string

	isVariable()
}

// Plain is a variable bound directly to one declaration.
type Plain struct {
	Decl Decl
}

// NewPlain returns the plain variable for decl.
func NewPlain(decl Decl) Plain {
	return Plain{Decl: decl}
}

func (p Plain) Origin() Decl           { return p.Decl }
func (p Plain) InitialVariable() Plain { return p }
func (p Plain) Leaf() Decl             { return p.Decl }
func (p Plain) Path() []Decl           { return []Decl{p.Decl} }
func (p Plain) Name() string           { return p.Decl.Name }
func (p Plain) Type() string           { return p.Decl.Type }
func (p Plain) String() string         { return p.Decl.Name }
func (Plain) isVariable()              {}

// IsField reports whether the variable is bound to a field.
func (p Plain) IsField() bool { return p.Decl.IsField() }

// IsParameter reports whether the variable is bound to a parameter.
func (p Plain) IsParameter() bool { return p.Decl.IsParameter() }

// IsLocal reports whether the variable is bound to a local variable.
func (p Plain) IsLocal() bool { return p.Decl.IsLocal() }

// Composite is an access path: the origin declaration followed by the rest
// of the path toward the leaf field.
type Composite struct {
	Head Decl
	Rest AbstractVariable
}

// NewComposite chains origin with right.
func NewComposite(origin Decl, right AbstractVariable) Composite {
	return Composite{Head: origin, Rest: right}
}

func (c Composite) Origin() Decl           { return c.Head }
func (c Composite) InitialVariable() Plain { return Plain{Decl: c.Head} }
func (c Composite) Leaf() Decl             { return c.Rest.Leaf() }
func (c Composite) Type() string           { return c.Rest.Type() }
func (c Composite) String() string         { return c.Name() }
func (Composite) isVariable()              {}

// RightPart is the path after the origin.
func (c Composite) RightPart() AbstractVariable { return c.Rest }

func (c Composite) Path() []Decl {
	return append([]Decl{c.Head}, c.Rest.Path()...)
}

func (c Composite) Name() string {
	return c.Head.Name + "." + c.Rest.Name()
}

// FromPath builds the canonical variable for a root-to-leaf chain of
// declarations. It returns nil for an empty chain.
func FromPath(path ...Decl) AbstractVariable {
	switch len(path) {
	case 0:
		return nil
	case 1:
		return Plain{Decl: path[0]}
	}
	return Composite{Head: path[0], Rest: FromPath(path[1:]...)}
}

// Append extends prefix with the path of rest.
func Append(prefix, rest AbstractVariable) AbstractVariable {
	return FromPath(append(prefix.Path(), rest.Path()...)...)
}

// IsComposite reports whether v is an access path.
func IsComposite(v AbstractVariable) bool {
	_, ok := v.(Composite)
	return ok
}

// RootedAt reports whether the initial variable of v is decl.
func RootedAt(v AbstractVariable, decl Decl) bool {
	return v != nil && v.Origin() == decl
}

// StartsWith reports whether the path of prefix is a prefix of the path of v.
func StartsWith(v, prefix AbstractVariable) bool {
	vp, pp := v.Path(), prefix.Path()
	if len(pp) > len(vp) {
		return false
	}
	for i := range pp {
		if vp[i] != pp[i] {
			return false
		}
	}
	return true
}

// Names joins the names of vars with commas.
func Names(vars []AbstractVariable) string {
	names := make([]string, 0, len(vars))
	for _, v := range vars {
		names = append(names, v.Name())
	}
	return strings.Join(names, ", ")
}
