package facts

import (
	"fmt"
	"strings"

	"github.com/l3aro/go-deodorant/pkg/syntax"
)

// FieldInstruction is a read or write of a field.
type FieldInstruction struct {
	OwnerClass string     `json:"owner_class" msgpack:"owner_class"`
	Type       TypeObject `json:"type" msgpack:"type"`
	Name       string     `json:"name" msgpack:"name"`
	Static     bool       `json:"static,omitempty" msgpack:"static,omitempty"`
	Binding    syntax.Key `json:"binding" msgpack:"binding"` // field declaration
	Site       syntax.Key `json:"site" msgpack:"site"`
}

func (f FieldInstruction) Kind() Kind         { return KindField }
func (f FieldInstruction) Origin() syntax.Key { return f.Site }
func (f FieldInstruction) Identity() string {
	return fieldIdentity(KindField, f.OwnerClass, f.Name, f.Type, f.Binding)
}
func (f FieldInstruction) String() string { return f.OwnerClass + "::" + f.Name }

// SuperFieldInstruction is an access of the form super.field.
type SuperFieldInstruction struct {
	OwnerClass string     `json:"owner_class" msgpack:"owner_class"`
	Type       TypeObject `json:"type" msgpack:"type"`
	Name       string     `json:"name" msgpack:"name"`
	Static     bool       `json:"static,omitempty" msgpack:"static,omitempty"`
	Binding    syntax.Key `json:"binding" msgpack:"binding"`
	Site       syntax.Key `json:"site" msgpack:"site"`
}

func (f SuperFieldInstruction) Kind() Kind         { return KindSuperField }
func (f SuperFieldInstruction) Origin() syntax.Key { return f.Site }
func (f SuperFieldInstruction) Identity() string {
	return fieldIdentity(KindSuperField, f.OwnerClass, f.Name, f.Type, f.Binding)
}

func fieldIdentity(kind Kind, owner, name string, t TypeObject, binding syntax.Key) string {
	return fmt.Sprintf("%s|%s::%s|%s|%s", kind, owner, name, t, binding)
}

// LocalVariableDeclaration is the declaration of a local variable.
type LocalVariableDeclaration struct {
	Type TypeObject `json:"type" msgpack:"type"`
	Name string     `json:"name" msgpack:"name"`
	Decl syntax.Key `json:"decl" msgpack:"decl"`
	Site syntax.Key `json:"site" msgpack:"site"` // declaring statement
}

func (l LocalVariableDeclaration) Kind() Kind         { return KindLocalDeclaration }
func (l LocalVariableDeclaration) Origin() syntax.Key { return l.Site }
func (l LocalVariableDeclaration) Identity() string {
	return fmt.Sprintf("%s|%s|%s|%s", KindLocalDeclaration, l.Name, l.Type, l.Decl)
}

// LocalVariableInstruction is a read or write of a local variable or parameter.
type LocalVariableInstruction struct {
	Type TypeObject `json:"type" msgpack:"type"`
	Name string     `json:"name" msgpack:"name"`
	Decl syntax.Key `json:"decl" msgpack:"decl"`
	Site syntax.Key `json:"site" msgpack:"site"`
}

func (l LocalVariableInstruction) Kind() Kind         { return KindLocalInstruction }
func (l LocalVariableInstruction) Origin() syntax.Key { return l.Site }
func (l LocalVariableInstruction) Identity() string {
	return fmt.Sprintf("%s|%s|%s|%s", KindLocalInstruction, l.Name, l.Type, l.Decl)
}

// Invocation is the shared payload of method, super method and constructor
// invocations.
type Invocation struct {
	OwnerClass       string       `json:"owner_class" msgpack:"owner_class"`
	Name             string       `json:"name" msgpack:"name"`
	ReturnType       TypeObject   `json:"return_type" msgpack:"return_type"`
	ParameterTypes   []TypeObject `json:"parameter_types,omitempty" msgpack:"parameter_types,omitempty"`
	ThrownExceptions []string     `json:"thrown_exceptions,omitempty" msgpack:"thrown_exceptions,omitempty"`
	Static           bool         `json:"static,omitempty" msgpack:"static,omitempty"`
	Site             syntax.Key   `json:"site" msgpack:"site"`
}

// Signature renders owner::name(params):return.
func (i Invocation) Signature() string {
	params := make([]string, 0, len(i.ParameterTypes))
	for _, p := range i.ParameterTypes {
		params = append(params, p.String())
	}
	return fmt.Sprintf("%s::%s(%s):%s", i.OwnerClass, i.Name, strings.Join(params, ", "), i.ReturnType)
}

func (i Invocation) Origin() syntax.Key { return i.Site }

// MethodInvocation is a call of an ordinary method.
type MethodInvocation struct{ Invocation }

func (m MethodInvocation) Kind() Kind { return KindMethodInvocation }
func (m MethodInvocation) Identity() string {
	return string(KindMethodInvocation) + "|" + m.Signature()
}
func (m MethodInvocation) String() string { return m.Signature() }

// SuperMethodInvocation is a call of the form super.m(...).
type SuperMethodInvocation struct{ Invocation }

func (m SuperMethodInvocation) Kind() Kind { return KindSuperMethodInvocation }
func (m SuperMethodInvocation) Identity() string {
	return string(KindSuperMethodInvocation) + "|" + m.Signature()
}

// ConstructorInvocation is an explicit this(...) or super(...) call.
type ConstructorInvocation struct{ Invocation }

func (m ConstructorInvocation) Kind() Kind { return KindConstructorInvocation }
func (m ConstructorInvocation) Identity() string {
	return string(KindConstructorInvocation) + "|" + m.Signature()
}

// CreationObject is implemented by class instance and array creations.
type CreationObject interface {
	Fact
	CreatedType() TypeObject
}

// ClassInstanceCreation is a `new T(...)` expression.
type ClassInstanceCreation struct {
	Type           TypeObject   `json:"type" msgpack:"type"`
	ParameterTypes []TypeObject `json:"parameter_types,omitempty" msgpack:"parameter_types,omitempty"`
	Anonymous      string       `json:"anonymous,omitempty" msgpack:"anonymous,omitempty"` // anonymous class name, if any
	Site           syntax.Key   `json:"site" msgpack:"site"`
}

func (c ClassInstanceCreation) Kind() Kind              { return KindClassInstanceCreation }
func (c ClassInstanceCreation) Origin() syntax.Key      { return c.Site }
func (c ClassInstanceCreation) CreatedType() TypeObject { return c.Type }
func (c ClassInstanceCreation) Identity() string {
	return fmt.Sprintf("%s|%s|%s", KindClassInstanceCreation, c.Type, c.Site)
}

// ArrayCreation is a `new T[n]` expression.
type ArrayCreation struct {
	Type TypeObject `json:"type" msgpack:"type"`
	Site syntax.Key `json:"site" msgpack:"site"`
}

func (a ArrayCreation) Kind() Kind              { return KindArrayCreation }
func (a ArrayCreation) Origin() syntax.Key      { return a.Site }
func (a ArrayCreation) CreatedType() TypeObject { return a.Type }
func (a ArrayCreation) Identity() string {
	return fmt.Sprintf("%s|%s|%s", KindArrayCreation, a.Type, a.Site)
}

// LiteralType classifies literals.
type LiteralType string

const (
	LiteralNumber    LiteralType = "number"
	LiteralString    LiteralType = "string"
	LiteralCharacter LiteralType = "character"
	LiteralBoolean   LiteralType = "boolean"
	LiteralNull      LiteralType = "null"
)

// LiteralTypeOf maps a tree-sitter literal node type to a LiteralType.
func LiteralTypeOf(nodeType string) LiteralType {
	switch nodeType {
	case "string_literal", "text_block":
		return LiteralString
	case "character_literal":
		return LiteralCharacter
	case "true", "false":
		return LiteralBoolean
	case "null_literal":
		return LiteralNull
	}
	return LiteralNumber
}

// Literal is a literal expression.
type Literal struct {
	Type  LiteralType `json:"type" msgpack:"type"`
	Value string      `json:"value" msgpack:"value"`
	Site  syntax.Key  `json:"site" msgpack:"site"`
}

func (l Literal) Kind() Kind         { return KindLiteral }
func (l Literal) Origin() syntax.Key { return l.Site }
func (l Literal) Identity() string {
	return fmt.Sprintf("%s|%s|%s|%s", KindLiteral, l.Type, l.Value, l.Site)
}

// FieldObject is a field declared by an anonymous class.
type FieldObject struct {
	ClassName string     `json:"class_name" msgpack:"class_name"`
	Name      string     `json:"name" msgpack:"name"`
	Type      TypeObject `json:"type" msgpack:"type"`
	Access    Access     `json:"access" msgpack:"access"`
	Static    bool       `json:"static,omitempty" msgpack:"static,omitempty"`
	Decl      syntax.Key `json:"decl" msgpack:"decl"`
}

// ParameterObject is a declared method parameter.
type ParameterObject struct {
	Name    string     `json:"name" msgpack:"name"`
	Type    TypeObject `json:"type" msgpack:"type"`
	Varargs bool       `json:"varargs,omitempty" msgpack:"varargs,omitempty"`
}

// BodySummary describes a method body without holding it.
type BodySummary struct {
	Statements int        `json:"statements" msgpack:"statements"`
	Key        syntax.Key `json:"key" msgpack:"key"`
}

// MethodObject is a method declared by an anonymous class.
type MethodObject struct {
	ClassName      string            `json:"class_name" msgpack:"class_name"`
	Name           string            `json:"name" msgpack:"name"`
	Access         Access            `json:"access" msgpack:"access"`
	Parameters     []ParameterObject `json:"parameters,omitempty" msgpack:"parameters,omitempty"`
	ReturnType     TypeObject        `json:"return_type" msgpack:"return_type"`
	Body           *BodySummary      `json:"body,omitempty" msgpack:"body,omitempty"`
	TestAnnotation bool              `json:"test_annotation,omitempty" msgpack:"test_annotation,omitempty"`
	Abstract       bool              `json:"abstract,omitempty" msgpack:"abstract,omitempty"`
	Static         bool              `json:"static,omitempty" msgpack:"static,omitempty"`
	Synchronized   bool              `json:"synchronized,omitempty" msgpack:"synchronized,omitempty"`
	Native         bool              `json:"native,omitempty" msgpack:"native,omitempty"`
	Decl           syntax.Key        `json:"decl" msgpack:"decl"`
}

// AnonymousClassDeclaration is the decomposed body of an anonymous class.
type AnonymousClassDeclaration struct {
	Name    string         `json:"name" msgpack:"name"`
	Fields  []FieldObject  `json:"fields,omitempty" msgpack:"fields,omitempty"`
	Methods []MethodObject `json:"methods,omitempty" msgpack:"methods,omitempty"`
	Site    syntax.Key     `json:"site" msgpack:"site"`
}

func (a AnonymousClassDeclaration) Kind() Kind         { return KindAnonymousClassDeclaration }
func (a AnonymousClassDeclaration) Origin() syntax.Key { return a.Site }
func (a AnonymousClassDeclaration) Identity() string {
	return fmt.Sprintf("%s|%s|%s", KindAnonymousClassDeclaration, a.Name, a.Site)
}

// ThrowExpression is the operand of a throw statement.
type ThrowExpression struct {
	Type string     `json:"type" msgpack:"type"` // static type, Object if unknown
	Text string     `json:"text" msgpack:"text"`
	Site syntax.Key `json:"site" msgpack:"site"`
}
