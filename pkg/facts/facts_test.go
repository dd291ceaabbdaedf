package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/l3aro/go-deodorant/pkg/syntax"
)

func TestFieldInstructionIdentity(t *testing.T) {
	binding := syntax.Key{Path: "A.java", Start: 10, End: 15, Kind: "variable_declarator"}
	first := FieldInstruction{OwnerClass: "A", Type: TypeOf("int"), Name: "count", Binding: binding,
		Site: syntax.Key{Path: "A.java", Start: 100, End: 105, Kind: "identifier"}}
	second := first
	second.Site = syntax.Key{Path: "A.java", Start: 200, End: 205, Kind: "identifier"}

	assert.Equal(t, first.Identity(), second.Identity(), "site does not take part in identity")

	other := first
	other.Binding = syntax.Key{Path: "B.java", Start: 10, End: 15, Kind: "variable_declarator"}
	assert.NotEqual(t, first.Identity(), other.Identity())

	assert.Equal(t, []FieldInstruction{first}, Distinct([]FieldInstruction{first, second}))
	assert.True(t, Contains([]FieldInstruction{first}, second))
	assert.False(t, Contains([]FieldInstruction{first}, other))
}

func TestInvocationIdentity(t *testing.T) {
	inv := Invocation{
		OwnerClass:     "Item",
		Name:           "weight",
		ReturnType:     TypeOf("int"),
		ParameterTypes: []TypeObject{TypeOf("String"), TypeOf("int[]")},
	}
	assert.Equal(t, "Item::weight(String, int[]):int", inv.Signature())

	call := MethodInvocation{Invocation: inv}
	super := SuperMethodInvocation{Invocation: inv}
	assert.NotEqual(t, call.Identity(), super.Identity())
	assert.Equal(t, KindSuperMethodInvocation, super.Kind())
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		text string
		want TypeObject
	}{
		{"", TypeObject{ClassType: "Object"}},
		{"int", TypeObject{ClassType: "int"}},
		{"List<String>", TypeObject{ClassType: "List", Generic: "<String>"}},
		{"byte[][]", TypeObject{ClassType: "byte", ArrayDimension: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.text))
		})
	}
	assert.Equal(t, "Map", TypeOf("java.util.Map<K,V>").SimpleName())
}

func TestAccessOf(t *testing.T) {
	assert.Equal(t, AccessPublic, AccessOf(syntax.Modifiers{Public: true}))
	assert.Equal(t, AccessProtected, AccessOf(syntax.Modifiers{Protected: true}))
	assert.Equal(t, AccessPrivate, AccessOf(syntax.Modifiers{Private: true, Static: true}))
	assert.Equal(t, AccessNone, AccessOf(syntax.Modifiers{Static: true}))
}

func TestLiteralTypeOf(t *testing.T) {
	assert.Equal(t, LiteralString, LiteralTypeOf("string_literal"))
	assert.Equal(t, LiteralBoolean, LiteralTypeOf("false"))
	assert.Equal(t, LiteralNull, LiteralTypeOf("null_literal"))
	assert.Equal(t, LiteralNumber, LiteralTypeOf("hex_integer_literal"))
}

func TestCreationObjects(t *testing.T) {
	var creations []CreationObject
	creations = append(creations,
		ClassInstanceCreation{Type: TypeOf("ArrayList<String>")},
		ArrayCreation{Type: TypeOf("int[]")},
	)
	assert.Equal(t, "ArrayList", creations[0].CreatedType().ClassType)
	assert.Equal(t, 1, creations[1].CreatedType().ArrayDimension)
}
