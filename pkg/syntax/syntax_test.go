package syntax

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `class Sample {
    int total;
    int run(int a) {
        Runnable r = new Runnable() { public void run() { hidden(); } };
        total += a;
        return compute(a, 1);
    }
}`

func parseSample(t *testing.T) *Source {
	t.Helper()
	src, err := Parse(context.Background(), "Sample.java", []byte(sample))
	require.NoError(t, err)
	t.Cleanup(src.Close)
	return src
}

func runBody(t *testing.T, src *Source) *sitter.Node {
	t.Helper()
	class := FindChildByType(src.Root(), "class_declaration")
	require.NotNil(t, class)
	for _, member := range NamedChildren(class.ChildByFieldName("body")) {
		if member.Type() == "method_declaration" {
			return member.ChildByFieldName("body")
		}
	}
	t.Fatal("method not found")
	return nil
}

func TestKeyRoundTrip(t *testing.T) {
	src := parseSample(t)

	invocations := Collect(runBody(t, src), KindMethodInvocation)
	require.NotEmpty(t, invocations)

	key := src.Key(invocations[0])
	assert.Equal(t, "Sample.java", key.Path)
	assert.Equal(t, KindMethodInvocation, key.Kind)

	node, ok := src.Locate(key)
	require.True(t, ok)
	assert.True(t, Same(node, invocations[0]))
	assert.Equal(t, src.Text(invocations[0]), src.Text(node))
}

func TestLocateAfterClose(t *testing.T) {
	src, err := Parse(context.Background(), "Sample.java", []byte(sample))
	require.NoError(t, err)

	key := src.Key(Collect(runBody(t, src), KindMethodInvocation)[0])
	src.Close()

	_, ok := src.Locate(key)
	assert.False(t, ok, "closed source must not resolve keys")
}

func TestLocateOtherPath(t *testing.T) {
	src := parseSample(t)
	key := src.Key(src.Root())
	key.Path = "Other.java"

	_, ok := src.Locate(key)
	assert.False(t, ok)
}

func TestCollectSkipsAnonymousBodies(t *testing.T) {
	src := parseSample(t)

	var names []string
	for _, n := range Collect(runBody(t, src), KindMethodInvocation) {
		names = append(names, src.Text(n.ChildByFieldName("name")))
	}
	assert.Equal(t, []string{"compute"}, names)
}

func TestReferenceIdentifiers(t *testing.T) {
	src := parseSample(t)

	var refs []string
	for _, n := range ReferenceIdentifiers(runBody(t, src)) {
		refs = append(refs, src.Text(n))
	}
	assert.Equal(t, []string{"total", "a", "a"}, refs)
}

func TestParseTypeName(t *testing.T) {
	tests := []struct {
		text string
		want TypeName
	}{
		{"int", TypeName{ClassType: "int"}},
		{"String[]", TypeName{ClassType: "String", ArrayDimension: 1}},
		{"java.util.List<String>", TypeName{ClassType: "java.util.List", Generic: "<String>"}},
		{"Map<K, V>[][]", TypeName{ClassType: "Map", Generic: "<K,V>", ArrayDimension: 2}},
		{"Object...", TypeName{ClassType: "Object", ArrayDimension: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTypeName(tt.text))
		})
	}

	assert.Equal(t, "List", BaseTypeName("java.util.List<String>[]"))
}

func TestReadModifiers(t *testing.T) {
	code := `class A { @Test public static synchronized void m() {} }`
	src, err := Parse(context.Background(), "A.java", []byte(code))
	require.NoError(t, err)
	defer src.Close()

	methods := Collect(src.Root(), "method_declaration")
	require.Len(t, methods, 0, "class bodies are opaque to Collect")

	class := FindChildByType(src.Root(), "class_declaration")
	require.NotNil(t, class)
	method := FindChildByType(class.ChildByFieldName("body"), "method_declaration")
	require.NotNil(t, method)

	mods := ReadModifiers(method, src.Content)
	assert.True(t, mods.Public)
	assert.True(t, mods.Static)
	assert.True(t, mods.Synchronized)
	assert.False(t, mods.Abstract)
	assert.True(t, mods.HasAnnotation("Test"))
}

func TestIsPrimitive(t *testing.T) {
	assert.True(t, IsPrimitive("int"))
	assert.True(t, IsPrimitive("boolean"))
	assert.False(t, IsPrimitive("Integer"))
	assert.False(t, IsPrimitive("int[]"))
}
