package resolve

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-deodorant/pkg/diag"
	"github.com/l3aro/go-deodorant/pkg/syntax"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

const shapes = `package geo;

class Point {
    int x;
    int y;
    Point next;
}

class Base {
    protected int count;
    int size() { return count; }
}

class Shape extends Base implements Comparable<Shape>, Cloneable {
    Point origin;
    static int created;

    Shape(Point p) { this.origin = p; }

    int area(Point p, int... scale) throws IllegalStateException {
        int total = p.x;
        var copy = origin;
        for (int i = 0; i < scale.length; i++) {
            int total2 = total + i;
        }
        String label = "s";
        label.trim();
        Runnable r = new Runnable() { public void run() {} };
        total += copy.next.y + size();
        return total;
    }
}
`

func load(t *testing.T) (*Program, *syntax.Source) {
	t.Helper()
	src, err := syntax.Parse(context.Background(), "Shape.java", []byte(shapes))
	require.NoError(t, err)
	t.Cleanup(src.Close)
	p := NewProgram()
	p.AddSource(src)
	return p, src
}

func newResolver(t *testing.T, opts Options) (*MethodResolver, *diag.Reporter) {
	t.Helper()
	p, src := load(t)
	m, err := p.FindMethod("Shape", "area", 0)
	require.NoError(t, err)
	reporter := diag.NewReporter(nil)
	r, err := NewMethodResolver(p, src, m, opts, reporter)
	require.NoError(t, err)
	return r, reporter
}

func findText(src *syntax.Source, root *sitter.Node, kind, text string) *sitter.Node {
	for _, n := range syntax.Collect(root, kind) {
		if src.Text(n) == text {
			return n
		}
	}
	return nil
}

func refNamed(src *syntax.Source, root *sitter.Node, name string) *sitter.Node {
	for _, n := range syntax.ReferenceIdentifiers(root) {
		if src.Text(n) == name {
			return n
		}
	}
	return nil
}

func body(t *testing.T, r *MethodResolver) *sitter.Node {
	t.Helper()
	n, ok := r.Source().Locate(r.Method().Body)
	require.True(t, ok)
	return n
}

func TestProgramIndex(t *testing.T) {
	p, _ := load(t)

	shape, ok := p.Class("Shape")
	require.True(t, ok)
	assert.Equal(t, "geo.Shape", shape.Qualified)
	assert.Equal(t, "Base", shape.Superclass)
	assert.Equal(t, []string{"Comparable", "Cloneable"}, shape.Interfaces)

	f, ok := p.Field("Shape", "count")
	require.True(t, ok, "inherited fields are visible")
	assert.Equal(t, "Base", f.Class)
	assert.Equal(t, variable.RoleField, f.Decl.Role)

	created, ok := p.Field("Shape", "created")
	require.True(t, ok)
	assert.True(t, created.Static)

	area, err := p.FindMethod("Shape", "area", 0)
	require.NoError(t, err)
	require.Len(t, area.Parameters, 2)
	assert.True(t, area.Parameters[1].Varargs)
	assert.Equal(t, "int[]", area.Parameters[1].Type)
	assert.Equal(t, []string{"IllegalStateException"}, area.Thrown)
	assert.Equal(t, "Shape.area(Point,int[])", area.ID())

	ctors := p.Constructors("Shape")
	require.Len(t, ctors, 1)
	assert.True(t, ctors[0].Constructor)

	_, err = p.FindMethod("Shape", "missing", 0)
	assert.Error(t, err)
}

func TestBindScopes(t *testing.T) {
	r, _ := newResolver(t, DefaultOptions())
	b := body(t, r)

	total := refNamed(r.Source(), b, "total")
	d, ok := r.Bind(total)
	require.True(t, ok)
	assert.Equal(t, variable.RoleLocal, d.Role)
	assert.Equal(t, "int", d.Type)

	scale := refNamed(r.Source(), b, "scale")
	d, ok = r.Bind(scale)
	require.True(t, ok)
	assert.Equal(t, variable.RoleParameter, d.Role)

	origin := refNamed(r.Source(), b, "origin")
	d, ok = r.Bind(origin)
	require.True(t, ok)
	assert.Equal(t, variable.RoleField, d.Role)
	assert.Equal(t, "Shape", d.Owner)
}

func TestVarInference(t *testing.T) {
	r, _ := newResolver(t, DefaultOptions())
	b := body(t, r)

	copyRef := syntax.ReferenceIdentifiers(b)
	var found bool
	for _, id := range copyRef {
		if r.Source().Text(id) != "copy" {
			continue
		}
		d, ok := r.Bind(id)
		require.True(t, ok)
		assert.Equal(t, "Point", d.Type)
		found = true
	}
	assert.True(t, found)
}

func TestCompositeVariable(t *testing.T) {
	r, _ := newResolver(t, DefaultOptions())
	b := body(t, r)

	access := findText(r.Source(), b, "field_access", "copy.next.y")
	require.NotNil(t, access)
	v, ok := r.Variable(access)
	require.True(t, ok)
	assert.Equal(t, "copy.next.y", v.Name())
	assert.Equal(t, "int", v.Type())
	assert.True(t, v.InitialVariable().IsLocal())

	px := findText(r.Source(), b, "field_access", "p.x")
	v, ok = r.Variable(px)
	require.True(t, ok)
	assert.True(t, v.InitialVariable().IsParameter())

	// Both code paths give the same identity.
	again, ok := r.Variable(px)
	require.True(t, ok)
	assert.Equal(t, v, again)
}

func TestInvocation(t *testing.T) {
	r, reporter := newResolver(t, DefaultOptions())
	b := body(t, r)

	size := findText(r.Source(), b, "method_invocation", "size()")
	m, ok := r.Invocation(size)
	require.True(t, ok)
	assert.Equal(t, "Base", m.Class)
	assert.False(t, m.External)

	trim := findText(r.Source(), b, "method_invocation", "label.trim()")
	m, ok = r.Invocation(trim)
	require.True(t, ok)
	assert.True(t, m.External)
	assert.Equal(t, "String", m.Class)
	assert.Equal(t, "Object", m.ReturnType)
	assert.Equal(t, 1, reporter.Count(diag.MissingType))

	// Cached: asking again reports nothing new.
	_, _ = r.Invocation(trim)
	assert.Equal(t, 1, reporter.Count(diag.MissingType))
}

func TestInvocationWithoutExternalCalls(t *testing.T) {
	r, reporter := newResolver(t, Options{ExternalCalls: false})
	b := body(t, r)

	trim := findText(r.Source(), b, "method_invocation", "label.trim()")
	_, ok := r.Invocation(trim)
	assert.False(t, ok)
	assert.Equal(t, 1, reporter.Count(diag.UnresolvedReference))
}

func TestTypeOf(t *testing.T) {
	r, _ := newResolver(t, DefaultOptions())
	b := body(t, r)
	src := r.Source()

	tests := []struct {
		kind string
		text string
		want string
	}{
		{"string_literal", `"s"`, "String"},
		{"field_access", "p.x", "int"},
		{"binary_expression", "i < scale.length", "boolean"},
		{"method_invocation", "size()", "int"},
		{"object_creation_expression", "new Runnable() { public void run() {} }", "Runnable"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			n := findText(src, b, tt.kind, tt.text)
			require.NotNil(t, n)
			assert.Equal(t, tt.want, r.TypeOf(n))
		})
	}
}

func TestAnonymousClassName(t *testing.T) {
	r, _ := newResolver(t, DefaultOptions())
	b := body(t, r)
	creation := syntax.Collect(b, syntax.KindObjectCreation)
	require.Len(t, creation, 1)
	assert.Equal(t, "Shape$1", r.AnonymousClassName(creation[0]))
}
