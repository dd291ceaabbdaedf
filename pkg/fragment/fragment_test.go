package fragment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-deodorant/pkg/diag"
	"github.com/l3aro/go-deodorant/pkg/facts"
	"github.com/l3aro/go-deodorant/pkg/resolve"
	"github.com/l3aro/go-deodorant/pkg/syntax"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

const cart = `package shop;

class Item {
    int weight;
    Item next;
    int weight() { return weight; }
}

class Cart {
    int total;
    Item head;
    static int carts;

    static int count() { return carts; }

    int sum(List<Item> list, Item extra) {
        int s = 0;
        for (Item t : list) {
            s += t.weight();
        }
        total = s;
        this.total++;
        head.next = extra;
        extra.weight = 3;
        Item local = new Item();
        local.weight = extra.weight;
        helper(extra);
        count();
        if (s > 10) {
            throw new IllegalStateException("too heavy");
        }
        Runnable r = new Runnable() {
            private int runs;
            public void run() { runs++; }
        };
        return s;
    }

    void loops(int n) {
        int i, j;
        outer:
        for (i = 0, j = n; i < j; i++, j--) {
            switch (i) {
                case 0:
                    continue outer;
                default:
                    break outer;
            }
        }
        try {
            i = 1;
        } catch (RuntimeException e) {
            i = 2;
        } finally {
            j = 0;
        }
    }

    void helper(Item i) {}
}
`

func build(t *testing.T, method string, opts Options) (*Fragment, *syntax.Source, *diag.Reporter, error) {
	t.Helper()
	src, err := syntax.Parse(context.Background(), "Cart.java", []byte(cart))
	require.NoError(t, err)
	t.Cleanup(src.Close)

	p := resolve.NewProgram()
	p.AddSource(src)
	m, err := p.FindMethod("Cart", method, 0)
	require.NoError(t, err)

	reporter := diag.NewReporter(nil)
	r, err := resolve.NewMethodResolver(p, src, m, resolve.DefaultOptions(), reporter)
	require.NoError(t, err)

	root, err := Build(context.Background(), r, reporter, opts)
	return root, src, reporter, err
}

// statementAt returns the first fragment whose source text starts with prefix.
func statementAt(t *testing.T, root *Fragment, src *syntax.Source, prefix string) *Fragment {
	t.Helper()
	var found *Fragment
	root.Walk(func(f *Fragment) {
		if found != nil || f.Kind() == KindMethod {
			return
		}
		n, ok := src.Locate(f.Key())
		if ok && strings.HasPrefix(src.Text(n), prefix) {
			found = f
		}
	})
	require.NotNil(t, found, "no fragment for %q", prefix)
	return found
}

func names[V variable.AbstractVariable](vs []V) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Name())
	}
	return out
}

func TestBuildTree(t *testing.T) {
	root, _, _, err := build(t, "sum", Options{})
	require.NoError(t, err)

	assert.Equal(t, KindMethod, root.Kind())
	children := root.Children()
	require.Len(t, children, 13)

	var kinds []StatementType
	for _, c := range children {
		kinds = append(kinds, c.Statement())
	}
	assert.Equal(t, []StatementType{
		StatementDeclaration, StatementEnhancedFor, StatementExpression, StatementExpression,
		StatementExpression, StatementExpression, StatementDeclaration, StatementExpression,
		StatementExpression, StatementExpression, StatementIf, StatementDeclaration, StatementReturn,
	}, kinds)

	loop := children[1]
	assert.Equal(t, KindComposite, loop.Kind())
	exprs := loop.Expressions()
	require.Len(t, exprs, 1)
	assert.Equal(t, RoleValue, exprs[0].Role())
	require.Len(t, loop.Statements(), 1)
	assert.Equal(t, StatementBlock, loop.Statements()[0].Statement())
}

func TestRollUp(t *testing.T) {
	root, src, _, err := build(t, "sum", Options{})
	require.NoError(t, err)

	call := statementAt(t, root, src, "s += t.weight()")
	assert.Len(t, call.MethodInvocations(), 1)

	// Every fact of a descendant is visible on each ancestor.
	for cur := call; cur != nil; cur = cur.Parent() {
		assert.True(t, cur.ContainsMethodInvocation(call.MethodInvocations()[0]))
		assert.Contains(t, names(cur.DefinedLocalVariables()), "s")
	}
	assert.Same(t, root, call.Root())
}

func TestDefUseClassification(t *testing.T) {
	root, src, _, err := build(t, "sum", Options{})
	require.NoError(t, err)

	tests := []struct {
		stmt    string
		defined []string
		used    []string
	}{
		{"int s = 0", []string{"s"}, nil},
		{"s += t.weight()", []string{"s"}, []string{"s", "t"}},
		{"total = s", []string{"total"}, []string{"s"}},
		{"this.total++", []string{"total"}, []string{"total"}},
		{"head.next = extra", []string{"head.next"}, []string{"head", "extra"}},
		{"extra.weight = 3", []string{"extra.weight"}, []string{"extra"}},
		{"local.weight = extra.weight", []string{"local.weight"}, []string{"local", "extra", "extra.weight"}},
	}
	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			f := statementAt(t, root, src, tt.stmt)
			assert.ElementsMatch(t, tt.defined, names(f.DefinedVariables()))
			assert.ElementsMatch(t, tt.used, names(f.UsedVariables()))
		})
	}
}

func TestFieldBuckets(t *testing.T) {
	root, _, _, err := build(t, "sum", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"total"}, names(root.DefinedFieldsThroughThisReference()))
	assert.Len(t, root.NonDistinctDefinedFieldsThroughThisReference(), 2)
	assert.ElementsMatch(t, []string{"total", "head"}, names(root.UsedFieldsThroughThisReference()))

	assert.Equal(t, []string{"head.next"}, names(root.DefinedFieldsThroughFields()))
	assert.Equal(t, []string{"extra.weight"}, names(root.DefinedFieldsThroughParameters()))
	assert.Equal(t, []string{"extra.weight"}, names(root.UsedFieldsThroughParameters()))
	assert.Equal(t, []string{"local.weight"}, names(root.DefinedFieldsThroughLocalVariables()))

	for _, v := range root.DefinedFieldsThroughParameters() {
		assert.True(t, v.InitialVariable().IsParameter())
	}
}

func TestInvocationRouting(t *testing.T) {
	root, _, reporter, err := build(t, "sum", Options{})
	require.NoError(t, err)

	throughLocals := root.InvokedMethodsThroughLocalVariables()
	require.Len(t, throughLocals, 1)
	assert.Equal(t, "t", throughLocals[0].Variable.Name())
	require.Len(t, throughLocals[0].Methods, 1)
	assert.Equal(t, "Item::weight():int", throughLocals[0].Methods[0].Signature())
	assert.Equal(t, throughLocals[0].Methods, root.InvokedMethodsThrough(throughLocals[0].Variable))

	this := root.InvokedMethodsThroughThisReference()
	require.Len(t, this, 1)
	assert.Equal(t, "helper", this[0].Name)

	static := root.InvokedStaticMethods()
	require.Len(t, static, 1)
	assert.Equal(t, "count", static[0].Name)
	assert.True(t, static[0].Static)

	assert.Empty(t, root.InvokedMethodsThroughFields())
	assert.Empty(t, root.InvokedMethodsThroughParameters())

	passed := root.ParametersPassedAsArgumentsInMethodInvocations()
	require.Len(t, passed, 1)
	assert.Equal(t, "extra", passed[0].Parameter.Name())
	assert.Equal(t, "helper", passed[0].Calls[0].Name)

	assert.Zero(t, reporter.Count(diag.UnresolvedReference))
}

func TestCreationsAndLiterals(t *testing.T) {
	root, _, _, err := build(t, "sum", Options{})
	require.NoError(t, err)

	creations := root.ClassInstanceCreations()
	require.Len(t, creations, 3)
	var types []string
	for _, c := range creations {
		types = append(types, c.Type.String())
	}
	assert.ElementsMatch(t, []string{"Item", "IllegalStateException", "Runnable"}, types)

	assigned := root.VariablesAssignedWithClassInstanceCreations()
	require.Len(t, assigned, 2)
	assert.ElementsMatch(t, []string{"local", "r"}, []string{assigned[0].Parameter.Name(), assigned[1].Parameter.Name()})

	var values []string
	for _, l := range root.Literals() {
		values = append(values, l.Value)
	}
	assert.ElementsMatch(t, []string{"0", "3", "10", `"too heavy"`}, values)

	thrown := root.ExceptionsInThrowStatements()
	require.Len(t, thrown, 1)
	assert.Equal(t, "IllegalStateException", thrown[0].Type)
}

func TestAnonymousDecomposition(t *testing.T) {
	root, _, _, err := build(t, "sum", Options{})
	require.NoError(t, err)

	anon := root.AnonymousClassDeclarations()
	require.Len(t, anon, 1)
	assert.Equal(t, "Cart$1", anon[0].Name)

	require.Len(t, anon[0].Fields, 1)
	assert.Equal(t, "runs", anon[0].Fields[0].Name)
	assert.Equal(t, facts.AccessPrivate, anon[0].Fields[0].Access)

	require.Len(t, anon[0].Methods, 1)
	run := anon[0].Methods[0]
	assert.Equal(t, "run", run.Name)
	assert.Equal(t, facts.AccessPublic, run.Access)
	assert.Equal(t, "void", run.ReturnType.String())
	require.NotNil(t, run.Body)

	// The anonymous body belongs to the class, not to the enclosing method.
	assert.NotContains(t, names(root.UsedVariables()), "runs")
}

func TestControlStructures(t *testing.T) {
	root, src, _, err := build(t, "loops", Options{})
	require.NoError(t, err)

	labeled := statementAt(t, root, src, "outer:")
	assert.Equal(t, StatementLabeled, labeled.Statement())
	assert.Equal(t, "outer", labeled.Label())

	loop := labeled.Children()[0]
	require.Equal(t, StatementFor, loop.Statement())
	var roles []Role
	for _, e := range loop.Expressions() {
		roles = append(roles, e.Role())
	}
	assert.Equal(t, []Role{RoleInit, RoleInit, RoleCondition, RoleUpdate, RoleUpdate}, roles)

	cont := statementAt(t, root, src, "continue outer")
	assert.Equal(t, StatementContinue, cont.Statement())
	assert.Equal(t, "outer", cont.Label())
	brk := statementAt(t, root, src, "break outer")
	assert.Equal(t, "outer", brk.Label())

	sw := statementAt(t, root, src, "switch (i)")
	var swKinds []StatementType
	for _, c := range sw.Statements() {
		swKinds = append(swKinds, c.Statement())
	}
	assert.Equal(t, []StatementType{StatementCase, StatementContinue, StatementCase, StatementBreak}, swKinds)

	try := statementAt(t, root, src, "try {")
	var tryKinds []StatementType
	for _, c := range try.Statements() {
		tryKinds = append(tryKinds, c.Statement())
	}
	assert.Equal(t, []StatementType{StatementBlock, StatementCatch, StatementFinally}, tryKinds)

	catch := try.Statements()[1]
	require.Len(t, catch.Expressions(), 1)
	assert.Equal(t, []string{"e"}, names(catch.Expressions()[0].DeclaredLocalVariables()))
}

func TestParametersAreLocals(t *testing.T) {
	root, _, _, err := build(t, "loops", Options{})
	require.NoError(t, err)

	var n variable.Plain
	for _, v := range root.UsedLocalVariables() {
		if v.Name() == "n" {
			n = v
		}
	}
	assert.True(t, n.IsParameter())
	assert.NotEmpty(t, root.LocalVariableInstructions())
}

func TestMaxStatements(t *testing.T) {
	root, _, _, err := build(t, "sum", Options{MaxStatements: 3})
	require.ErrorIs(t, err, ErrTooManyStatements)
	require.NotNil(t, root)
	assert.LessOrEqual(t, len(root.Children()), 3)
}

func TestBuildCancelled(t *testing.T) {
	src, err := syntax.Parse(context.Background(), "Cart.java", []byte(cart))
	require.NoError(t, err)
	defer src.Close()
	p := resolve.NewProgram()
	p.AddSource(src)
	m, err := p.FindMethod("Cart", "sum", 0)
	require.NoError(t, err)
	r, err := resolve.NewMethodResolver(p, src, m, resolve.DefaultOptions(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root, err := Build(ctx, r, nil, Options{})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, root)
	assert.Empty(t, root.Children())
}
