package cfg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-deodorant/pkg/fragment"
	"github.com/l3aro/go-deodorant/pkg/resolve"
	"github.com/l3aro/go-deodorant/pkg/syntax"
)

func buildMethod(t *testing.T, body string) *CFG {
	t.Helper()
	code := "class Flow {\n    int m(int a, int[] xs) {\n" + body + "\n    }\n}\n"
	src, err := syntax.Parse(context.Background(), "Flow.java", []byte(code))
	require.NoError(t, err)
	t.Cleanup(src.Close)

	p := resolve.NewProgram()
	p.AddSource(src)
	m, err := p.FindMethod("Flow", "m", 0)
	require.NoError(t, err)
	r, err := resolve.NewMethodResolver(p, src, m, resolve.DefaultOptions(), nil)
	require.NoError(t, err)
	root, err := fragment.Build(context.Background(), r, nil, fragment.Options{})
	require.NoError(t, err)

	g, err := Build(m.ID(), root, src)
	require.NoError(t, err)
	return g
}

func nodeByText(t *testing.T, g *CFG, prefix string) *Node {
	t.Helper()
	for _, n := range g.Nodes {
		if len(n.Text) >= len(prefix) && n.Text[:len(prefix)] == prefix {
			return n
		}
	}
	t.Fatalf("no node starting with %q", prefix)
	return nil
}

func hasEdge(g *CFG, from, to NodeID, typ EdgeType) bool {
	for _, e := range g.Successors(from) {
		if e.To == to && e.Type == typ {
			return true
		}
	}
	return false
}

func TestStraightLine(t *testing.T) {
	g := buildMethod(t, `
        int b = a + 1;
        b++;
        return b;`)

	require.Len(t, g.Nodes, 5)
	assert.Equal(t, NodeTypeEntry, g.Nodes[EntryID].Type)
	assert.Equal(t, NodeTypeExit, g.Node(g.Exit).Type)
	assert.True(t, hasEdge(g, 0, 1, EdgeTypeUnconditional))
	assert.True(t, hasEdge(g, 3, g.Exit, EdgeTypeUnconditional))
	assert.Equal(t, 1, g.CyclomaticComplexity)
	require.Len(t, g.Blocks, 1)
	assert.Equal(t, []NodeID{0, 1, 2, 3, 4}, g.Blocks[0].Nodes)
}

func TestIfElse(t *testing.T) {
	g := buildMethod(t, `
        int b;
        if (a > 0) {
            b = 1;
        } else {
            b = 2;
        }
        return b;`)

	cond := nodeByText(t, g, "if (a > 0)")
	then := nodeByText(t, g, "b = 1")
	els := nodeByText(t, g, "b = 2")
	ret := nodeByText(t, g, "return b")

	assert.Equal(t, NodeTypeBranch, cond.Type)
	assert.True(t, cond.IsDecision())
	assert.True(t, hasEdge(g, cond.ID, then.ID, EdgeTypeTrue))
	assert.True(t, hasEdge(g, cond.ID, els.ID, EdgeTypeFalse))
	assert.True(t, hasEdge(g, then.ID, ret.ID, EdgeTypeUnconditional))
	assert.True(t, hasEdge(g, els.ID, ret.ID, EdgeTypeUnconditional))
	assert.Equal(t, 2, g.CyclomaticComplexity)
}

func TestIfWithoutElse(t *testing.T) {
	g := buildMethod(t, `
        if (a > 0) a = 0;
        return a;`)

	cond := nodeByText(t, g, "if (a > 0)")
	ret := nodeByText(t, g, "return a")
	assert.True(t, hasEdge(g, cond.ID, ret.ID, EdgeTypeFalse))
}

func TestWhileBreakContinue(t *testing.T) {
	g := buildMethod(t, `
        int i = 0;
        while (i < a) {
            i++;
            if (i == 3) continue;
            if (i == 5) break;
        }
        return i;`)

	loop := nodeByText(t, g, "while (i < a)")
	cont := nodeByText(t, g, "continue")
	brk := nodeByText(t, g, "break")
	ret := nodeByText(t, g, "return i")

	assert.Equal(t, NodeTypeLoop, loop.Type)
	assert.True(t, hasEdge(g, loop.ID, ret.ID, EdgeTypeFalse))
	assert.True(t, hasEdge(g, cont.ID, loop.ID, EdgeTypeContinue))
	assert.True(t, hasEdge(g, brk.ID, ret.ID, EdgeTypeBreak))

	loops := g.Loops()
	require.Len(t, loops, 1)
	assert.Equal(t, loop.ID, loops[0].Header)
	assert.True(t, loops[0].Contains(brk.ID))
	assert.False(t, loops[0].Contains(ret.ID))

	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Contains(t, cycles[0], loop.ID)
}

func TestLabeledContinue(t *testing.T) {
	g := buildMethod(t, `
        outer:
        for (int i = 0; i < a; i++) {
            for (int x : xs) {
                if (x == i) continue outer;
            }
        }
        return 0;`)

	outer := nodeByText(t, g, "for (int i = 0")
	inner := nodeByText(t, g, "for (int x : xs)")
	cont := nodeByText(t, g, "continue outer")

	assert.True(t, hasEdge(g, cont.ID, outer.ID, EdgeTypeContinue))
	assert.False(t, hasEdge(g, cont.ID, inner.ID, EdgeTypeContinue))
	assert.Same(t, g.InnermostLoop(cont.ID), g.InnermostLoop(inner.ID))
	assert.Equal(t, outer.ID, g.InnermostLoop(inner.ID, outer.ID).Header)
}

func TestDoWhile(t *testing.T) {
	g := buildMethod(t, `
        do {
            a--;
        } while (a > 0);
        return a;`)

	body := nodeByText(t, g, "a--")
	cond := nodeByText(t, g, "do {")
	assert.Equal(t, NodeTypeLoop, cond.Type)
	assert.Greater(t, cond.ID, body.ID)
	assert.True(t, hasEdge(g, body.ID, cond.ID, EdgeTypeUnconditional))
	assert.True(t, hasEdge(g, cond.ID, body.ID, EdgeTypeTrue))
	assert.True(t, hasEdge(g, EntryID, body.ID, EdgeTypeUnconditional))
}

func TestSwitchFallThrough(t *testing.T) {
	g := buildMethod(t, `
        switch (a) {
            case 1:
                a = 10;
            case 2:
                a = 20;
                break;
            default:
                a = 0;
        }
        return a;`)

	sw := nodeByText(t, g, "switch (a)")
	c1 := nodeByText(t, g, "case 1")
	c2 := nodeByText(t, g, "case 2")
	ten := nodeByText(t, g, "a = 10")
	brk := nodeByText(t, g, "break")
	ret := nodeByText(t, g, "return a")

	assert.True(t, hasEdge(g, sw.ID, c1.ID, EdgeTypeCase))
	assert.True(t, hasEdge(g, sw.ID, c2.ID, EdgeTypeCase))
	assert.True(t, hasEdge(g, ten.ID, c2.ID, EdgeTypeUnconditional), "case 1 falls through")
	assert.True(t, hasEdge(g, brk.ID, ret.ID, EdgeTypeBreak))
	assert.False(t, hasEdge(g, sw.ID, ret.ID, EdgeTypeFalse), "default covers every value")
}

func TestReturnAndThrowGoToExit(t *testing.T) {
	g := buildMethod(t, `
        if (a < 0) {
            throw new IllegalArgumentException();
        }
        try {
            a = xs[0];
        } catch (RuntimeException e) {
            return -1;
        } finally {
            a++;
        }
        return a;`)

	throw := nodeByText(t, g, "throw")
	try := nodeByText(t, g, "try {")
	catch := nodeByText(t, g, "catch (RuntimeException e)")
	inc := nodeByText(t, g, "a++")

	assert.True(t, hasEdge(g, throw.ID, g.Exit, EdgeTypeUnconditional))
	assert.True(t, hasEdge(g, try.ID, catch.ID, EdgeTypeException))
	assert.True(t, hasEdge(g, nodeByText(t, g, "a = xs[0]").ID, inc.ID, EdgeTypeUnconditional))
	assert.True(t, g.Reachable(EntryID, inc.ID))
	assert.False(t, g.Reachable(throw.ID, inc.ID))
}

func TestOrderIsTopological(t *testing.T) {
	g := buildMethod(t, `
        int s = 0;
        for (int x : xs) {
            s += x;
        }
        return s;`)

	order := g.Order()
	require.Len(t, order, len(g.Nodes))
	pos := map[NodeID]int{}
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range g.Edges {
		if !e.Back {
			assert.Less(t, pos[e.From], pos[e.To])
		}
	}
}

func TestNodeFacts(t *testing.T) {
	g := buildMethod(t, `
        for (int i = 0; i < a; i++) {
            a--;
        }`)

	loop := nodeByText(t, g, "for (int i = 0")
	facts := loop.Facts()
	require.Len(t, facts, 3, "init, condition and update")
	for _, f := range facts {
		assert.Equal(t, fragment.KindExpression, f.Kind())
	}
	body := nodeByText(t, g, "a--")
	assert.Equal(t, []*fragment.Fragment{body.Fragment}, body.Facts())
	assert.Nil(t, g.Nodes[EntryID].Facts())
}
