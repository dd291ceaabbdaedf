package cfg

import (
	"fmt"
	"strings"

	"github.com/l3aro/go-deodorant/pkg/fragment"
	"github.com/l3aro/go-deodorant/pkg/syntax"
)

// pending is an edge whose target is the next node to be created.
type pending struct {
	from NodeID
	typ  EdgeType
}

type jumpKind int

const (
	jumpLoop jumpKind = iota
	jumpSwitch
	jumpLabel
)

// jumpScope collects the break and continue statements aimed at one
// enclosing statement.
type jumpScope struct {
	kind      jumpKind
	label     string
	breaks    []pending
	continues []pending
}

type javaCFGBuilder struct {
	text   func(syntax.Key) string
	cfg    *CFG
	scopes []*jumpScope
	exits  []pending
	label  string // label waiting for the next loop or switch
}

// Build constructs the CFG of a method from its fragment tree. src is used
// to render node text; it may be nil.
func Build(method string, root *fragment.Fragment, src *syntax.Source) (*CFG, error) {
	if root == nil || root.Kind() != fragment.KindMethod {
		return nil, fmt.Errorf("building cfg for %s: not a method fragment", method)
	}

	b := &javaCFGBuilder{cfg: &CFG{Method: method}}
	b.text = func(k syntax.Key) string {
		if src == nil {
			return ""
		}
		n, ok := src.Locate(k)
		if !ok {
			return ""
		}
		return firstLine(src.Text(n))
	}

	entry := b.newNode(NodeTypeEntry, root)
	entry.Text = "entry"

	out := b.sequence(root.Statements(), []pending{{from: entry.ID, typ: EdgeTypeUnconditional}})

	exit := b.newNode(NodeTypeExit, nil)
	exit.Text = "exit"
	exit.Line = root.Key().Line
	b.cfg.Exit = exit.ID
	b.connect(append(out, b.exits...), exit.ID)

	b.cfg.index()
	b.cfg.Blocks = b.cfg.basicBlocks()
	b.cfg.CyclomaticComplexity = b.cfg.complexity()
	return b.cfg, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func (b *javaCFGBuilder) newNode(t NodeType, f *fragment.Fragment) *Node {
	n := &Node{ID: NodeID(len(b.cfg.Nodes)), Type: t, Fragment: f}
	if f != nil && f.Kind() != fragment.KindMethod {
		n.Statement = f.Statement()
		n.Key = f.Key()
		n.Line = f.Key().Line
		n.Text = b.text(f.Key())
	}
	b.cfg.Nodes = append(b.cfg.Nodes, n)
	return n
}

func (b *javaCFGBuilder) addEdge(from, to NodeID, t EdgeType, back bool) {
	b.cfg.Edges = append(b.cfg.Edges, Edge{From: from, To: to, Type: t, Back: back})
}

func (b *javaCFGBuilder) connect(preds []pending, to NodeID) {
	for _, p := range preds {
		b.addEdge(p.from, to, p.typ, false)
	}
}

// connectBack closes a loop. Conditional types are kept so the branch that
// loops is still visible.
func (b *javaCFGBuilder) connectBack(preds []pending, header NodeID) {
	for _, p := range preds {
		t := p.typ
		if t == EdgeTypeUnconditional {
			t = EdgeTypeBackEdge
		}
		b.addEdge(p.from, header, t, true)
	}
}

func (b *javaCFGBuilder) sequence(stmts []*fragment.Fragment, preds []pending) []pending {
	for _, s := range stmts {
		preds = b.statement(s, preds)
	}
	return preds
}

func (b *javaCFGBuilder) push(kind jumpKind) *jumpScope {
	s := &jumpScope{kind: kind, label: b.label}
	b.label = ""
	b.scopes = append(b.scopes, s)
	return s
}

func (b *javaCFGBuilder) pop() {
	b.scopes = b.scopes[:len(b.scopes)-1]
}

// target finds the scope a break or continue refers to.
func (b *javaCFGBuilder) target(label string, isContinue bool) *jumpScope {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		s := b.scopes[i]
		if label != "" {
			if s.label == label {
				return s
			}
			continue
		}
		if s.kind == jumpLoop || (!isContinue && s.kind == jumpSwitch) {
			return s
		}
	}
	return nil
}

func (b *javaCFGBuilder) recordLoop(header NodeID, first NodeID) {
	l := &Loop{Header: header}
	for id := first; id < NodeID(len(b.cfg.Nodes)); id++ {
		l.Nodes.Insert(int(id))
	}
	l.Nodes.Insert(int(header))
	b.cfg.loops = append(b.cfg.loops, l)
}

func (b *javaCFGBuilder) statement(f *fragment.Fragment, preds []pending) []pending {
	stmts := f.Statements()

	switch f.Statement() {
	case fragment.StatementBlock, fragment.StatementFinally:
		return b.sequence(stmts, preds)

	case fragment.StatementLabeled:
		if len(stmts) == 0 {
			return preds
		}
		switch stmts[0].Statement() {
		case fragment.StatementFor, fragment.StatementEnhancedFor, fragment.StatementWhile,
			fragment.StatementDo, fragment.StatementSwitch:
			b.label = f.Label()
			return b.statement(stmts[0], preds)
		}
		b.label = f.Label()
		scope := b.push(jumpLabel)
		out := b.statement(stmts[0], preds)
		b.pop()
		return append(out, scope.breaks...)

	case fragment.StatementIf:
		n := b.newNode(NodeTypeBranch, f)
		b.connect(preds, n.ID)
		if len(stmts) == 0 {
			return []pending{{n.ID, EdgeTypeTrue}, {n.ID, EdgeTypeFalse}}
		}
		out := b.statement(stmts[0], []pending{{n.ID, EdgeTypeTrue}})
		if len(stmts) > 1 {
			return append(out, b.statement(stmts[1], []pending{{n.ID, EdgeTypeFalse}})...)
		}
		return append(out, pending{n.ID, EdgeTypeFalse})

	case fragment.StatementFor, fragment.StatementEnhancedFor, fragment.StatementWhile:
		n := b.newNode(NodeTypeLoop, f)
		b.connect(preds, n.ID)
		scope := b.push(jumpLoop)
		out := b.sequence(stmts, []pending{{n.ID, EdgeTypeTrue}})
		b.pop()
		b.connectBack(out, n.ID)
		b.connectBack(scope.continues, n.ID)
		b.recordLoop(n.ID, n.ID)
		return append([]pending{{n.ID, EdgeTypeFalse}}, scope.breaks...)

	case fragment.StatementDo:
		first := NodeID(len(b.cfg.Nodes))
		scope := b.push(jumpLoop)
		out := b.sequence(stmts, preds)
		b.pop()
		n := b.newNode(NodeTypeLoop, f)
		b.connect(out, n.ID)
		b.connect(scope.continues, n.ID)
		if first < n.ID {
			b.addEdge(n.ID, first, EdgeTypeTrue, true)
		}
		b.recordLoop(n.ID, first)
		return append([]pending{{n.ID, EdgeTypeFalse}}, scope.breaks...)

	case fragment.StatementSwitch:
		n := b.newNode(NodeTypeBranch, f)
		b.connect(preds, n.ID)
		scope := b.push(jumpSwitch)
		var fall []pending
		hasDefault := false
		for _, c := range stmts {
			if c.Statement() != fragment.StatementCase {
				fall = b.statement(c, fall)
				continue
			}
			cn := b.newNode(NodeTypeCase, c)
			b.addEdge(n.ID, cn.ID, EdgeTypeCase, false)
			b.connect(fall, cn.ID)
			fall = []pending{{cn.ID, EdgeTypeUnconditional}}
			if strings.HasPrefix(cn.Text, "default") {
				hasDefault = true
			}
		}
		b.pop()
		out := append(fall, scope.breaks...)
		if !hasDefault {
			out = append(out, pending{n.ID, EdgeTypeFalse})
		}
		return out

	case fragment.StatementTry:
		n := b.newNode(NodeTypeBranch, f)
		b.connect(preds, n.ID)
		var out []pending
		var fin *fragment.Fragment
		for _, c := range stmts {
			switch c.Statement() {
			case fragment.StatementCatch:
				cn := b.newNode(NodeTypeBranch, c)
				b.addEdge(n.ID, cn.ID, EdgeTypeException, false)
				out = append(out, b.sequence(c.Statements(), []pending{{cn.ID, EdgeTypeUnconditional}})...)
			case fragment.StatementFinally:
				fin = c
			default:
				out = append(out, b.statement(c, []pending{{n.ID, EdgeTypeUnconditional}})...)
			}
		}
		if fin != nil {
			return b.statement(fin, out)
		}
		return out

	case fragment.StatementSynchronized:
		n := b.newNode(NodeTypeStatement, f)
		b.connect(preds, n.ID)
		return b.sequence(stmts, []pending{{n.ID, EdgeTypeUnconditional}})

	case fragment.StatementReturn, fragment.StatementThrow:
		n := b.newNode(NodeTypeReturn, f)
		b.connect(preds, n.ID)
		b.exits = append(b.exits, pending{n.ID, EdgeTypeUnconditional})
		return nil

	case fragment.StatementBreak, fragment.StatementContinue:
		n := b.newNode(NodeTypeJump, f)
		b.connect(preds, n.ID)
		isContinue := f.Statement() == fragment.StatementContinue
		scope := b.target(f.Label(), isContinue)
		switch {
		case scope == nil:
			return []pending{{n.ID, EdgeTypeUnconditional}}
		case isContinue:
			scope.continues = append(scope.continues, pending{n.ID, EdgeTypeContinue})
		default:
			scope.breaks = append(scope.breaks, pending{n.ID, EdgeTypeBreak})
		}
		return nil
	}

	n := b.newNode(NodeTypeStatement, f)
	b.connect(preds, n.ID)
	return []pending{{n.ID, EdgeTypeUnconditional}}
}
