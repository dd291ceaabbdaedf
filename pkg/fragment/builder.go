package fragment

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-deodorant/pkg/diag"
	"github.com/l3aro/go-deodorant/pkg/resolve"
	"github.com/l3aro/go-deodorant/pkg/syntax"
)

var (
	// ErrTooManyStatements is returned when a body exceeds Options.MaxStatements.
	ErrTooManyStatements = errors.New("statement limit exceeded")
	// ErrSyntax is returned when the body contains syntax errors. The tree
	// is still built from the parts that parsed.
	ErrSyntax = errors.New("syntax error in method body")
)

// Options bounds fragment construction.
type Options struct {
	MaxStatements int // 0 means unlimited
}

type builder struct {
	ctx      context.Context
	resolver resolve.Resolver
	reporter *diag.Reporter
	src      *syntax.Source
	opts     Options

	statements   int
	syntaxErrors int
	err          error
}

// Build walks the body of the resolver's method top-down and returns the
// fragment tree. The context is checked between statements; on
// cancellation the partial tree is returned with the context error.
func Build(ctx context.Context, r resolve.Resolver, reporter *diag.Reporter, opts Options) (*Fragment, error) {
	method := r.Method()
	src := r.Source()
	node, ok := src.Locate(method.Key)
	if !ok {
		return nil, fmt.Errorf("method %s not found in %s", method.ID(), src.Path)
	}

	root := newFragment(KindMethod, "", method.Key, nil)
	body := node.ChildByFieldName("body")
	if body == nil {
		return root, nil
	}

	b := &builder{ctx: ctx, resolver: r, reporter: reporter, src: src, opts: opts}
	b.statementList(body, root)

	if b.err != nil {
		return root, b.err
	}
	if b.syntaxErrors > 0 {
		return root, fmt.Errorf("%w: %d error nodes", ErrSyntax, b.syntaxErrors)
	}
	return root, nil
}

func (b *builder) statementList(block *sitter.Node, parent *Fragment) {
	for _, stmt := range syntax.NamedChildren(block) {
		if !b.statement(stmt, parent) {
			return
		}
	}
}

// statement adds stmt under parent. It returns false once the walk must stop.
func (b *builder) statement(stmt *sitter.Node, parent *Fragment) bool {
	if b.err != nil {
		return false
	}
	if err := b.ctx.Err(); err != nil {
		b.err = err
		return false
	}
	b.statements++
	if b.opts.MaxStatements > 0 && b.statements > b.opts.MaxStatements {
		b.err = fmt.Errorf("%w: more than %d statements", ErrTooManyStatements, b.opts.MaxStatements)
		return false
	}

	switch stmt.Type() {
	case "ERROR":
		b.syntaxErrors++
		return true
	case "block":
		f := b.composite(StatementBlock, stmt, parent)
		b.statementList(stmt, f)
	case "if_statement":
		f := b.composite(StatementIf, stmt, parent)
		b.expression(f, RoleCondition, stmt.ChildByFieldName("condition"))
		b.statement(stmt.ChildByFieldName("consequence"), f)
		if alt := stmt.ChildByFieldName("alternative"); alt != nil {
			b.statement(alt, f)
		}
	case "while_statement":
		f := b.composite(StatementWhile, stmt, parent)
		b.expression(f, RoleCondition, stmt.ChildByFieldName("condition"))
		b.statement(stmt.ChildByFieldName("body"), f)
	case "do_statement":
		f := b.composite(StatementDo, stmt, parent)
		b.statement(stmt.ChildByFieldName("body"), f)
		b.expression(f, RoleCondition, stmt.ChildByFieldName("condition"))
	case "for_statement":
		f := b.composite(StatementFor, stmt, parent)
		parts := ForParts(stmt)
		for _, init := range parts.Init {
			b.expression(f, RoleInit, init)
		}
		if parts.Condition != nil {
			b.expression(f, RoleCondition, parts.Condition)
		}
		for _, update := range parts.Update {
			b.expression(f, RoleUpdate, update)
		}
		b.statement(parts.Body, f)
	case "enhanced_for_statement":
		f := b.composite(StatementEnhancedFor, stmt, parent)
		header := b.expression(f, RoleValue, stmt.ChildByFieldName("value"))
		newProcessor(header, b.resolver, b.reporter).declareLocal(stmt.ChildByFieldName("name"), stmt)
		b.statement(stmt.ChildByFieldName("body"), f)
	case "switch_expression", "switch_statement":
		f := b.composite(StatementSwitch, stmt, parent)
		b.expression(f, RoleSelector, stmt.ChildByFieldName("condition"))
		b.switchBlock(stmt.ChildByFieldName("body"), f)
	case "try_statement", "try_with_resources_statement":
		f := b.composite(StatementTry, stmt, parent)
		if specs := stmt.ChildByFieldName("resources"); specs != nil {
			for _, res := range syntax.ChildrenOfType(specs, "resource") {
				b.expression(f, RoleResource, res)
			}
		}
		b.statement(stmt.ChildByFieldName("body"), f)
		for _, clause := range syntax.NamedChildren(stmt) {
			switch clause.Type() {
			case "catch_clause":
				c := b.composite(StatementCatch, clause, f)
				b.expression(c, RoleParameter, syntax.FindChildByType(clause, "catch_formal_parameter"))
				b.statementList(clause.ChildByFieldName("body"), c)
			case "finally_clause":
				fin := b.composite(StatementFinally, clause, f)
				b.statementList(syntax.FindChildByType(clause, "block"), fin)
			}
		}
	case "synchronized_statement":
		f := b.composite(StatementSynchronized, stmt, parent)
		b.expression(f, RoleLock, syntax.FindChildByType(stmt, "parenthesized_expression"))
		b.statement(stmt.ChildByFieldName("body"), f)
	case "labeled_statement":
		f := b.composite(StatementLabeled, stmt, parent)
		children := syntax.NamedChildren(stmt)
		if len(children) > 0 {
			f.label = b.src.Text(children[0])
		}
		if len(children) > 1 {
			b.statement(children[len(children)-1], f)
		}
	case "local_variable_declaration":
		b.leaf(StatementDeclaration, stmt, parent)
	case "expression_statement":
		b.leaf(StatementExpression, stmt, parent)
	case "explicit_constructor_invocation":
		b.leaf(StatementConstructor, stmt, parent)
	case "return_statement":
		b.leaf(StatementReturn, stmt, parent)
	case "yield_statement":
		b.leaf(StatementYield, stmt, parent)
	case "assert_statement":
		b.leaf(StatementAssert, stmt, parent)
	case "throw_statement":
		f := b.leaf(StatementThrow, stmt, parent)
		newProcessor(f, b.resolver, b.reporter).processThrowStatement(stmt)
	case "break_statement", "continue_statement":
		t := StatementBreak
		if stmt.Type() == "continue_statement" {
			t = StatementContinue
		}
		f := newFragment(KindStatement, t, b.src.Key(stmt), parent)
		if label := syntax.FindChildByType(stmt, "identifier"); label != nil {
			f.label = b.src.Text(label)
		}
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		newFragment(KindStatement, StatementLocalClass, b.src.Key(stmt), parent)
	default:
		if stmt.HasError() {
			b.syntaxErrors++
		}
		b.leaf(StatementExpression, stmt, parent)
	}
	return b.err == nil
}

func (b *builder) composite(t StatementType, node *sitter.Node, parent *Fragment) *Fragment {
	return newFragment(KindComposite, t, b.src.Key(node), parent)
}

func (b *builder) leaf(t StatementType, node *sitter.Node, parent *Fragment) *Fragment {
	if node.HasError() {
		b.syntaxErrors++
	}
	f := newFragment(KindStatement, t, b.src.Key(node), parent)
	newProcessor(f, b.resolver, b.reporter).process([]*sitter.Node{node})
	return f
}

func (b *builder) expression(parent *Fragment, role Role, node *sitter.Node) *Fragment {
	f := newFragment(KindExpression, "", b.src.Key(node), parent)
	f.role = role
	if node != nil {
		if node.HasError() {
			b.syntaxErrors++
		}
		newProcessor(f, b.resolver, b.reporter).process([]*sitter.Node{node})
	}
	return f
}

// switchBlock adds case labels and the statements of each group.
func (b *builder) switchBlock(block *sitter.Node, parent *Fragment) {
	for _, group := range syntax.NamedChildren(block) {
		switch group.Type() {
		case "switch_block_statement_group", "switch_rule":
			for _, child := range syntax.NamedChildren(group) {
				if child.Type() == "switch_label" {
					b.leaf(StatementCase, child, parent)
					continue
				}
				if !b.statement(child, parent) {
					return
				}
			}
		}
	}
}

// ForLoop is a for statement split into its parts.
type ForLoop struct {
	Init      []*sitter.Node
	Condition *sitter.Node
	Update    []*sitter.Node
	Body      *sitter.Node
}

// ForParts splits a for_statement by the position of its separators. The
// grammar allows several init and update expressions under one field name.
func ForParts(node *sitter.Node) ForLoop {
	var loop ForLoop
	phase := 0 // 0 init, 1 condition, 2 update, 3 body
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || syntax.IsComment(child) {
			continue
		}
		switch child.Type() {
		case "for", "(", ",":
			continue
		case ";":
			phase++
			continue
		case ")":
			phase = 3
			continue
		}
		if !child.IsNamed() {
			continue
		}
		switch phase {
		case 0:
			loop.Init = append(loop.Init, child)
			if child.Type() == "local_variable_declaration" {
				phase = 1 // the declaration owns its ';'
			}
		case 1:
			loop.Condition = child
		case 2:
			loop.Update = append(loop.Update, child)
		case 3:
			loop.Body = child
		}
	}
	return loop
}
