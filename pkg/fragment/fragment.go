// Package fragment builds the method fragment tree: one node per lexical
// statement or header expression, each owning the facts found directly in
// it. Every fact is also rolled up into all ancestors, so the root holds the
// method-level union.
package fragment

import (
	"github.com/l3aro/go-deodorant/pkg/facts"
	"github.com/l3aro/go-deodorant/pkg/syntax"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

// Kind distinguishes fragment tree nodes.
type Kind string

const (
	KindMethod     Kind = "method"     // root
	KindComposite  Kind = "composite"  // statement owning nested statements
	KindStatement  Kind = "statement"  // leaf statement
	KindExpression Kind = "expression" // header expression of a composite
)

// StatementType is the Java statement a fragment stands for.
type StatementType string

const (
	StatementBlock        StatementType = "block"
	StatementIf           StatementType = "if"
	StatementFor          StatementType = "for"
	StatementEnhancedFor  StatementType = "enhanced_for"
	StatementWhile        StatementType = "while"
	StatementDo           StatementType = "do"
	StatementSwitch       StatementType = "switch"
	StatementCase         StatementType = "case"
	StatementTry          StatementType = "try"
	StatementCatch        StatementType = "catch"
	StatementFinally      StatementType = "finally"
	StatementSynchronized StatementType = "synchronized"
	StatementLabeled      StatementType = "labeled"
	StatementReturn       StatementType = "return"
	StatementThrow        StatementType = "throw"
	StatementBreak        StatementType = "break"
	StatementContinue     StatementType = "continue"
	StatementExpression   StatementType = "expression"
	StatementDeclaration  StatementType = "declaration"
	StatementYield        StatementType = "yield"
	StatementAssert       StatementType = "assert"
	StatementConstructor  StatementType = "constructor_call"
	StatementEmpty        StatementType = "empty"
	StatementLocalClass   StatementType = "local_class"
)

// Role is the position of a header expression inside its composite.
type Role string

const (
	RoleCondition Role = "condition"
	RoleInit      Role = "init"
	RoleUpdate    Role = "update"
	RoleValue     Role = "value"     // enhanced-for iterable
	RoleSelector  Role = "selector"  // switch
	RoleLock      Role = "lock"      // synchronized
	RoleResource  Role = "resource"  // try-with-resources
	RoleParameter Role = "parameter" // catch
)

// VariableInvocations pairs a receiver variable with the calls made through it.
type VariableInvocations struct {
	Variable variable.AbstractVariable `json:"variable"`
	Methods  []facts.MethodInvocation  `json:"methods"`
}

// Fragment is one node of the fragment tree. It is immutable once Build
// returns.
type Fragment struct {
	kind      Kind
	statement StatementType
	key       syntax.Key
	label     string
	role      Role

	parent   *Fragment // roll-up only
	children []*Fragment

	methodInvocations      []facts.MethodInvocation
	superMethodInvocations []facts.SuperMethodInvocation
	constructorInvocations []facts.ConstructorInvocation
	fieldInstructions      []facts.FieldInstruction
	superFieldInstructions []facts.SuperFieldInstruction
	localDeclarations      []facts.LocalVariableDeclaration
	localInstructions      []facts.LocalVariableInstruction
	creations              []facts.CreationObject
	literals               []facts.Literal
	anonymousClasses       []facts.AnonymousClassDeclaration
	thrown                 []facts.ThrowExpression

	invokedThroughFields     *multimap[variable.AbstractVariable, facts.MethodInvocation]
	invokedThroughParameters *multimap[variable.AbstractVariable, facts.MethodInvocation]
	invokedThroughLocals     *multimap[variable.AbstractVariable, facts.MethodInvocation]
	invokedThroughThis       []facts.MethodInvocation
	invokedStatic            []facts.MethodInvocation

	definedFieldsThroughFields     []variable.AbstractVariable
	usedFieldsThroughFields        []variable.AbstractVariable
	definedFieldsThroughParameters []variable.AbstractVariable
	usedFieldsThroughParameters    []variable.AbstractVariable
	definedFieldsThroughLocals     []variable.AbstractVariable
	usedFieldsThroughLocals        []variable.AbstractVariable
	definedFieldsThroughThis       []variable.Plain
	usedFieldsThroughThis          []variable.Plain

	declaredLocals *variable.Set[variable.Plain]
	definedLocals  *variable.Set[variable.Plain]
	usedLocals     *variable.Set[variable.Plain]

	paramsInMethodInvocations      *multimap[variable.Plain, facts.MethodInvocation]
	paramsInSuperMethodInvocations *multimap[variable.Plain, facts.SuperMethodInvocation]
	paramsInConstructorInvocations *multimap[variable.Plain, facts.ConstructorInvocation]
	assignedWithCreations          *multimap[variable.Plain, facts.ClassInstanceCreation]
}

func newFragment(kind Kind, statement StatementType, key syntax.Key, parent *Fragment) *Fragment {
	f := &Fragment{
		kind:                           kind,
		statement:                      statement,
		key:                            key,
		parent:                         parent,
		invokedThroughFields:           newMultimap[variable.AbstractVariable, facts.MethodInvocation](),
		invokedThroughParameters:       newMultimap[variable.AbstractVariable, facts.MethodInvocation](),
		invokedThroughLocals:           newMultimap[variable.AbstractVariable, facts.MethodInvocation](),
		declaredLocals:                 variable.NewSet[variable.Plain](),
		definedLocals:                  variable.NewSet[variable.Plain](),
		usedLocals:                     variable.NewSet[variable.Plain](),
		paramsInMethodInvocations:      newMultimap[variable.Plain, facts.MethodInvocation](),
		paramsInSuperMethodInvocations: newMultimap[variable.Plain, facts.SuperMethodInvocation](),
		paramsInConstructorInvocations: newMultimap[variable.Plain, facts.ConstructorInvocation](),
		assignedWithCreations:          newMultimap[variable.Plain, facts.ClassInstanceCreation](),
	}
	if parent != nil {
		parent.children = append(parent.children, f)
	}
	return f
}

// rollUp applies add to f and every ancestor.
func (f *Fragment) rollUp(add func(*Fragment)) {
	for cur := f; cur != nil; cur = cur.parent {
		add(cur)
	}
}

// Kind returns the fragment kind.
func (f *Fragment) Kind() Kind { return f.kind }

// Statement returns the statement type; empty for the method root.
func (f *Fragment) Statement() StatementType { return f.statement }

// Key locates the syntax the fragment was built from.
func (f *Fragment) Key() syntax.Key { return f.key }

// Label is the label of a labeled statement or of a break/continue target.
func (f *Fragment) Label() string { return f.label }

// Role is the header position of an expression fragment.
func (f *Fragment) Role() Role { return f.role }

// Parent returns the enclosing fragment, nil for the root.
func (f *Fragment) Parent() *Fragment { return f.parent }

// Children returns the nested fragments in source order.
func (f *Fragment) Children() []*Fragment { return append([]*Fragment(nil), f.children...) }

// Statements returns the nested statement fragments, skipping header
// expressions.
func (f *Fragment) Statements() []*Fragment {
	var out []*Fragment
	for _, c := range f.children {
		if c.kind != KindExpression {
			out = append(out, c)
		}
	}
	return out
}

// Expressions returns the header expression fragments of a composite.
func (f *Fragment) Expressions() []*Fragment {
	var out []*Fragment
	for _, c := range f.children {
		if c.kind == KindExpression {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits f and its descendants depth first, in source order.
func (f *Fragment) Walk(visit func(*Fragment)) {
	visit(f)
	for _, c := range f.children {
		c.Walk(visit)
	}
}

// Root returns the method fragment at the top of the tree.
func (f *Fragment) Root() *Fragment {
	cur := f
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (f *Fragment) addMethodInvocation(m facts.MethodInvocation) {
	f.rollUp(func(c *Fragment) { c.methodInvocations = append(c.methodInvocations, m) })
}

func (f *Fragment) addSuperMethodInvocation(m facts.SuperMethodInvocation) {
	f.rollUp(func(c *Fragment) { c.superMethodInvocations = append(c.superMethodInvocations, m) })
}

func (f *Fragment) addConstructorInvocation(m facts.ConstructorInvocation) {
	f.rollUp(func(c *Fragment) { c.constructorInvocations = append(c.constructorInvocations, m) })
}

func (f *Fragment) addFieldInstruction(i facts.FieldInstruction) {
	f.rollUp(func(c *Fragment) { c.fieldInstructions = append(c.fieldInstructions, i) })
}

func (f *Fragment) addSuperFieldInstruction(i facts.SuperFieldInstruction) {
	f.rollUp(func(c *Fragment) { c.superFieldInstructions = append(c.superFieldInstructions, i) })
}

func (f *Fragment) addLocalDeclaration(d facts.LocalVariableDeclaration) {
	f.rollUp(func(c *Fragment) { c.localDeclarations = append(c.localDeclarations, d) })
}

func (f *Fragment) addLocalInstruction(i facts.LocalVariableInstruction) {
	f.rollUp(func(c *Fragment) { c.localInstructions = append(c.localInstructions, i) })
}

func (f *Fragment) addCreation(o facts.CreationObject) {
	f.rollUp(func(c *Fragment) { c.creations = append(c.creations, o) })
}

func (f *Fragment) addLiteral(l facts.Literal) {
	f.rollUp(func(c *Fragment) { c.literals = append(c.literals, l) })
}

func (f *Fragment) addAnonymousClass(a facts.AnonymousClassDeclaration) {
	f.rollUp(func(c *Fragment) { c.anonymousClasses = append(c.anonymousClasses, a) })
}

func (f *Fragment) addThrown(t facts.ThrowExpression) {
	f.rollUp(func(c *Fragment) { c.thrown = append(c.thrown, t) })
}

func (f *Fragment) addDeclaredLocal(v variable.Plain) {
	f.rollUp(func(c *Fragment) { c.declaredLocals.Add(v) })
}

func (f *Fragment) addDefinedLocal(v variable.Plain) {
	f.rollUp(func(c *Fragment) { c.definedLocals.Add(v) })
}

func (f *Fragment) addUsedLocal(v variable.Plain) {
	f.rollUp(func(c *Fragment) { c.usedLocals.Add(v) })
}

// addInvokedThrough routes a call by the role of its receiver's root.
func (f *Fragment) addInvokedThrough(invoker variable.AbstractVariable, m facts.MethodInvocation) {
	initial := invoker.InitialVariable()
	f.rollUp(func(c *Fragment) {
		switch {
		case initial.IsField():
			c.invokedThroughFields.add(invoker, m)
		case initial.IsParameter():
			c.invokedThroughParameters.add(invoker, m)
		default:
			c.invokedThroughLocals.add(invoker, m)
		}
	})
}

func (f *Fragment) addInvokedThroughThis(m facts.MethodInvocation) {
	f.rollUp(func(c *Fragment) { c.invokedThroughThis = append(c.invokedThroughThis, m) })
}

func (f *Fragment) addInvokedStatic(m facts.MethodInvocation) {
	f.rollUp(func(c *Fragment) { c.invokedStatic = append(c.invokedStatic, m) })
}

// handleDefinedField files a field write. Plain fields are accessed through
// this; paths are filed by the role of their root.
func (f *Fragment) handleDefinedField(v variable.AbstractVariable) {
	f.rollUp(func(c *Fragment) {
		if p, ok := v.(variable.Plain); ok {
			c.definedFieldsThroughThis = append(c.definedFieldsThroughThis, p)
			return
		}
		initial := v.InitialVariable()
		switch {
		case initial.IsField():
			c.definedFieldsThroughFields = append(c.definedFieldsThroughFields, v)
		case initial.IsParameter():
			c.definedFieldsThroughParameters = append(c.definedFieldsThroughParameters, v)
		default:
			c.definedFieldsThroughLocals = append(c.definedFieldsThroughLocals, v)
		}
	})
}

func (f *Fragment) handleUsedField(v variable.AbstractVariable) {
	f.rollUp(func(c *Fragment) {
		if p, ok := v.(variable.Plain); ok {
			c.usedFieldsThroughThis = append(c.usedFieldsThroughThis, p)
			return
		}
		initial := v.InitialVariable()
		switch {
		case initial.IsField():
			c.usedFieldsThroughFields = append(c.usedFieldsThroughFields, v)
		case initial.IsParameter():
			c.usedFieldsThroughParameters = append(c.usedFieldsThroughParameters, v)
		default:
			c.usedFieldsThroughLocals = append(c.usedFieldsThroughLocals, v)
		}
	})
}

func (f *Fragment) addParameterInMethodInvocation(p variable.Plain, m facts.MethodInvocation) {
	f.rollUp(func(c *Fragment) {
		if !facts.Contains(c.paramsInMethodInvocations.values[p], m) {
			c.paramsInMethodInvocations.add(p, m)
		}
	})
}

func (f *Fragment) addParameterInSuperMethodInvocation(p variable.Plain, m facts.SuperMethodInvocation) {
	f.rollUp(func(c *Fragment) {
		if !facts.Contains(c.paramsInSuperMethodInvocations.values[p], m) {
			c.paramsInSuperMethodInvocations.add(p, m)
		}
	})
}

func (f *Fragment) addParameterInConstructorInvocation(p variable.Plain, m facts.ConstructorInvocation) {
	f.rollUp(func(c *Fragment) {
		if !facts.Contains(c.paramsInConstructorInvocations.values[p], m) {
			c.paramsInConstructorInvocations.add(p, m)
		}
	})
}

func (f *Fragment) addAssignedWithCreation(p variable.Plain, creation facts.ClassInstanceCreation) {
	f.rollUp(func(c *Fragment) {
		if !facts.Contains(c.assignedWithCreations.values[p], creation) {
			c.assignedWithCreations.add(p, creation)
		}
	})
}
