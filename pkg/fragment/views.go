package fragment

import (
	"github.com/l3aro/go-deodorant/pkg/facts"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

func (f *Fragment) MethodInvocations() []facts.MethodInvocation {
	return append([]facts.MethodInvocation(nil), f.methodInvocations...)
}

func (f *Fragment) SuperMethodInvocations() []facts.SuperMethodInvocation {
	return append([]facts.SuperMethodInvocation(nil), f.superMethodInvocations...)
}

func (f *Fragment) ConstructorInvocations() []facts.ConstructorInvocation {
	return append([]facts.ConstructorInvocation(nil), f.constructorInvocations...)
}

func (f *Fragment) FieldInstructions() []facts.FieldInstruction {
	return append([]facts.FieldInstruction(nil), f.fieldInstructions...)
}

func (f *Fragment) SuperFieldInstructions() []facts.SuperFieldInstruction {
	return append([]facts.SuperFieldInstruction(nil), f.superFieldInstructions...)
}

func (f *Fragment) LocalVariableDeclarations() []facts.LocalVariableDeclaration {
	return append([]facts.LocalVariableDeclaration(nil), f.localDeclarations...)
}

func (f *Fragment) LocalVariableInstructions() []facts.LocalVariableInstruction {
	return append([]facts.LocalVariableInstruction(nil), f.localInstructions...)
}

// Creations returns class instance and array creations in source order.
func (f *Fragment) Creations() []facts.CreationObject {
	return append([]facts.CreationObject(nil), f.creations...)
}

func (f *Fragment) ClassInstanceCreations() []facts.ClassInstanceCreation {
	var out []facts.ClassInstanceCreation
	for _, c := range f.creations {
		if cic, ok := c.(facts.ClassInstanceCreation); ok {
			out = append(out, cic)
		}
	}
	return out
}

func (f *Fragment) ArrayCreations() []facts.ArrayCreation {
	var out []facts.ArrayCreation
	for _, c := range f.creations {
		if ac, ok := c.(facts.ArrayCreation); ok {
			out = append(out, ac)
		}
	}
	return out
}

func (f *Fragment) Literals() []facts.Literal {
	return append([]facts.Literal(nil), f.literals...)
}

func (f *Fragment) AnonymousClassDeclarations() []facts.AnonymousClassDeclaration {
	return append([]facts.AnonymousClassDeclaration(nil), f.anonymousClasses...)
}

// ExceptionsInThrowStatements returns the operands of throw statements.
func (f *Fragment) ExceptionsInThrowStatements() []facts.ThrowExpression {
	return append([]facts.ThrowExpression(nil), f.thrown...)
}

func (f *Fragment) ContainsMethodInvocation(m facts.MethodInvocation) bool {
	return facts.Contains(f.methodInvocations, m)
}

func (f *Fragment) ContainsSuperMethodInvocation(m facts.SuperMethodInvocation) bool {
	return facts.Contains(f.superMethodInvocations, m)
}

func (f *Fragment) ContainsFieldInstruction(i facts.FieldInstruction) bool {
	return facts.Contains(f.fieldInstructions, i)
}

func (f *Fragment) ContainsLocalVariableDeclaration(d facts.LocalVariableDeclaration) bool {
	return facts.Contains(f.localDeclarations, d)
}

func pairs(m *multimap[variable.AbstractVariable, facts.MethodInvocation], distinct bool) []VariableInvocations {
	out := make([]VariableInvocations, 0, m.len())
	for _, k := range m.keys {
		methods := m.get(k)
		if distinct {
			methods = facts.Distinct(methods)
		}
		out = append(out, VariableInvocations{Variable: k, Methods: methods})
	}
	return out
}

func (f *Fragment) InvokedMethodsThroughFields() []VariableInvocations {
	return pairs(f.invokedThroughFields, true)
}

func (f *Fragment) NonDistinctInvokedMethodsThroughFields() []VariableInvocations {
	return pairs(f.invokedThroughFields, false)
}

func (f *Fragment) InvokedMethodsThroughParameters() []VariableInvocations {
	return pairs(f.invokedThroughParameters, true)
}

func (f *Fragment) NonDistinctInvokedMethodsThroughParameters() []VariableInvocations {
	return pairs(f.invokedThroughParameters, false)
}

func (f *Fragment) InvokedMethodsThroughLocalVariables() []VariableInvocations {
	return pairs(f.invokedThroughLocals, true)
}

func (f *Fragment) NonDistinctInvokedMethodsThroughLocalVariables() []VariableInvocations {
	return pairs(f.invokedThroughLocals, false)
}

// InvokedMethodsThrough returns the distinct calls made through v, whatever
// the role of its root.
func (f *Fragment) InvokedMethodsThrough(v variable.AbstractVariable) []facts.MethodInvocation {
	var all []facts.MethodInvocation
	all = append(all, f.invokedThroughFields.values[v]...)
	all = append(all, f.invokedThroughParameters.values[v]...)
	all = append(all, f.invokedThroughLocals.values[v]...)
	return facts.Distinct(all)
}

func (f *Fragment) InvokedMethodsThroughThisReference() []facts.MethodInvocation {
	return facts.Distinct(f.invokedThroughThis)
}

func (f *Fragment) NonDistinctInvokedMethodsThroughThisReference() []facts.MethodInvocation {
	return append([]facts.MethodInvocation(nil), f.invokedThroughThis...)
}

func (f *Fragment) InvokedStaticMethods() []facts.MethodInvocation {
	return facts.Distinct(f.invokedStatic)
}

func (f *Fragment) NonDistinctInvokedStaticMethods() []facts.MethodInvocation {
	return append([]facts.MethodInvocation(nil), f.invokedStatic...)
}

func (f *Fragment) DefinedFieldsThroughFields() []variable.AbstractVariable {
	return variable.Distinct(f.definedFieldsThroughFields)
}

func (f *Fragment) NonDistinctDefinedFieldsThroughFields() []variable.AbstractVariable {
	return append([]variable.AbstractVariable(nil), f.definedFieldsThroughFields...)
}

func (f *Fragment) UsedFieldsThroughFields() []variable.AbstractVariable {
	return variable.Distinct(f.usedFieldsThroughFields)
}

func (f *Fragment) NonDistinctUsedFieldsThroughFields() []variable.AbstractVariable {
	return append([]variable.AbstractVariable(nil), f.usedFieldsThroughFields...)
}

func (f *Fragment) DefinedFieldsThroughParameters() []variable.AbstractVariable {
	return variable.Distinct(f.definedFieldsThroughParameters)
}

func (f *Fragment) NonDistinctDefinedFieldsThroughParameters() []variable.AbstractVariable {
	return append([]variable.AbstractVariable(nil), f.definedFieldsThroughParameters...)
}

func (f *Fragment) UsedFieldsThroughParameters() []variable.AbstractVariable {
	return variable.Distinct(f.usedFieldsThroughParameters)
}

func (f *Fragment) NonDistinctUsedFieldsThroughParameters() []variable.AbstractVariable {
	return append([]variable.AbstractVariable(nil), f.usedFieldsThroughParameters...)
}

func (f *Fragment) DefinedFieldsThroughLocalVariables() []variable.AbstractVariable {
	return variable.Distinct(f.definedFieldsThroughLocals)
}

func (f *Fragment) NonDistinctDefinedFieldsThroughLocalVariables() []variable.AbstractVariable {
	return append([]variable.AbstractVariable(nil), f.definedFieldsThroughLocals...)
}

func (f *Fragment) UsedFieldsThroughLocalVariables() []variable.AbstractVariable {
	return variable.Distinct(f.usedFieldsThroughLocals)
}

func (f *Fragment) NonDistinctUsedFieldsThroughLocalVariables() []variable.AbstractVariable {
	return append([]variable.AbstractVariable(nil), f.usedFieldsThroughLocals...)
}

func (f *Fragment) DefinedFieldsThroughThisReference() []variable.Plain {
	return variable.Distinct(f.definedFieldsThroughThis)
}

func (f *Fragment) NonDistinctDefinedFieldsThroughThisReference() []variable.Plain {
	return append([]variable.Plain(nil), f.definedFieldsThroughThis...)
}

func (f *Fragment) UsedFieldsThroughThisReference() []variable.Plain {
	return variable.Distinct(f.usedFieldsThroughThis)
}

func (f *Fragment) NonDistinctUsedFieldsThroughThisReference() []variable.Plain {
	return append([]variable.Plain(nil), f.usedFieldsThroughThis...)
}

func (f *Fragment) DeclaredLocalVariables() []variable.Plain { return f.declaredLocals.Items() }
func (f *Fragment) DefinedLocalVariables() []variable.Plain  { return f.definedLocals.Items() }
func (f *Fragment) UsedLocalVariables() []variable.Plain     { return f.usedLocals.Items() }

// ParameterInvocations pairs a parameter with the calls it was passed to.
type ParameterInvocations[T any] struct {
	Parameter variable.Plain `json:"parameter"`
	Calls     []T            `json:"calls"`
}

func parameterPairs[T any](m *multimap[variable.Plain, T]) []ParameterInvocations[T] {
	out := make([]ParameterInvocations[T], 0, m.len())
	for _, k := range m.keys {
		out = append(out, ParameterInvocations[T]{Parameter: k, Calls: m.get(k)})
	}
	return out
}

func (f *Fragment) ParametersPassedAsArgumentsInMethodInvocations() []ParameterInvocations[facts.MethodInvocation] {
	return parameterPairs(f.paramsInMethodInvocations)
}

func (f *Fragment) ParametersPassedAsArgumentsInSuperMethodInvocations() []ParameterInvocations[facts.SuperMethodInvocation] {
	return parameterPairs(f.paramsInSuperMethodInvocations)
}

func (f *Fragment) ParametersPassedAsArgumentsInConstructorInvocations() []ParameterInvocations[facts.ConstructorInvocation] {
	return parameterPairs(f.paramsInConstructorInvocations)
}

// VariablesAssignedWithClassInstanceCreations returns, per variable, the
// creations assigned to it.
func (f *Fragment) VariablesAssignedWithClassInstanceCreations() []ParameterInvocations[facts.ClassInstanceCreation] {
	return parameterPairs(f.assignedWithCreations)
}

// DefinedVariables is every variable this fragment writes: declared and
// defined locals plus field writes of all kinds.
func (f *Fragment) DefinedVariables() []variable.AbstractVariable {
	s := variable.NewSet[variable.AbstractVariable]()
	for _, v := range f.declaredLocals.Items() {
		s.Add(v)
	}
	for _, v := range f.definedLocals.Items() {
		s.Add(v)
	}
	for _, v := range f.definedFieldsThroughThis {
		s.Add(v)
	}
	s.AddAll(f.definedFieldsThroughFields...)
	s.AddAll(f.definedFieldsThroughParameters...)
	s.AddAll(f.definedFieldsThroughLocals...)
	return s.Items()
}

// UsedVariables is every variable this fragment reads.
func (f *Fragment) UsedVariables() []variable.AbstractVariable {
	s := variable.NewSet[variable.AbstractVariable]()
	for _, v := range f.usedLocals.Items() {
		s.Add(v)
	}
	for _, v := range f.usedFieldsThroughThis {
		s.Add(v)
	}
	s.AddAll(f.usedFieldsThroughFields...)
	s.AddAll(f.usedFieldsThroughParameters...)
	s.AddAll(f.usedFieldsThroughLocals...)
	return s.Items()
}
