package analysis

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-deodorant/pkg/cfg"
	"github.com/l3aro/go-deodorant/pkg/diag"
	"github.com/l3aro/go-deodorant/pkg/fragment"
	"github.com/l3aro/go-deodorant/pkg/pdg"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

// Output formats understood by Encode.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// NodeSummary is the exported view of a PDG node.
type NodeSummary struct {
	ID       cfg.NodeID   `json:"id" msgpack:"id"`
	Type     cfg.NodeType `json:"type" msgpack:"type"`
	Line     int          `json:"line" msgpack:"line"`
	Text     string       `json:"text" msgpack:"text"`
	State    string       `json:"state" msgpack:"state"`
	Parent   *cfg.NodeID  `json:"control_parent,omitempty" msgpack:"control_parent,omitempty"`
	Declared []string     `json:"declared,omitempty" msgpack:"declared,omitempty"`
	Defined  []string     `json:"defined,omitempty" msgpack:"defined,omitempty"`
	Used     []string     `json:"used,omitempty" msgpack:"used,omitempty"`
	Thrown   []string     `json:"thrown,omitempty" msgpack:"thrown,omitempty"`
}

// FactSummary lists the facts rolled up to the method fragment.
type FactSummary struct {
	MethodInvocations      []string `json:"method_invocations,omitempty" msgpack:"method_invocations,omitempty"`
	SuperMethodInvocations []string `json:"super_method_invocations,omitempty" msgpack:"super_method_invocations,omitempty"`
	ConstructorInvocations []string `json:"constructor_invocations,omitempty" msgpack:"constructor_invocations,omitempty"`
	Fields                 []string `json:"fields,omitempty" msgpack:"fields,omitempty"`
	LocalDeclarations      []string `json:"local_declarations,omitempty" msgpack:"local_declarations,omitempty"`
	Creations              []string `json:"creations,omitempty" msgpack:"creations,omitempty"`
	AnonymousClasses       []string `json:"anonymous_classes,omitempty" msgpack:"anonymous_classes,omitempty"`
	Thrown                 []string `json:"thrown,omitempty" msgpack:"thrown,omitempty"`
	Literals               int      `json:"literals" msgpack:"literals"`
	Defined                []string `json:"defined,omitempty" msgpack:"defined,omitempty"`
	Used                   []string `json:"used,omitempty" msgpack:"used,omitempty"`
}

// Summary is the serialisable form of a Result.
type Summary struct {
	Method      string            `json:"method" msgpack:"method"`
	Incomplete  bool              `json:"incomplete,omitempty" msgpack:"incomplete,omitempty"`
	Reason      string            `json:"reason,omitempty" msgpack:"reason,omitempty"`
	Complexity  int               `json:"cyclomatic_complexity" msgpack:"cyclomatic_complexity"`
	Facts       FactSummary       `json:"facts" msgpack:"facts"`
	Nodes       []NodeSummary     `json:"nodes" msgpack:"nodes"`
	Edges       []*pdg.Edge       `json:"edges" msgpack:"edges"`
	Blocks      []cfg.BasicBlock  `json:"blocks,omitempty" msgpack:"blocks,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

func variableNames(vars []variable.AbstractVariable) []string {
	if len(vars) == 0 {
		return nil
	}
	out := make([]string, 0, len(vars))
	for _, v := range vars {
		out = append(out, v.Name())
	}
	return out
}

// Export converts a result, partial or not, into a Summary.
func Export(r *Result) *Summary {
	s := &Summary{
		Incomplete:  r.Incomplete,
		Reason:      r.Reason,
		Diagnostics: r.Diagnostics,
	}
	if r.Method != nil {
		s.Method = r.Method.ID()
	}
	if r.Fragment != nil {
		s.Facts = exportFacts(r.Fragment)
	}
	if r.CFG != nil {
		s.Complexity = r.CFG.CyclomaticComplexity
		s.Blocks = r.CFG.Blocks
	}
	if r.PDG == nil {
		return s
	}
	for _, n := range r.PDG.Nodes {
		ns := NodeSummary{
			ID:       n.ID,
			Type:     n.CFG.Type,
			Line:     n.CFG.Line,
			Text:     n.CFG.Text,
			State:    n.State().String(),
			Declared: variableNames(n.Declared()),
			Defined:  variableNames(n.Defined()),
			Used:     variableNames(n.Used()),
			Thrown:   n.ThrownExceptionTypes(),
		}
		if parent := n.ControlDependenceParent(); parent != nil {
			id := parent.ID
			ns.Parent = &id
		}
		s.Nodes = append(s.Nodes, ns)
	}
	s.Edges = r.PDG.Edges
	return s
}

func exportFacts(f *fragment.Fragment) FactSummary {
	var fs FactSummary
	for _, m := range f.MethodInvocations() {
		fs.MethodInvocations = append(fs.MethodInvocations, m.Signature())
	}
	for _, m := range f.SuperMethodInvocations() {
		fs.SuperMethodInvocations = append(fs.SuperMethodInvocations, m.Signature())
	}
	for _, m := range f.ConstructorInvocations() {
		fs.ConstructorInvocations = append(fs.ConstructorInvocations, m.Signature())
	}
	for _, i := range f.FieldInstructions() {
		fs.Fields = append(fs.Fields, i.String())
	}
	for _, d := range f.LocalVariableDeclarations() {
		fs.LocalDeclarations = append(fs.LocalDeclarations, d.Type.String()+" "+d.Name)
	}
	for _, c := range f.Creations() {
		fs.Creations = append(fs.Creations, c.CreatedType().String())
	}
	for _, a := range f.AnonymousClassDeclarations() {
		fs.AnonymousClasses = append(fs.AnonymousClasses, a.Name)
	}
	for _, t := range f.ExceptionsInThrowStatements() {
		fs.Thrown = append(fs.Thrown, t.Type)
	}
	fs.Literals = len(f.Literals())
	fs.Defined = variableNames(f.DefinedVariables())
	fs.Used = variableNames(f.UsedVariables())
	return fs
}

// Encode writes v in the given format. Text is not handled here.
func Encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		return enc.Encode(v)
	}
	return fmt.Errorf("unsupported output format %q", format)
}
