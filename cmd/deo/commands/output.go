package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-deodorant/pkg/analysis"
	"github.com/l3aro/go-deodorant/pkg/pdg"
)

// emit writes v in the configured structured format, or calls text.
func emit(w io.Writer, v interface{}, text func(io.Writer)) error {
	if settings.cfg.OutputFormat == analysis.FormatText {
		text(w)
		return nil
	}
	return analysis.Encode(w, settings.cfg.OutputFormat, v)
}

// analyzeOne opens file and analyses the method named by args[0], asking
// for it when absent.
func analyzeOne(cmd *cobra.Command, file string, args []string) (*session, *analysis.Result, error) {
	s, err := openSession(cmd.Context(), file)
	if err != nil {
		return nil, nil, err
	}
	ref, err := methodRef(s, args)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	res, err := analyze(cmd.Context(), s, ref)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return s, res, nil
}

// analyze runs the engine on ref. A partial result is returned with a
// warning; only failures that leave nothing to show are errors.
func analyze(ctx context.Context, s *session, ref analysis.MethodRef) (*analysis.Result, error) {
	res, err := s.engine.AnalyzeMethod(ctx, s.src, ref)
	if err != nil {
		var inc *analysis.IncompleteError
		if !errors.As(err, &inc) || res.Fragment == nil {
			return nil, err
		}
		settings.logger.Warn("partial result", "method", inc.MethodID, "reason", inc.Reason)
	}
	return res, nil
}

func printFacts(w io.Writer, f analysis.FactSummary) {
	list := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(w, "%s:\n", title)
		for _, item := range items {
			fmt.Fprintf(w, "  %s\n", item)
		}
	}
	list("Method invocations", f.MethodInvocations)
	list("Super method invocations", f.SuperMethodInvocations)
	list("Constructor invocations", f.ConstructorInvocations)
	list("Field instructions", f.Fields)
	list("Local declarations", f.LocalDeclarations)
	list("Creations", f.Creations)
	list("Anonymous classes", f.AnonymousClasses)
	list("Thrown", f.Thrown)
	list("Defined", f.Defined)
	list("Used", f.Used)
	fmt.Fprintf(w, "Literals: %d\n", f.Literals)
}

func printHeader(w io.Writer, s *analysis.Summary) {
	fmt.Fprintf(w, "=== %s ===\n", s.Method)
	if s.Incomplete {
		fmt.Fprintf(w, "INCOMPLETE: %s\n", s.Reason)
	}
}

func printDiagnostics(w io.Writer, s *analysis.Summary) {
	if len(s.Diagnostics) == 0 {
		return
	}
	fmt.Fprintf(w, "\nDiagnostics (%d):\n", len(s.Diagnostics))
	for _, d := range s.Diagnostics {
		fmt.Fprintf(w, "  line %d: %s: %s\n", d.Key.Line, d.Kind, d.Message)
	}
}

func printGraph(w io.Writer, s *analysis.Summary) {
	printHeader(w, s)
	fmt.Fprintf(w, "Cyclomatic complexity: %d\n", s.Complexity)

	fmt.Fprintf(w, "\nNodes (%d):\n", len(s.Nodes))
	for _, n := range s.Nodes {
		parent := "-"
		if n.Parent != nil {
			parent = fmt.Sprintf("%d", *n.Parent)
		}
		fmt.Fprintf(w, "  [%d] line %-4d %-12s parent=%-3s %s\n", n.ID, n.Line, n.Type, parent, firstLine(n.Text))
		if len(n.Defined) > 0 || len(n.Used) > 0 {
			fmt.Fprintf(w, "        def=%s use=%s\n", strings.Join(n.Defined, ","), strings.Join(n.Used, ","))
		}
	}

	fmt.Fprintf(w, "\nEdges (%d):\n", len(s.Edges))
	for _, e := range s.Edges {
		fmt.Fprintf(w, "  %s\n", formatEdge(e))
	}
	printDiagnostics(w, s)
}

func formatEdge(e *pdg.Edge) string {
	out := fmt.Sprintf("%d -> %d %s", e.From, e.To, e.Type)
	if e.Label != "" {
		out += " " + e.Label
	}
	if e.LoopCarried {
		out += fmt.Sprintf(" (loop-carried via %d)", e.LoopHeader)
	}
	return out
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i] + " ..."
	}
	return text
}
