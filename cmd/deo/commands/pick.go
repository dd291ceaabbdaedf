package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/l3aro/go-deodorant/pkg/analysis"
	"github.com/l3aro/go-deodorant/pkg/resolve"
)

var errNoMethod = errors.New("no method given")

// stdinIsTerminal decides whether the method picker may be shown.
var stdinIsTerminal = isTerminalStdin

func isTerminalStdin() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// methodRef turns a Class.method[:line] argument into a reference. Without
// an argument it asks on a terminal, and fails otherwise.
func methodRef(s *session, args []string) (analysis.MethodRef, error) {
	if len(args) > 0 && args[0] != "" {
		return analysis.ParseMethodRef(args[0])
	}
	methods := analysis.Methods(s.ws.Program, s.src.Path)
	if len(methods) == 0 {
		return analysis.MethodRef{}, fmt.Errorf("no methods with bodies in %s", s.src.Path)
	}
	if len(methods) == 1 {
		return refOf(methods[0]), nil
	}
	if !stdinIsTerminal() {
		return analysis.MethodRef{}, fmt.Errorf("%w: pass Class.method", errNoMethod)
	}

	options := make([]huh.Option[int], len(methods))
	for i, m := range methods {
		options[i] = huh.NewOption(fmt.Sprintf("%s  (line %d)", m.ID(), m.Key.Line), i)
	}
	var choice int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Method").
				Description(s.src.Path).
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return analysis.MethodRef{}, fmt.Errorf("interactive prompt failed: %w", err)
	}
	return refOf(methods[choice]), nil
}

// refOf pins the declaration line so overloads stay unambiguous.
func refOf(m *resolve.MethodInfo) analysis.MethodRef {
	return analysis.MethodRef{Class: m.Class, Name: m.Name, Line: m.Key.Line}
}
