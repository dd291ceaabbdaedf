package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-deodorant/pkg/analysis"
)

type methodEntry struct {
	ID     string `json:"id" msgpack:"id"`
	Ref    string `json:"ref" msgpack:"ref"`
	Line   int    `json:"line" msgpack:"line"`
	Static bool   `json:"static,omitempty" msgpack:"static,omitempty"`
}

var methodsCmd = &cobra.Command{
	Use:   "methods <file>",
	Short: "List the methods with bodies declared in a Java file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer s.Close()

		var entries []methodEntry
		for _, m := range analysis.Methods(s.ws.Program, s.src.Path) {
			entries = append(entries, methodEntry{
				ID:     m.ID(),
				Ref:    refOf(m).String(),
				Line:   m.Key.Line,
				Static: m.Static(),
			})
		}

		return emit(cmd.OutOrStdout(), entries, func(w io.Writer) {
			if len(entries) == 0 {
				fmt.Fprintln(w, "No methods found")
				return
			}
			for _, e := range entries {
				fmt.Fprintf(w, "%-5d %s\n", e.Line, e.ID)
			}
		})
	},
}
