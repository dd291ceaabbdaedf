package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-deodorant/pkg/analysis"
)

var fragmentCmd = &cobra.Command{
	Use:   "fragment <file> [Class.method[:line]]",
	Short: "Show the facts collected for a method body",
	Long: `Decompose a method body and print what it invokes, which fields it reads
and writes, the locals it declares, the objects it creates and the exceptions
it throws.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, res, err := analyzeOne(cmd, args[0], args[1:])
		if err != nil {
			return err
		}
		defer s.Close()

		summary := analysis.Export(res)
		out := struct {
			Method     string               `json:"method" msgpack:"method"`
			Incomplete bool                 `json:"incomplete,omitempty" msgpack:"incomplete,omitempty"`
			Reason     string               `json:"reason,omitempty" msgpack:"reason,omitempty"`
			Facts      analysis.FactSummary `json:"facts" msgpack:"facts"`
		}{summary.Method, summary.Incomplete, summary.Reason, summary.Facts}

		return emit(cmd.OutOrStdout(), out, func(w io.Writer) {
			printHeader(w, summary)
			printFacts(w, summary.Facts)
			printDiagnostics(w, summary)
		})
	},
}
