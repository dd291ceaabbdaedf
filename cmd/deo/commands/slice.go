package commands

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-deodorant/pkg/pdg"
)

type sliceOutput struct {
	Method     string `json:"method" msgpack:"method"`
	Line       int    `json:"line" msgpack:"line"`
	Direction  string `json:"direction" msgpack:"direction"`
	Variable   string `json:"variable,omitempty" msgpack:"variable,omitempty"`
	Incomplete bool   `json:"incomplete,omitempty" msgpack:"incomplete,omitempty"`
	SliceLines []int  `json:"slice_lines" msgpack:"slice_lines"`
}

var sliceCmd = &cobra.Command{
	Use:   "slice <file> [Class.method[:line]] --line N [--forward] [--var NAME]",
	Short: "Perform backward or forward slice analysis on a method",
	Long: `Slice a method's program dependence graph from the statements on a line.

Backward slice: Find all lines that may affect the statements at the line.
Forward slice: Find all lines that may be affected by the statements at the line.

With --var only data dependences on that variable are followed; control
dependences are always followed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lineNum, _ := cmd.Flags().GetInt("line")
		if lineNum <= 0 {
			return fmt.Errorf("line number must be positive: %d", lineNum)
		}
		forward, _ := cmd.Flags().GetBool("forward")

		var varFilter *string
		if cmd.Flags().Changed("var") {
			varName, _ := cmd.Flags().GetString("var")
			varFilter = &varName
		}

		s, res, err := analyzeOne(cmd, args[0], args[1:])
		if err != nil {
			return err
		}
		defer s.Close()
		if res.PDG == nil {
			return fmt.Errorf("%s: no dependence graph (%s)", res.Method.ID(), res.Reason)
		}
		if len(res.PDG.NodesAtLine(lineNum)) == 0 {
			return fmt.Errorf("no statement of %s starts at line %d", res.Method.ID(), lineNum)
		}

		var sliceLines []int
		if forward {
			sliceLines = pdg.ForwardSlice(res.PDG, lineNum, varFilter)
		} else {
			sliceLines = pdg.BackwardSlice(res.PDG, lineNum, varFilter)
		}
		if sliceLines == nil {
			sliceLines = []int{}
		}
		slices.Sort(sliceLines)

		out := sliceOutput{
			Method:     res.Method.ID(),
			Line:       lineNum,
			Direction:  map[bool]string{true: "forward", false: "backward"}[forward],
			Incomplete: res.Incomplete,
			SliceLines: sliceLines,
		}
		if varFilter != nil {
			out.Variable = *varFilter
		}

		return emit(cmd.OutOrStdout(), out, func(w io.Writer) {
			printSlice(w, out, s.src.Content)
		})
	},
}

func printSlice(w io.Writer, out sliceOutput, content []byte) {
	fmt.Fprintf(w, "=== Slice for method: %s (line %d, %s) ===\n", out.Method, out.Line, out.Direction)
	if out.Variable != "" {
		fmt.Fprintf(w, "Variable filter: %s\n", out.Variable)
	}
	if out.Incomplete {
		fmt.Fprintln(w, "Warning: the dependence graph is partial")
	}

	fmt.Fprintf(w, "\nSlice lines (%d): %s\n", len(out.SliceLines), formatLineRanges(out.SliceLines))
	if len(out.SliceLines) == 0 {
		return
	}

	fmt.Fprintln(w, "\n--- Source code with slice lines highlighted ---")
	lines := strings.Split(string(content), "\n")
	for _, n := range out.SliceLines {
		if n < 1 || n > len(lines) {
			continue
		}
		marker := " "
		if n == out.Line {
			marker = ">"
		}
		fmt.Fprintf(w, "%s%5d | %s\n", marker, n, strings.TrimRight(lines[n-1], "\r"))
	}
}

func formatLineRanges(lines []int) string {
	if len(lines) == 0 {
		return "none"
	}

	var ranges []string
	start, end := lines[0], lines[0]
	flush := func() {
		if start == end {
			ranges = append(ranges, fmt.Sprintf("%d", start))
		} else {
			ranges = append(ranges, fmt.Sprintf("%d-%d", start, end))
		}
	}
	for _, line := range lines[1:] {
		if line == end+1 {
			end = line
			continue
		}
		flush()
		start, end = line, line
	}
	flush()

	return strings.Join(ranges, ", ")
}

func init() {
	sliceCmd.Flags().IntP("line", "l", 0, "Line of the slicing criterion")
	sliceCmd.Flags().Bool("forward", false, "Forward slice (default backward)")
	sliceCmd.Flags().String("var", "", "Only follow data dependences on this variable")
}
