package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-deodorant/pkg/analysis"
)

var pdgCmd = &cobra.Command{
	Use:   "pdg <file> [Class.method[:line]] [--all]",
	Short: "Show the program dependence graph of a method",
	Long: `Build the control flow graph and program dependence graph of a method and
print its nodes with their control dependence parents and its control and
data dependence edges. With --all every method in the file is analysed.

With --cache, or cache_file set in the config, complete summaries are kept
between runs and reused while no indexed file changes.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		useCache, _ := cmd.Flags().GetBool("cache")

		s, err := openSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer s.Close()

		sc := openCache(useCache)
		defer sc.flush()

		var summaries []*analysis.Summary
		if all {
			summaries, err = graphAll(cmd, s, sc)
		} else {
			summaries, err = graphOne(cmd, s, sc, args[1:])
		}
		if err != nil {
			return err
		}

		var v interface{} = summaries
		if !all {
			v = summaries[0]
		}
		return emit(cmd.OutOrStdout(), v, func(w io.Writer) {
			for i, sm := range summaries {
				if i > 0 {
					fmt.Fprintln(w)
				}
				printGraph(w, sm)
			}
		})
	},
}

func graphOne(cmd *cobra.Command, s *session, sc *summaryCache, args []string) ([]*analysis.Summary, error) {
	ref, err := methodRef(s, args)
	if err != nil {
		return nil, err
	}
	key := summaryKey(s, ref.String())
	if cached, ok := sc.get(key); ok && len(cached) == 1 {
		return cached, nil
	}

	res, err := analyze(cmd.Context(), s, ref)
	if err != nil {
		return nil, err
	}
	summaries := []*analysis.Summary{analysis.Export(res)}
	sc.put(key, summaries)
	return summaries, nil
}

func graphAll(cmd *cobra.Command, s *session, sc *summaryCache) ([]*analysis.Summary, error) {
	key := summaryKey(s, "*")
	if cached, ok := sc.get(key); ok {
		return cached, nil
	}

	results, err := s.engine.AnalyzeAll(cmd.Context(), s.src.Path, s.src.Content)
	defer func() {
		for _, r := range results {
			r.Close()
		}
	}()
	if err != nil && !errors.Is(err, analysis.ErrIncomplete) {
		return nil, err
	}

	summaries := make([]*analysis.Summary, 0, len(results))
	incomplete := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		summaries = append(summaries, analysis.Export(r))
		if r.Incomplete {
			incomplete++
		}
	}
	if incomplete > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d methods are incomplete\n", incomplete, len(summaries))
	}
	sc.put(key, summaries)
	return summaries, nil
}

func init() {
	pdgCmd.Flags().Bool("all", false, "Analyse every method in the file")
	pdgCmd.Flags().Bool("cache", false, "Reuse cached summaries (default file ~/.deo/cache/summaries.msgpack)")
}
