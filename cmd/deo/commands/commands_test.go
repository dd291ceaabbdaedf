package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calc = `class Calc {
    int twice(int a) {
        int b = a * 2;
        int c = 7;
        return b;
    }

    void log(String m) {
        System.out.println(m);
    }
}
`

// run executes the root command in a scratch directory with no config
// files, resetting flags left over from earlier runs.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runIn(t, t.TempDir(), args...)
}

func runIn(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", dir)
	wd, wdErr := os.Getwd()
	if wdErr != nil {
		t.Fatal(wdErr)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Calc.java"), []byte(calc), 0o644))

	for _, c := range []*cobra.Command{RootCmd, sliceCmd, pdgCmd, configInitCmd} {
		reset(c)
	}
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func reset(c *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Value.Type() != "stringSlice" {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
}

func TestMethodsJSON(t *testing.T) {
	out, err := run(t, "methods", "Calc.java", "--format", "json")
	require.NoError(t, err)

	var entries []methodEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Calc.twice(int)", entries[0].ID)
	assert.Equal(t, "Calc.twice:2", entries[0].Ref)
	assert.Equal(t, "Calc.log(String)", entries[1].ID)
}

func TestSliceJSON(t *testing.T) {
	out, err := run(t, "slice", "Calc.java", "Calc.twice", "--line", "5", "--format", "json")
	require.NoError(t, err)

	var got sliceOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "backward", got.Direction)
	assert.Equal(t, []int{3, 5}, got.SliceLines)
}

func TestSliceText(t *testing.T) {
	out, err := run(t, "slice", "Calc.java", "Calc.twice", "--line", "3", "--forward")
	require.NoError(t, err)
	assert.Contains(t, out, "Slice lines (2): 3, 5")
	assert.Contains(t, out, ">    3 |         int b = a * 2;")
}

func TestSliceErrors(t *testing.T) {
	_, err := run(t, "slice", "Calc.java", "Calc.twice", "--line", "0")
	assert.ErrorContains(t, err, "line number must be positive")

	_, err = run(t, "slice", "Calc.java", "Calc.twice", "--line", "40")
	assert.ErrorContains(t, err, "no statement")

	_, err = run(t, "slice", "Calc.java", "Calc.missing", "--line", "3")
	assert.Error(t, err)
}

func TestPDGAllText(t *testing.T) {
	out, err := run(t, "pdg", "Calc.java", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Calc.twice(int) ===")
	assert.Contains(t, out, "=== Calc.log(String) ===")
	assert.Contains(t, out, "data b")
}

func TestPDGCache(t *testing.T) {
	dir := t.TempDir()
	first, err := runIn(t, dir, "pdg", "Calc.java", "Calc.twice", "--cache", "--format", "json")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ".deo", "cache", "summaries.msgpack"))
	require.NoError(t, err)

	second, err := runIn(t, dir, "pdg", "Calc.java", "Calc.twice", "--cache", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, first, second)
}

func TestFragmentRequiresMethodWhenAmbiguous(t *testing.T) {
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = isTerminalStdin })

	_, err := run(t, "fragment", "Calc.java")
	assert.ErrorIs(t, err, errNoMethod)
}

func TestConfigInitDefaults(t *testing.T) {
	out, err := run(t, "config", "init", "--defaults")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration saved to")
	_, err = os.Stat(filepath.Join(".deo", "config.yaml"))
	assert.NoError(t, err)

	_, err = run(t, "config", "show", "--format", "json")
	require.NoError(t, err)
}

func TestFormatLineRanges(t *testing.T) {
	tests := []struct {
		lines []int
		want  string
	}{
		{nil, "none"},
		{[]int{4}, "4"},
		{[]int{1, 2, 3}, "1-3"},
		{[]int{1, 2, 5, 7, 8}, "1-2, 5, 7-8"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatLineRanges(tt.lines))
	}
}
