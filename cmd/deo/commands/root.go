// Package commands provides the CLI commands for deo.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-deodorant/internal/config"
	"github.com/l3aro/go-deodorant/internal/log"
)

// settings holds the effective configuration of the running command.
var settings struct {
	cfg    *config.Config
	logger log.Logger
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "deo",
	Short: "deo - Program dependence analysis for Java methods",
	Long: `deo decomposes Java methods into statement fragments and builds their
control flow graph and program dependence graph.

Commands:
  methods     List the methods declared in a file
  fragment    Show the facts collected for a method
  pdg         Show the program dependence graph of a method
  slice       Backward or forward slice from a line
  config      Create or show configuration

Methods are named Class.method, or Class.method:line for overloads.
Use "deo [command] --help" for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings(cmd)
	},
}

// Execute runs the root command. Interrupts cancel the analysis in
// progress, which then reports partial results.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return RootCmd.ExecuteContext(ctx)
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ~/.deo/config.yaml then ./.deo/config.yaml)")
	flags.StringSlice("classpath", nil, "Source roots indexed for name resolution")
	flags.StringP("format", "f", "", "Output format: text, json or msgpack")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.Int("max-statements", -1, "Stop decomposing a method after N statements (0 = unlimited)")
	flags.Duration("timeout", -1, "Per-method analysis timeout (0 = none)")
	flags.Int("workers", 0, "Parallel parses and analyses")
	flags.Bool("no-external", false, "Do not record calls to methods outside the indexed sources")

	RootCmd.AddCommand(methodsCmd)
	RootCmd.AddCommand(fragmentCmd)
	RootCmd.AddCommand(pdgCmd)
	RootCmd.AddCommand(sliceCmd)
	RootCmd.AddCommand(configCmd)
}

// loadSettings reads the config files and applies flag overrides on top.
func loadSettings(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if roots, _ := flags.GetStringSlice("classpath"); len(roots) > 0 {
		cfg.SourceRoots = append(cfg.SourceRoots, roots...)
	}
	if v, _ := flags.GetString("format"); v != "" {
		cfg.OutputFormat = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := flags.GetInt("max-statements"); v >= 0 {
		cfg.MaxStatements = v
	}
	if v, _ := flags.GetDuration("timeout"); v >= 0 {
		cfg.Timeout = v
	}
	if v, _ := flags.GetInt("workers"); v > 0 {
		cfg.Workers = v
	}
	if v, _ := flags.GetBool("no-external"); v {
		cfg.ExternalCalls = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	settings.cfg = cfg
	settings.logger = log.New(log.LoggerConfig{
		Level:      cfg.Level(),
		JSONOutput: cfg.JSONLogs,
		Output:     os.Stderr,
	})
	return nil
}
