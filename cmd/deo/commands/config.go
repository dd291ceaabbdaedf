package commands

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-deodorant/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or show configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(settings.cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize deo configuration interactively",
	Long: `Guides you through the analysis settings and writes them to the global
(~/.deo/config.yaml) or project (./.deo/config.yaml) config file. With
--defaults the project file is written with default settings and no prompts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, _ := cmd.Flags().GetBool("defaults")
		force, _ := cmd.Flags().GetBool("force")
		if defaults {
			return writeConfig(cmd, config.DefaultConfig(), config.ProjectConfigFilePath(), force)
		}
		return runInit(cmd, force)
	},
}

func runInit(cmd *cobra.Command, force bool) error {
	cfg := config.DefaultConfig()
	workers := strconv.Itoa(cfg.Workers)
	maxStatements := strconv.Itoa(cfg.MaxStatements)
	timeout := cfg.Timeout.String()
	location := "project"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output format").
				Options(
					huh.NewOption("Text", config.FormatText),
					huh.NewOption("JSON", config.FormatJSON),
					huh.NewOption("MessagePack", config.FormatMsgpack),
				).
				Value(&cfg.OutputFormat),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&cfg.LogLevel),
			huh.NewConfirm().
				Title("Record calls to methods outside the indexed sources?").
				Value(&cfg.ExternalCalls),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Workers").
				Description("Methods analysed concurrently").
				Validate(positiveInt).
				Value(&workers),
			huh.NewInput().
				Title("Statement limit per method").
				Description("0 means unlimited").
				Validate(nonNegativeInt).
				Value(&maxStatements),
			huh.NewInput().
				Title("Timeout per method").
				Description("Go duration, 0 for none").
				Value(&timeout),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.deo/config.yaml)", "project"),
					huh.NewOption("Global (~/.deo/config.yaml)", "global"),
				).
				Value(&location),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	cfg.Workers, _ = strconv.Atoi(workers)
	cfg.MaxStatements, _ = strconv.Atoi(maxStatements)
	d, err := parseTimeout(timeout)
	if err != nil {
		return err
	}
	cfg.Timeout = d

	path := config.ProjectConfigFilePath()
	if location == "global" {
		path = config.GlobalConfigFilePath()
	}

	if _, err := os.Stat(path); err == nil && !force {
		overwrite := false
		confirm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Config file exists").
				Description(fmt.Sprintf("Overwrite existing config at %s?", path)).
				Affirmative("Overwrite").
				Negative("Cancel").
				Value(&overwrite),
		))
		if err := confirm.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		force = true
	}
	return writeConfig(cmd, cfg, path, force)
}

func writeConfig(cmd *cobra.Command, cfg *config.Config, path string, force bool) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to: %s\n", path)
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

func nonNegativeInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("enter zero or a positive number")
	}
	return nil
}

func parseTimeout(s string) (d time.Duration, err error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err = time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return d, nil
}

func init() {
	configInitCmd.Flags().Bool("defaults", false, "Write the default settings to the project config without prompting")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
