package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"

	"github.com/presage-dev/presage/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validates a presage configuration file for syntax errors and invalid
values.

Examples:
  presage config validate                     # Validates default config locations
  presage config validate -c presage.toml    # Validates specific file`,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Shows the merged configuration from defaults and config file.

Examples:
  presage config show                  # Show effective config
  presage config show -c presage.toml  # Show config from specific file`,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// resolveConfig loads the config and reports which file it came from.
// An empty source means no config file was found.
func resolveConfig() (*config.Config, string, error) {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		return cfg, cfgFile, err
	}
	if path := config.FindDefault(); path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	return config.DefaultConfig(), "", nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	_, source, err := resolveConfig()
	if err != nil {
		color.Red("Configuration validation failed:")
		fmt.Printf("  - %s\n", err)
		return err
	}

	if source != "" {
		color.Green("Configuration valid: %s", source)
	} else {
		color.Yellow("No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, source, err := resolveConfig()
	if err != nil {
		return err
	}

	if source != "" {
		fmt.Printf("# Configuration from: %s\n\n", source)
	} else {
		fmt.Println("# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(*cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Print(string(content))

	return nil
}
