package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sunhs/consult.code/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set consult configuration values.

Without arguments, lists all configuration keys.
With one argument, shows the value of that key.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/consult/config.yaml (XDG compliant).

Keys are in the format: section.key
Sections: consult, cache, grep, editor, log
List values are comma-separated.

Examples:
  consult config                                  # List all keys
  consult config grep.debounce_ms                 # Get grep.debounce_ms value
  consult config grep.min_query_len 2             # Search from two characters
  consult config consult.project_marker_files .git,go.mod`,
	GroupID: groupSetup,
	Args:    cobra.MaximumNArgs(2),
	RunE:    runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := configPath()
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	switch len(args) {
	case 0:
		// List all keys
		return listConfig(out, cfg, path)
	case 1:
		// Get value
		return getConfig(out, cfg, args[0])
	case 2:
		// Set value
		return setConfig(out, cfg, path, args[0], args[1])
	}

	return nil
}

func listConfig(out io.Writer, cfg *config.Config, path string) error {
	fmt.Fprintf(out, "%sConfiguration Keys%s\n", colorBold, colorReset)
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintln(out)

	keys := config.ListKeys()
	var failedKeys []string
	for _, key := range keys {
		value, err := cfg.Get(key)
		if err != nil {
			failedKeys = append(failedKeys, key)
			continue
		}

		// Format empty values
		displayValue := value
		if displayValue == "" {
			displayValue = colorDim + "(not set)" + colorReset
		}

		fmt.Fprintf(out, "  %s%s%s = %s\n", colorCyan, key, colorReset, displayValue)
	}

	if len(failedKeys) > 0 {
		fmt.Fprintf(out, "\n%sWarning:%s Failed to retrieve keys: %s\n", colorYellow, colorReset, strings.Join(failedKeys, ", "))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Config file: %s\n", path)

	return nil
}

func getConfig(out io.Writer, cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}

	if value == "" {
		fmt.Fprintf(out, "%s(not set)%s\n", colorDim, colorReset)
	} else {
		fmt.Fprintln(out, value)
	}

	return nil
}

func setConfig(out io.Writer, cfg *config.Config, path, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.SaveToFile(path); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s%s%s = %s\n", colorCyan, key, colorReset, value)
	fmt.Fprintf(out, "Saved to: %s\n", path)

	return nil
}
