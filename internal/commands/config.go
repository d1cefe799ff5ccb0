package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/diogo/streamchat/internal/config"
)

// NewConfigCmd creates the config command and its subcommands
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the configuration",
		Long: `Print the effective configuration as JSON.

Use 'config get KEY' to read one value, 'config set KEY VALUE' to change it
and 'config path' to locate the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := effectiveConfigJSON(deps)
			if err != nil {
				return err
			}
			fmt.Fprintln(deps.Stdout, string(data))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print one configuration value (e.g. markdown.style)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := effectiveConfigJSON(deps)
			if err != nil {
				return err
			}
			result := gjson.GetBytes(data, strings.ToLower(args[0]))
			if !result.Exists() {
				return fmt.Errorf("unknown config key %q", args[0])
			}
			fmt.Fprintln(deps.Stdout, result.String())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one configuration value",
		Long:  "Change one configuration value. Valid keys: " + strings.Join(config.Keys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return err
			}
			if err := config.SetValue(&cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(deps.Stdout, "%s = %s\n", strings.ToLower(args[0]), args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(deps.Stdout, path)
			return nil
		},
	})

	return cmd
}

// effectiveConfigJSON returns the stored config with environment overrides applied
func effectiveConfigJSON(deps *Dependencies) ([]byte, error) {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(config.ApplyEnvOverrides(cfg), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
