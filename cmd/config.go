package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/hookchat/internal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or show the configuration",
	Long: `The config file lists the webhook endpoints, relay templates, timeouts
and identity store. Without a file the built-in defaults are used.

Environment overrides:
  HOOKCHAT_ENDPOINTS   comma-separated endpoint URLs
  HOOKCHAT_RELAYS      comma-separated relay templates ("-" disables relays)
  HOOKCHAT_SOURCE      source tag sent with every request`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := internal.DetectDataPaths(dataDir)
		if err != nil {
			return fmt.Errorf("failed to get data paths: %w", err)
		}
		path := configPath
		if path == "" {
			path = paths.ConfigFile
		}

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
		}

		cfg := internal.DefaultConfig(paths)
		// derived from the driver on load
		cfg.Identity.Path = ""
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after defaults and environment overrides are applied.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
}
