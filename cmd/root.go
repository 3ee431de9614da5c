package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/hookchat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	dataDir    string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hookchat",
	Short: "Chat with an n8n webhook bot from the terminal",
	Long: `A terminal client for chat bots built on n8n webhooks.

Messages are delivered with a fallback chain: the webhook directly, then
through public relays, then as a fire-and-forget request. Whatever happens,
every message gets an answer or a readable error.

Features:
  • Interactive chat with session bootstrap and retry
  • Multiple webhook endpoints with automatic failover
  • Persistent user id (file, sqlite or redis)
  • Webhook health checks and latency stats
  • Local mock bot for offline development
  • Transcript export (JSONL, Markdown, YAML, JSON)

Quick Start:
  hookchat chat                          # Start chatting
  hookchat send "Привет"                 # One-shot message
  hookchat healthcheck                   # Probe the configured webhooks
  hookchat mock --addr :8080             # Run a local mock bot`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

// loadConfig resolves the data directory and loads the config. An explicit
// --config path must exist; the default one may be missing.
func loadConfig() (*internal.Config, internal.DataPaths, error) {
	paths, err := internal.DetectDataPaths(dataDir)
	if err != nil {
		return nil, internal.DataPaths{}, fmt.Errorf("failed to get data paths: %w", err)
	}

	path := configPath
	if path == "" {
		path = paths.ConfigFile
	}
	cfg, err := internal.LoadConfig(path, paths, configPath != "")
	if err != nil {
		return nil, paths, fmt.Errorf("failed to load config: %w", err)
	}

	if verbose {
		internal.SetVerbose(true)
	} else if cfg.LogLevel != "" {
		internal.SetLogLevel(internal.ParseLogLevel(cfg.LogLevel))
	}
	return cfg, paths, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.hookchat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory for config and identity (default ~/.hookchat)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
