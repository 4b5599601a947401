package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aitutor/tutorchat/internal/config"
	"github.com/aitutor/tutorchat/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tutorchat",
	Short: "Terminal chat with an AI tutor",
	Long: `tutorchat is a terminal chat client for an AI tutor with four
conversations (home, progress, review, explore), optimistic sends and
automatic retries. It can talk to the tutor in-process or through the
HTTP/WebSocket backend started with "tutorchat serve".`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file (default $XDG_CONFIG_HOME/tutorchat/config.yaml)")
	pf.String("db", "", "Path to SQLite database file (overrides TUTORCHAT_DB)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	addClientFlags(rootCmd)
	rootCmd.Flags().String("metrics-addr", "", "Serve client metrics on this address, e.g. :9091")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

func addClientFlags(c *cobra.Command) {
	f := c.Flags()
	f.String("transport", "", "How to reach the tutor: local, http or ws")
	f.String("backend", "", "Backend URL for the http and ws transports")
	f.Float64("inject-failures", 0, "Fail this fraction of sends on purpose (demo)")
}

// loadConfig reads the configuration and applies command-line overrides,
// which take precedence over file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	// Not every command defines the client flags; lookups of missing
	// flags return the zero value.
	if v, _ := flags.GetString("transport"); v != "" {
		cfg.Client.Transport = v
	}
	if v, _ := flags.GetString("backend"); v != "" {
		cfg.Client.BackendURL = v
	}
	if flags.Changed("inject-failures") {
		cfg.Client.InjectFailures, _ = flags.GetFloat64("inject-failures")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// resolveDBPath returns the configured database path (flag, then
// TUTORCHAT_DB or the config file), then the default XDG path.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}
