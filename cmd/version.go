package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"github.com/aitutor/tutorchat/internal/transport"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "tutorchat", version)

		check, _ := cmd.Flags().GetBool("check")
		if !check {
			return nil
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		client := transport.NewHTTP(cfg.Client.BackendURL, "", 5*time.Second)
		health, err := client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend %s: %w", cfg.Client.BackendURL, err)
		}
		fmt.Fprintf(out, "backend %s %s (%s, model %s)\n", cfg.Client.BackendURL, health.Version, health.Status, health.Model)
		fmt.Fprintln(out, compareVersions(version, health.Version))
		return nil
	},
}

// compareVersions describes how the client relates to the backend.
// Development builds are never compared.
func compareVersions(client, backend string) string {
	if !semver.IsValid(client) || !semver.IsValid(backend) {
		return "version check skipped (development build)"
	}
	switch c := semver.Compare(client, backend); {
	case c < 0:
		return "client is older than the backend; consider upgrading"
	case c > 0:
		return "backend is older than the client"
	}
	return "client and backend match"
}

func init() {
	versionCmd.Flags().Bool("check", false, "Compare against the backend's /health version")
	versionCmd.Flags().String("backend", "", "Backend URL to check")
}
