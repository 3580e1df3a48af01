// Package cli wires configuration, storage and the extractor into the ascmetrics commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ascmetrics",
	Short: "App Store Connect analytics extractor",
	Long: `ascmetrics pulls App Store Connect analytics reports for one app and rolls them up
into one record per calendar day: downloads by type, deletions, sessions and active devices.

Configuration comes from an optional YAML file and ASC_* environment variables
(ASC_APPSTORE__APP_ID=123 overrides appstore.app_id).`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
