package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/docport-io/docport/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "docport",
	Short:   "Document portal access service",
	Long:    "docport serves the client document portal: role-scoped document access, technician work orders and profile administration.",
	Version: version.Full(),
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
