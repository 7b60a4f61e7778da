// Package commands implements the CLI commands of the server binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/hardikhari96/sftp-cloud-connector/internal/config"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sftp-connector",
	Short: "Multi-tenant SFTP server with a jailed shared root",
	Long: `sftp-connector serves SFTP over SSH with password authentication against
a persistent user store. Each user is confined to their own directory under a
shared root, every transfer is metered, and an optional HTTP API exposes user
management, the connection audit log and transfer analytics.

Use "sftp-connector [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		rootCmd.PrintErrf("Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: "+config.DefaultConfigPath()+")")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
