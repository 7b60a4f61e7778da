// Package commands implements the sftpctl CLI commands.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hardikhari96/sftp-cloud-connector/internal/config"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/api/client"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "sftpctl",
	Short: "Manage a running sftp-connector",
	Long: `sftpctl manages users, connections and analytics of a running
sftp-connector through its admin HTTP API.

Log in once with "sftpctl login"; the token is cached on disk and reused by
the other commands until it expires.`,
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
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the admin API")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(connectionsCmd)
	rootCmd.AddCommand(analyticsCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// tokenPath is where login caches the bearer token.
func tokenPath() string {
	return filepath.Join(config.ConfigDir(), "sftpctl_token")
}

func saveToken(token string) error {
	path := tokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func loadToken() string {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// newClient builds a client with the cached token. Commands other than login
// fail with a hint when no token is cached.
func newClient(requireToken bool) (*client.Client, error) {
	token := loadToken()
	if requireToken && token == "" {
		return nil, fmt.Errorf("not logged in, run \"sftpctl login\" first")
	}
	return client.New(serverURL, token), nil
}
