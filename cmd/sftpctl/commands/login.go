package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hardikhari96/sftp-cloud-connector/internal/cli/prompt"
)

var loginUsername string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the admin API",
	Long: `Authenticate against the admin API and cache the bearer token.

Only admin users can log in. The token is cached on disk and reused by the
other commands until it expires.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	username := loginUsername
	if username == "" {
		var err error
		username, err = prompt.Input("Username", "")
		if err != nil {
			return err
		}
	}

	password, err := prompt.Password("Password")
	if err != nil {
		return err
	}

	c, err := newClient(false)
	if err != nil {
		return err
	}

	resp, err := c.Login(cmd.Context(), username, password)
	if err != nil {
		return err
	}

	if err := saveToken(resp.Token); err != nil {
		return err
	}

	fmt.Printf("Logged in as %s, token valid until %s\n",
		resp.User.Username, resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}
