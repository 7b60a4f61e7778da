package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hardikhari96/sftp-cloud-connector/internal/cli/output"
	"github.com/hardikhari96/sftp-cloud-connector/internal/cli/prompt"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/api/handlers"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var (
	userAddRole string
	userAddHome string
	userRmForce bool
)

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all users",
	RunE:    runUserList,
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a new user (prompts for password)",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userRmCmd = &cobra.Command{
	Use:     "rm <username>",
	Aliases: []string{"delete", "remove"},
	Short:   "Delete a user",
	Args:    cobra.ExactArgs(1),
	RunE:    runUserRm,
}

var userEnableCmd = &cobra.Command{
	Use:   "enable <username>",
	Short: "Enable a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setUserActive(cmd, args[0], true) },
}

var userDisableCmd = &cobra.Command{
	Use:   "disable <username>",
	Short: "Disable a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setUserActive(cmd, args[0], false) },
}

var userPasswdCmd = &cobra.Command{
	Use:     "passwd <username>",
	Aliases: []string{"password"},
	Short:   "Change a user's password",
	Args:    cobra.ExactArgs(1),
	RunE:    runUserPasswd,
}

func init() {
	userAddCmd.Flags().StringVar(&userAddRole, "role", "user", "Role: user or admin")
	userAddCmd.Flags().StringVar(&userAddHome, "home", "", "Home directory relative to the shared root (default: username)")
	userRmCmd.Flags().BoolVarP(&userRmForce, "force", "f", false, "Skip confirmation")

	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userRmCmd)
	userCmd.AddCommand(userEnableCmd)
	userCmd.AddCommand(userDisableCmd)
	userCmd.AddCommand(userPasswdCmd)
}

func runUserList(cmd *cobra.Command, args []string) error {
	c, err := newClient(true)
	if err != nil {
		return err
	}

	users, err := c.ListUsers(cmd.Context())
	if err != nil {
		return err
	}

	table := output.NewTableData("Username", "Role", "Active", "Home", "Last login")
	for _, u := range users {
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Local().Format("2006-01-02 15:04")
		}
		table.AddRow(u.Username, u.Role, fmt.Sprintf("%t", u.Active), u.HomeDir, lastLogin)
	}
	return output.PrintTable(os.Stdout, table)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	username := args[0]

	password, err := prompt.PasswordWithConfirmation("Password", "Confirm password", 8)
	if err != nil {
		return err
	}

	c, err := newClient(true)
	if err != nil {
		return err
	}

	user, err := c.CreateUser(cmd.Context(), handlers.CreateUserRequest{
		Username: username,
		Password: password,
		Role:     userAddRole,
		HomeDir:  userAddHome,
	})
	if err != nil {
		return err
	}

	fmt.Printf("User %s created (home: %s)\n", user.Username, user.HomeDir)
	return nil
}

func runUserRm(cmd *cobra.Command, args []string) error {
	username := args[0]

	if !userRmForce {
		ok, err := prompt.Confirm(fmt.Sprintf("Delete user %q", username))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled")
			return nil
		}
	}

	c, err := newClient(true)
	if err != nil {
		return err
	}

	user, err := c.FindUser(cmd.Context(), username)
	if err != nil {
		return err
	}
	if err := c.DeleteUser(cmd.Context(), user.ID); err != nil {
		return err
	}

	fmt.Printf("User %s deleted\n", username)
	return nil
}

func setUserActive(cmd *cobra.Command, username string, active bool) error {
	c, err := newClient(true)
	if err != nil {
		return err
	}

	user, err := c.FindUser(cmd.Context(), username)
	if err != nil {
		return err
	}
	if _, err := c.UpdateUser(cmd.Context(), user.ID, handlers.UpdateUserRequest{Active: &active}); err != nil {
		return err
	}

	state := "disabled"
	if active {
		state = "enabled"
	}
	fmt.Printf("User %s %s\n", username, state)
	return nil
}

func runUserPasswd(cmd *cobra.Command, args []string) error {
	username := args[0]

	password, err := prompt.PasswordWithConfirmation("New password", "Confirm password", 8)
	if err != nil {
		return err
	}

	c, err := newClient(true)
	if err != nil {
		return err
	}

	user, err := c.FindUser(cmd.Context(), username)
	if err != nil {
		return err
	}
	if _, err := c.UpdateUser(cmd.Context(), user.ID, handlers.UpdateUserRequest{Password: &password}); err != nil {
		return err
	}

	fmt.Printf("Password changed for %s\n", username)
	return nil
}
