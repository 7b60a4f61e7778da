package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hardikhari96/sftp-cloud-connector/internal/cli/output"
)

var (
	connUser  string
	connLimit int
)

var connectionsCmd = &cobra.Command{
	Use:     "connections",
	Aliases: []string{"conns"},
	Short:   "Show the connection audit log, newest first",
	RunE:    runConnections,
}

func init() {
	connectionsCmd.Flags().StringVar(&connUser, "user", "", "Filter by username")
	connectionsCmd.Flags().IntVar(&connLimit, "limit", 25, "Maximum number of records")
}

func runConnections(cmd *cobra.Command, args []string) error {
	c, err := newClient(true)
	if err != nil {
		return err
	}

	userID := ""
	if connUser != "" {
		user, err := c.FindUser(cmd.Context(), connUser)
		if err != nil {
			return err
		}
		userID = user.ID
	}

	conns, err := c.ListConnections(cmd.Context(), userID, connLimit)
	if err != nil {
		return err
	}

	table := output.NewTableData("User", "Remote", "Started", "Ended", "Uploaded", "Downloaded")
	for _, conn := range conns {
		ended := "active"
		if conn.EndedAt != nil {
			ended = conn.EndedAt.Local().Format("2006-01-02 15:04:05")
		}
		table.AddRow(
			conn.Username,
			conn.RemoteIP,
			conn.StartedAt.Local().Format("2006-01-02 15:04:05"),
			ended,
			output.FormatBytes(conn.BytesUploaded),
			output.FormatBytes(conn.BytesDownloaded),
		)
	}
	if err := output.PrintTable(os.Stdout, table); err != nil {
		return err
	}

	fmt.Printf("\n%d connection(s)\n", len(conns))
	return nil
}
