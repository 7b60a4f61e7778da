package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hardikhari96/sftp-cloud-connector/internal/cli/output"
)

var analyticsUser string

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show per-user transfer totals",
	RunE:  runAnalytics,
}

func init() {
	analyticsCmd.Flags().StringVar(&analyticsUser, "user", "", "Restrict to one username")
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	c, err := newClient(true)
	if err != nil {
		return err
	}

	userID := ""
	if analyticsUser != "" {
		user, err := c.FindUser(cmd.Context(), analyticsUser)
		if err != nil {
			return err
		}
		userID = user.ID
	}

	summary, err := c.Summary(cmd.Context(), userID)
	if err != nil {
		return err
	}

	fmt.Printf("Connections: %d total, %d active\n", summary.TotalConnections, summary.ActiveConnections)
	fmt.Printf("Transferred: %s up, %s down\n\n",
		output.FormatBytes(summary.TotalUpload), output.FormatBytes(summary.TotalDownload))

	table := output.NewTableData("User", "Sessions", "Transfers", "Uploaded", "Downloaded")
	for _, u := range summary.Users {
		table.AddRow(
			u.Username,
			fmt.Sprintf("%d", u.SessionCount),
			fmt.Sprintf("%d", u.TransferCount),
			output.FormatBytes(u.TotalUpload),
			output.FormatBytes(u.TotalDownload),
		)
	}
	return output.PrintTable(os.Stdout, table)
}
