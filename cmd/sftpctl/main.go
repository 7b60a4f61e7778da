// sftpctl is the admin CLI. It talks to a running sftp-connector over the
// admin HTTP API.
package main

import (
	"os"

	"github.com/hardikhari96/sftp-cloud-connector/cmd/sftpctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
