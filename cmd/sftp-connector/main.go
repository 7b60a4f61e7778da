// sftp-connector is the server binary: the SFTP endpoint, the admin API and
// the metrics endpoint in one process.
package main

import (
	"os"

	"github.com/hardikhari96/sftp-cloud-connector/cmd/sftp-connector/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
