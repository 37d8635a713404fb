// Command slanotifier runs the SLA notification pipeline over helpdesk
// exports, either once from the command line or as a service.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
