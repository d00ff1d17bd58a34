// Command catalogctl converts, compares and pushes PlayFab catalog files
// without running the server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
