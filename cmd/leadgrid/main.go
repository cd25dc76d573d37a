// Command leadgrid scrapes, enriches, exports and serves B2B industrial
// leads.
package main

import (
	"os"

	"github.com/forgelabs/leadgrid/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
