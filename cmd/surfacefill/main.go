// Command surfacefill fills surfaces on the software accelerator and
// compares fill strategies.
package main

import (
	"os"

	"github.com/gogpu/surfacefill/cmd/surfacefill/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
