// Command ecmacore runs ECMAScript source text against the engine core.
package main

import (
	"os"

	"github.com/novabit/ecmacore/cmd/ecmacore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
