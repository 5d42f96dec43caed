// at3t upgrades existing Next.js projects to the AT3 stack.
package main

import (
	"os"

	"github.com/at3-stack/at3/internal/cli/toolkit"
)

func main() {
	if err := toolkit.Execute(); err != nil {
		os.Exit(1)
	}
}
