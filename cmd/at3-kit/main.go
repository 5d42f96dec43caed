// at3-kit adds AT3 stack integrations to existing Next.js projects.
package main

import (
	"os"

	"github.com/at3-stack/at3/internal/cli/kit"
)

func main() {
	if err := kit.Execute(); err != nil {
		os.Exit(1)
	}
}
