// create-at3-app scaffolds new Next.js projects on the AT3 stack.
package main

import (
	"os"

	"github.com/at3-stack/at3/internal/cli/create"
)

func main() {
	if err := create.Execute(); err != nil {
		os.Exit(1)
	}
}
