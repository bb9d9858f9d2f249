// Command lookahead runs and inspects resumable best-first game searches.
package main

import (
	"context"
	"os"

	"github.com/roach88/lookahead/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
