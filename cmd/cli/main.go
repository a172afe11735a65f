package main

import (
	"os"

	"github.com/ecocollect-dev/ecocollect/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
