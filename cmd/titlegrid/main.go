package main

import (
	"os"

	"github.com/titlegrid-labs/titlegrid-cli/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
