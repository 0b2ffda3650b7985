package main

import (
	"os"

	"github.com/dukerupert/chorely/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
