package main

import (
	"os"

	"github.com/lanebid/drayage-portal/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
