package main

import (
	"fmt"
	"os"

	"github.com/dshills/questlog/internal/cli"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := cli.Execute(version, buildTime); err != nil {
		fmt.Fprintf(os.Stderr, "questlog: %v\n", err)
		os.Exit(1)
	}
}
