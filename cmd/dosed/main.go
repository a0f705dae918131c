package main

import (
	"fmt"
	"os"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := Execute(os.Args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "dosed: %v\n", err)
		os.Exit(1)
	}
}
