package main

import (
	"fmt"
	"os"

	"github.com/iapp-technology/chinda-eval/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chinda-eval: %v\n", err)
		os.Exit(1)
	}
}
