package main

import (
	"fmt"
	"os"

	"github.com/mlsuite/gorl/benchmarks"
)

// main entry point to all the benchmarks
func main() {
	rootCommand := benchmarks.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
