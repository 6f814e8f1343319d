package main

import (
	"os"

	"github.com/theapemachine/jobfinder-mcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
