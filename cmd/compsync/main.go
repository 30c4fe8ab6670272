package main

import (
	"os"

	"github.com/wonny/compsync/cmd/compsync/commands"
)

// main is the entry point for the compsync CLI
// ⭐ Single CLI entry point: go run ./cmd/compsync [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
