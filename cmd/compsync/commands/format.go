package commands

import (
	"fmt"
)

// Console helpers shared by the long-running commands.
// extract keeps stdout for the summary only and does not use these.

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}
