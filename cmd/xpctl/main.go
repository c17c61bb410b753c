// Command xpctl is the operator tool for the catchlog XP engine: schema
// migrations, catalog sync, reconciles and level lookups.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(GetExitCode(err))
	}
}
