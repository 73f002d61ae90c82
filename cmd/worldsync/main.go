// Command worldsync loads randomizer rules files and reports which regions
// and locations are in logic for a given inventory.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
