// Command umshook bridges version-control hooks with a long-lived Unified
// Model Store process.
package main

import (
	"fmt"
	"os"

	"github.com/re-cinq/ums-hooks/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
