// Package cli wires the umshook binary's cobra command tree: install,
// serve, status, validate, logs, version, and the hidden internal-trigger
// / internal-await pair the generated hook scripts invoke. Each subcommand
// registers itself onto rootCmd from its own file's init().
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the umshook release string printed by the version command.
const Version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "umshook",
	Short: "umshook bridges git hooks and a long-lived UMS process",
	Long: "umshook coordinates version-control hooks with a long-lived Unified Model\n" +
		"Store process through on-disk trigger and result files, so validation,\n" +
		"reload, and changelog generation run out-of-process from git itself.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "path", "p", "ums-hooks.yaml", "path to ums-hooks.yaml")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the umshook version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("umshook " + Version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
