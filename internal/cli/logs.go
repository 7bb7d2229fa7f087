package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/re-cinq/ums-hooks/internal/watch"
)

var (
	logsFollow bool
	logsTail   int
)

var logsCmd = &cobra.Command{
	Use:   "logs <watcher>",
	Short: "tail a watcher's log file (validation, reload, post-commit, merge)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !isKnownWatcherName(name) {
			return fmt.Errorf("unknown watcher %q, want one of validation, reload, post-commit, merge", name)
		}

		repoDir, err := resolveRepo()
		if err != nil {
			return err
		}
		path := watch.NewLogManager(repoDir).LogPath(name)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("no log file for %s yet: %w", name, err)
		}

		tailArgs := []string{"-n", strconv.Itoa(logsTail)}
		if logsFollow {
			tailArgs = append(tailArgs, "-f")
		}
		tailArgs = append(tailArgs, path)

		c := exec.Command("tail", tailArgs...)
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	},
}

func isKnownWatcherName(name string) bool {
	for _, k := range allWatcherKinds {
		if string(k) == name {
			return true
		}
	}
	return false
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "follow the log file as it grows")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "number of trailing lines to show")
	rootCmd.AddCommand(logsCmd)
}
