package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/re-cinq/ums-hooks/internal/trigger"
	"github.com/re-cinq/ums-hooks/internal/watch"
)

var (
	statusFollow   bool
	statusInterval time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "show the liveness of the four watchers",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoDir, err := resolveRepo()
		if err != nil {
			return err
		}
		if !statusFollow {
			return renderStatus(os.Stdout, repoDir)
		}
		return followStatus(os.Stdout, repoDir)
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&statusFollow, "follow", "f", false, "redraw the status view on an interval")
	statusCmd.Flags().DurationVarP(&statusInterval, "interval", "n", time.Second, "redraw interval when following")
	rootCmd.AddCommand(statusCmd)
}

func followStatus(w io.Writer, repoDir string) error {
	for {
		fmt.Fprint(w, "\033[H\033[2J")
		if err := renderStatus(w, repoDir); err != nil {
			return err
		}
		time.Sleep(statusInterval)
	}
}

func renderStatus(w io.Writer, repoDir string) error {
	fmt.Fprintf(w, "%sumshook status%s  %s\n\n", ansiCyan, ansiReset, repoDir)
	for _, kind := range allWatcherKinds {
		st, err := watch.ReadStatus(repoDir, kind)
		if err != nil {
			return err
		}
		renderWatcherLine(w, kind, st)
	}
	return nil
}

func renderWatcherLine(w io.Writer, kind trigger.Kind, st *watch.WatcherStatus) {
	state := "unknown"
	var lastTrigger, lastResult, errMsg string
	if st != nil {
		state = st.State
		lastTrigger = st.LastTriggerAt
		lastResult = st.LastResultAt
		errMsg = st.Error
		if watch.IsActiveState(state) && !watch.IsProcessAlive(st.PID) {
			state = "failed"
			errMsg = "stale: owning process is not running"
		}
	}
	symbol, color := stateDisplay(state)

	fmt.Fprintf(w, "%s%-3s%s %-12s state=%-8s", color, symbol, ansiReset, kind, state)
	if lastTrigger != "" {
		fmt.Fprintf(w, " last_trigger=%s", lastTrigger)
	}
	if lastResult != "" {
		fmt.Fprintf(w, " last_result=%s", lastResult)
	}
	fmt.Fprintln(w)
	if errMsg != "" {
		fmt.Fprintf(w, "    %s%s%s\n", ansiRed, errMsg, ansiReset)
	}
}
