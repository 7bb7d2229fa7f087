package cli

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/re-cinq/ums-hooks/internal/gitutil"
	"github.com/re-cinq/ums-hooks/internal/outcome"
	"github.com/re-cinq/ums-hooks/internal/trigger"
	"github.com/re-cinq/ums-hooks/internal/watch"
)

// internalTriggerCmd and internalAwaitCmd are the hidden commands the
// generated hook scripts invoke (internal/hooks). They are not meant to be
// run by a human, so both are hidden from --help.
var internalTriggerCmd = &cobra.Command{
	Use:    "internal-trigger <hookname>",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hookName := args[0]

		repoDir, err := resolveRepo()
		if err != nil {
			return err
		}
		repo := gitutil.NewRepo(repoDir)
		branch, err := repo.CurrentBranch()
		if err != nil {
			branch = "HEAD"
		}

		store := trigger.NewStore(repoDir)
		var requestID string

		switch hookName {
		case "pre-commit":
			// HEAD has no commit yet on a repo's very first commit; that is
			// a legitimate state, not a trigger-creation failure, so the
			// provisional SHA is simply empty rather than blocking the
			// commit.
			sha, _ := repo.HeadCommit()
			requestID, err = store.CreateValidationTrigger(sha, branch)
		case "post-checkout":
			err = store.CreateReloadTrigger(branch)
		case "post-commit":
			sha, serr := repo.HeadCommit()
			if serr != nil {
				return fmt.Errorf("reading HEAD: %w", serr)
			}
			err = store.CreatePostCommitTrigger(sha, branch)
		case "post-merge":
			sha, serr := repo.HeadCommit()
			if serr != nil {
				return fmt.Errorf("reading HEAD: %w", serr)
			}
			source := mergeSourceBranch(repo, sha)
			requestID, err = store.CreateMergeTrigger(sha, source, branch)
		default:
			return fmt.Errorf("unknown hook %q", hookName)
		}
		if err != nil {
			return err
		}

		ensureServing(repoDir)

		if requestID != "" {
			fmt.Println(requestID)
		}
		return nil
	},
}

var mergeSubjectPattern = regexp.MustCompile(`Merge branch '([^']+)'`)

// mergeSourceBranch recovers the source branch name from git's standard
// merge commit subject ("Merge branch 'feature' into main"). Returns
// "unknown" when the subject doesn't match, e.g. a squash merge.
func mergeSourceBranch(repo *gitutil.Repo, mergeSHA string) string {
	subject, err := repo.Subject(mergeSHA)
	if err != nil {
		return "unknown"
	}
	m := mergeSubjectPattern.FindStringSubmatch(subject)
	if m == nil {
		return "unknown"
	}
	return m[1]
}

// ensureServing spawns a detached `umshook serve` if no watcher looks alive
// for this repo: locate its own binary, strip any inherited TTY-attached
// environment, detach the process group, and release it so it outlives the
// hook process.
func ensureServing(repoDir string) {
	for _, kind := range allWatcherKinds {
		st, err := watch.ReadStatus(repoDir, kind)
		if err == nil && st != nil && st.PID > 0 && watch.IsProcessAlive(st.PID) {
			return
		}
	}

	self, err := os.Executable()
	if err != nil {
		return
	}
	cmd := exec.Command(self, "serve", "--path", configPath)
	cmd.Dir = repoDir
	cmd.Env = filterOutEnv(os.Environ(), "CLAUDECODE")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return
	}
	_ = cmd.Process.Release()
}

func filterOutEnv(env []string, prefixes ...string) []string {
	var out []string
	for _, kv := range env {
		skip := false
		for _, p := range prefixes {
			if strings.HasPrefix(kv, p+"=") {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, kv)
		}
	}
	return out
}

var internalAwaitCmd = &cobra.Command{
	Use:    "internal-await <hookname> <requestId> <timeoutSeconds>",
	Hidden: true,
	Args:   cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		hookName, requestID := args[0], args[1]
		timeoutSecs, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", args[2], err)
		}

		repoDir, err := resolveRepo()
		if err != nil {
			return err
		}
		cfg, err := loadAndValidateConfig(configPath)
		if err != nil {
			return err
		}
		store := trigger.NewStore(repoDir)

		deadline := time.Now().Add(time.Duration(timeoutSecs) * time.Second)
		pollInterval := cfg.Settings.PollInterval.Duration()

		for time.Now().Before(deadline) {
			if store.ResultExists(requestID) {
				var out outcome.Outcome
				if ok, err := store.ReadResult(requestID, &out); err == nil && ok {
					store.DeleteResult(requestID)
					if !out.IsValid() {
						fmt.Fprint(os.Stderr, out.Text())
						return fmt.Errorf("%s failed validation", hookName)
					}
					return nil
				}
			}
			time.Sleep(pollInterval)
		}

		fmt.Fprintf(os.Stderr, "umshook: %s timed out waiting for a result after %ds\n", hookName, timeoutSecs)
		if cfg.Settings.FailOpen {
			return nil
		}
		return fmt.Errorf("%s timed out", hookName)
	},
}

func init() {
	internalTriggerCmd.SilenceUsage = true
	internalTriggerCmd.SilenceErrors = true
	internalAwaitCmd.SilenceUsage = true
	internalAwaitCmd.SilenceErrors = true
	rootCmd.AddCommand(internalTriggerCmd, internalAwaitCmd)
}
