package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/re-cinq/ums-hooks/internal/fileutil"
	"github.com/re-cinq/ums-hooks/internal/gitdiff"
	"github.com/re-cinq/ums-hooks/internal/gitutil"
	"github.com/re-cinq/ums-hooks/internal/trigger"
	"github.com/re-cinq/ums-hooks/internal/umsfake"
	"github.com/re-cinq/ums-hooks/internal/umslock"
	"github.com/re-cinq/ums-hooks/internal/watch"
)

var allWatcherKinds = []trigger.Kind{
	trigger.KindValidation,
	trigger.KindReload,
	trigger.KindPostCommit,
	trigger.KindMerge,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the four watcher loops against the configured UMS process",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoDir, err := resolveRepo()
		if err != nil {
			return err
		}
		cfg, err := loadAndValidateConfig(configPath)
		if err != nil {
			return err
		}

		watch.ResetActiveStatuses(repoDir, allWatcherKinds)

		pollInterval := cfg.Settings.PollInterval.Duration()
		store := trigger.NewStore(repoDir)
		repo := gitutil.NewRepo(repoDir)
		producer := gitdiff.New(repo, cfg.Settings.ModelIgnorePatterns)
		logMgr := watch.NewLogManager(repoDir)
		defer logMgr.Close()

		svc := umsfake.New(filepath.Join(repoDir, cfg.Settings.ModelDir))
		guard := umslock.NewGuard(svc)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := guard.Reload(ctx); err != nil {
			fileutil.LogError("initial reload failed: %v", err)
		}

		watchers := []*watch.Base{
			watch.NewValidationWatcher(repoDir, pollInterval, store, guard, repo, producer).WithLogManager(logMgr),
			watch.NewReloadWatcher(repoDir, pollInterval, store, guard).WithLogManager(logMgr),
			watch.NewPostCommitWatcher(repoDir, pollInterval, store, repo, producer).WithLogManager(logMgr),
			watch.NewMergeWatcher(repoDir, pollInterval, store, guard, nil).WithLogManager(logMgr),
		}
		for _, w := range watchers {
			w.Start(ctx)
		}

		fmt.Printf("umshook serving %s (poll interval %s)\n", repoDir, pollInterval)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		fmt.Println("shutting down")
		for _, w := range watchers {
			w.Stop()
		}
		if err := guard.Dispose(); err != nil {
			fileutil.LogError("disposing UMS service: %v", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
