package watch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/re-cinq/ums-hooks/internal/changelog"
	"github.com/re-cinq/ums-hooks/internal/gitutil"
	"github.com/re-cinq/ums-hooks/internal/outcome"
	"github.com/re-cinq/ums-hooks/internal/trigger"
	"github.com/re-cinq/ums-hooks/internal/ums"
)

// currentPID is stamped into every status write so ensureServing's
// already-alive check has a real PID to test, not the zero value.
var currentPID = os.Getpid()

// Guard is the subset of umslock.Guard the watchers depend on, kept narrow
// to avoid an import cycle and to make the watchers trivially testable
// against a fake.
type Guard interface {
	Reload(ctx context.Context) error
	Validate(ctx context.Context) (ums.ValidationResult, error)
}

// MetaSource supplies the commit metadata the changelog writer needs,
// satisfied by *gitutil.Repo in production.
type MetaSource interface {
	CommitMeta(sha string) (gitutil.CommitMeta, error)
}

func toOutcome(r ums.ValidationResult) outcome.Outcome {
	switch {
	case r.Valid() && len(r.Warnings) == 0:
		return outcome.Success()
	case r.Valid():
		return outcome.SuccessWithWarnings(r.Warnings)
	case len(r.Warnings) == 0:
		return outcome.Failure(r.Errors)
	default:
		return outcome.FailureWithWarnings(r.Errors, r.Warnings)
	}
}

func writeChangelogFor(repoDir string, meta MetaSource, producer changelog.Producer, sha, branch string) error {
	cm, err := meta.CommitMeta(sha)
	if err != nil {
		return fmt.Errorf("reading commit metadata: %w", err)
	}
	return changelog.WriteChangelog(repoDir, changelog.Entry{
		CommitSHA:  sha,
		Branch:     branch,
		AuthorName: cm.AuthorName,
		AuthorMail: cm.AuthorEmail,
		AuthorDate: cm.AuthorDate,
	}, producer)
}

// NewValidationWatcher builds the pre-commit watcher: on a ValidationTrigger
// it validates, writes a result, and, if valid, writes a provisional
// changelog keyed by the trigger-provided SHA. The SHA is provisional
// because the commit does not exist yet at pre-commit time; the post-commit
// watcher later writes a second changelog under the real SHA.
func NewValidationWatcher(repoDir string, pollInterval time.Duration, store *trigger.Store, guard Guard, meta MetaSource, producer changelog.Producer) *Base {
	tick := func(ctx context.Context) error {
		t, err := store.CheckAndClearValidationTrigger()
		if err != nil {
			return fmt.Errorf("checking validation trigger: %w", err)
		}
		if t == nil {
			return nil
		}

		_ = WriteStatus(repoDir, trigger.KindValidation, WatcherStatus{State: StateRunning, LastTriggerAt: nowRFC3339(), PID: currentPID})

		out, err := runValidation(ctx, guard)
		if err != nil {
			out = outcome.Failure([]string{fmt.Sprintf("%T: %v", err, err)})
		}

		if werr := store.WriteResult(t.RequestID, out); werr != nil {
			writeWatcherFailure(repoDir, trigger.KindValidation, werr)
			return werr
		}

		if out.IsValid() {
			if cerr := writeChangelogFor(repoDir, meta, producer, t.CommitSHA, t.Branch); cerr != nil {
				writeWatcherFailure(repoDir, trigger.KindValidation, cerr)
				return cerr
			}
		}

		_ = WriteStatus(repoDir, trigger.KindValidation, WatcherStatus{State: StateIdle, LastResultAt: nowRFC3339(), PID: currentPID})
		return nil
	}
	return NewBase("validation", pollInterval, tick)
}

func runValidation(ctx context.Context, guard Guard) (result outcome.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validation panicked: %v", r)
		}
	}()
	vr, verr := guard.Validate(ctx)
	if verr != nil {
		return outcome.Outcome{}, verr
	}
	return toOutcome(vr), nil
}

func writeWatcherFailure(repoDir string, kind trigger.Kind, err error) {
	_ = WriteStatus(repoDir, kind, WatcherStatus{State: StateFailed, Error: err.Error(), LastResultAt: nowRFC3339(), PID: currentPID})
}

// NewReloadWatcher builds the post-checkout watcher: on a ReloadTrigger it
// calls Reload and writes no result. Trigger-file disappearance is the only
// signal the hook side gets.
func NewReloadWatcher(repoDir string, pollInterval time.Duration, store *trigger.Store, guard Guard) *Base {
	tick := func(ctx context.Context) error {
		t, err := store.CheckAndClearReloadTrigger()
		if err != nil {
			return fmt.Errorf("checking reload trigger: %w", err)
		}
		if t == nil {
			return nil
		}
		_ = WriteStatus(repoDir, trigger.KindReload, WatcherStatus{State: StateRunning, LastTriggerAt: nowRFC3339(), PID: currentPID})
		if err := guard.Reload(ctx); err != nil {
			writeWatcherFailure(repoDir, trigger.KindReload, err)
			return err
		}
		_ = WriteStatus(repoDir, trigger.KindReload, WatcherStatus{State: StateIdle, LastResultAt: nowRFC3339(), PID: currentPID})
		return nil
	}
	return NewBase("reload", pollInterval, tick)
}

// NewPostCommitWatcher builds the post-commit watcher: on a PostCommitTrigger
// it writes the permanent changelog keyed by the real commit SHA, superseding
// the provisional one the validation watcher wrote.
func NewPostCommitWatcher(repoDir string, pollInterval time.Duration, store *trigger.Store, meta MetaSource, producer changelog.Producer) *Base {
	tick := func(ctx context.Context) error {
		t, err := store.CheckAndClearPostCommitTrigger()
		if err != nil {
			return fmt.Errorf("checking post-commit trigger: %w", err)
		}
		if t == nil {
			return nil
		}
		_ = WriteStatus(repoDir, trigger.KindPostCommit, WatcherStatus{State: StateRunning, LastTriggerAt: nowRFC3339(), PID: currentPID})
		if cerr := writeChangelogFor(repoDir, meta, producer, t.CommitSHA, t.Branch); cerr != nil {
			writeWatcherFailure(repoDir, trigger.KindPostCommit, cerr)
			return cerr
		}
		_ = WriteStatus(repoDir, trigger.KindPostCommit, WatcherStatus{State: StateIdle, LastResultAt: nowRFC3339(), PID: currentPID})
		return nil
	}
	return NewBase("post-commit", pollInterval, tick)
}

// NewMergeWatcher builds the post-merge watcher: on a MergeTrigger it
// reloads (the merge has already mutated the working tree), validates,
// writes a merge result, and writes a permanent merge metadata record that
// is never deleted, even when the hook cleans up its result files.
func NewMergeWatcher(repoDir string, pollInterval time.Duration, store *trigger.Store, guard Guard, now func() time.Time) *Base {
	if now == nil {
		now = time.Now
	}
	tick := func(ctx context.Context) error {
		t, err := store.CheckAndClearMergeTrigger()
		if err != nil {
			return fmt.Errorf("checking merge trigger: %w", err)
		}
		if t == nil {
			return nil
		}
		_ = WriteStatus(repoDir, trigger.KindMerge, WatcherStatus{State: StateRunning, LastTriggerAt: nowRFC3339(), PID: currentPID})

		if err := guard.Reload(ctx); err != nil {
			writeWatcherFailure(repoDir, trigger.KindMerge, err)
			return err
		}

		out, verr := runValidation(ctx, guard)
		if verr != nil {
			out = outcome.Failure([]string{fmt.Sprintf("%T: %v", verr, verr)})
		}

		if werr := store.WriteMergeResult(t.RequestID, out); werr != nil {
			writeWatcherFailure(repoDir, trigger.KindMerge, werr)
			return werr
		}

		merr := changelog.WriteMergeMetadata(repoDir, changelog.MergeEntry{
			MergeCommitSHA: t.MergeCommitSHA,
			SourceBranch:   t.SourceBranch,
			TargetBranch:   t.TargetBranch,
			Valid:          out.IsValid(),
			Timestamp:      now(),
		})
		if merr != nil {
			writeWatcherFailure(repoDir, trigger.KindMerge, merr)
			return merr
		}

		_ = WriteStatus(repoDir, trigger.KindMerge, WatcherStatus{State: StateIdle, LastResultAt: nowRFC3339(), PID: currentPID})
		return nil
	}
	return NewBase("merge", pollInterval, tick)
}
