// Package changelog writes the permanent audit records under .ums/: the
// per-commit changelog and the per-merge metadata record. Both go through
// fileutil.AtomicWriteFile so a reader never observes a torn file.
package changelog

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/re-cinq/ums-hooks/internal/fileutil"
)

// NoFileChangesSentinel is written verbatim when the diff producer is
// unavailable or errors.
const NoFileChangesSentinel = "No file changes detected."

// Producer summarizes the files an arbitrary commit touched. The real
// model-diff producer lives outside this repo; a concrete implementation
// backed by git and gitignore-style filtering lives in internal/gitdiff.
type Producer interface {
	FileChanges(commitSHA string) ([]string, error)
}

// Entry is the data a changelog record is built from.
type Entry struct {
	CommitSHA  string
	Branch     string
	AuthorName string
	AuthorMail string
	AuthorDate string
}

func shortSHA(sha string) string {
	if len(sha) < 7 {
		return sha
	}
	return sha[:7]
}

func fileChangesSection(producer Producer, commitSHA string) string {
	if producer == nil {
		return NoFileChangesSentinel
	}
	files, err := producer.FileChanges(commitSHA)
	if err != nil || len(files) == 0 {
		return NoFileChangesSentinel
	}
	var sb []byte
	for i, f := range files {
		if i > 0 {
			sb = append(sb, '\n')
		}
		sb = append(sb, []byte(f)...)
	}
	return string(sb)
}

func render(e Entry, producer Producer) string {
	return fmt.Sprintf(
		"SEMANTIC CHANGELOG\nCommit:     %s\nBranch:     %s\nAuthor:     %s <%s>\nAuthorDate: %s\n\nFILE CHANGES\n%s\n",
		e.CommitSHA, e.Branch, e.AuthorName, e.AuthorMail, e.AuthorDate,
		fileChangesSection(producer, e.CommitSHA),
	)
}

// WriteChangelog writes .ums/changelogs/<shortSha>.txt keyed by the
// 7-character prefix of e.CommitSHA. Called by both the validation watcher
// (provisional SHA) and the post-commit watcher (real SHA); both records are
// kept, each keyed by its own SHA.
func WriteChangelog(repoDir string, e Entry, producer Producer) error {
	path := filepath.Join(fileutil.UMSSubdir(repoDir, "changelogs"), shortSHA(e.CommitSHA)+".txt")
	return fileutil.AtomicWriteFile(path, []byte(render(e, producer)), 0o644)
}

// MergeEntry is the data a merge-metadata record is built from.
type MergeEntry struct {
	MergeCommitSHA string
	SourceBranch   string
	TargetBranch   string
	Valid          bool
	Timestamp      time.Time
}

// WriteMergeMetadata writes .ums/merges/<mergeSha>.metadata. This record is
// permanent: nothing here deletes it, even when result files are cleaned up.
func WriteMergeMetadata(repoDir string, e MergeEntry) error {
	path := filepath.Join(fileutil.UMSSubdir(repoDir, "merges"), e.MergeCommitSHA+".metadata")
	content := fmt.Sprintf(
		"mergeCommitSha: %s\nsourceBranch:   %s\ntargetBranch:   %s\nvalid:          %t\ntimestamp:      %s\n",
		e.MergeCommitSHA, e.SourceBranch, e.TargetBranch, e.Valid, e.Timestamp.UTC().Format(time.RFC3339),
	)
	return fileutil.AtomicWriteFile(path, []byte(content), 0o644)
}
