// Package gitdiff implements the concrete changelog.Producer wired by
// default: it lists the files a commit touched via git diff-tree, then
// filters out anything matching the configured model_ignore_patterns using
// gitignore-style pattern matching.
package gitdiff

import (
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/re-cinq/ums-hooks/internal/gitutil"
)

// Producer lists the model files a commit touched, filtered against a set
// of gitignore-style patterns.
type Producer struct {
	repo    *gitutil.Repo
	ignorer *ignore.GitIgnore
}

// New builds a Producer over repo, ignoring files that match any of
// patterns (model_ignore_patterns in config).
func New(repo *gitutil.Repo, patterns []string) *Producer {
	p := &Producer{repo: repo}
	if len(patterns) > 0 {
		p.ignorer = ignore.CompileIgnoreLines(patterns...)
	}
	return p
}

// FileChanges returns the files changed in commitSHA, excluding anything
// matching the configured ignore patterns.
func (p *Producer) FileChanges(commitSHA string) ([]string, error) {
	files, err := p.repo.FilesChangedInCommit(commitSHA)
	if err != nil {
		return nil, err
	}
	if p.ignorer == nil {
		return files, nil
	}

	var kept []string
	for _, f := range files {
		if p.ignorer.MatchesPath(f) {
			continue
		}
		kept = append(kept, f)
	}
	return kept, nil
}
