package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/re-cinq/ums-hooks/internal/config"
)

// findGitRoot walks upward from dir looking for a .git entry, a bare-bones
// discovery that avoids shelling out to git rev-parse --show-toplevel.
func findGitRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	for {
		if info, err := os.Stat(filepath.Join(abs, ".git")); err == nil && info != nil {
			return abs, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("no .git directory found above %s", dir)
		}
		abs = parent
	}
}

// resolveRepo finds the repository root starting from the current
// directory, used when no explicit repo path is given on the command line.
func resolveRepo() (string, error) {
	return findGitRoot(".")
}

// loadAndValidateConfig reads and validates path, folding every
// accumulated validation error into one returned error.
func loadAndValidateConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		msg := "invalid configuration:"
		for _, e := range errs {
			msg += "\n  - " + e.Error()
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return cfg, nil
}
