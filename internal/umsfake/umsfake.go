// Package umsfake provides an in-memory ums.Service used by tests and by
// "umshook validate" when no real UMS process is configured. It simulates
// Reload by scanning a model directory on disk and Validate by checking
// each loaded file against simple structural rules.
package umsfake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/re-cinq/ums-hooks/internal/ums"
)

// Service is an in-memory stand-in for the UMS.
type Service struct {
	mu        sync.Mutex
	modelDir  string
	resources map[string][]byte
	disposed  bool
}

// New builds a Service that loads files under modelDir as model resources.
func New(modelDir string) *Service {
	return &Service{modelDir: modelDir}
}

// Reload re-reads every file under modelDir into memory.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return fmt.Errorf("umsfake: reload after dispose")
	}

	resources := make(map[string][]byte)
	err := filepath.WalkDir(s.modelDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		rel, relErr := filepath.Rel(s.modelDir, path)
		if relErr != nil {
			rel = path
		}
		resources[rel] = data
		return nil
	})
	if err != nil {
		return fmt.Errorf("umsfake: reload: %w", err)
	}

	s.resources = resources
	return nil
}

// Validate checks every loaded resource is non-empty and UTF-8-ish, and
// flags any resource over 1MiB as a warning. Good enough to exercise the
// four-variant outcome surface without a real metamodel.
func (s *Service) Validate(ctx context.Context) (ums.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ums.ValidationResult{}, fmt.Errorf("umsfake: validate after dispose")
	}
	if s.resources == nil {
		return ums.ValidationResult{}, fmt.Errorf("umsfake: no resources loaded, call Reload first")
	}

	var names []string
	for name := range s.resources {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs, warnings []string
	const warnSize = 1 << 20
	for _, name := range names {
		data := s.resources[name]
		if len(data) == 0 {
			errs = append(errs, fmt.Sprintf("%s: empty model file", name))
			continue
		}
		if !strings.HasSuffix(name, ".model") && !strings.HasSuffix(name, ".txt") {
			warnings = append(warnings, fmt.Sprintf("%s: unrecognized model file extension", name))
		}
		if len(data) > warnSize {
			warnings = append(warnings, fmt.Sprintf("%s: exceeds 1MiB, consider splitting", name))
		}
	}

	return ums.ValidationResult{Errors: errs, Warnings: warnings}, nil
}

// Dispose marks the service unusable. Further Reload/Validate calls error.
func (s *Service) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.resources = nil
	return nil
}

// View returns a snapshot handle over the currently loaded resources.
func (s *Service) View() ums.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fakeView{root: s.rootLocked()}
}

func (s *Service) rootLocked() string {
	var names []string
	for name := range s.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

type fakeView struct {
	root string
}

func (v fakeView) Root() string {
	return v.root
}
