// Package ums defines the consumer contract this repo requires from the
// Unified Model Store. The UMS itself (model storage, change propagation,
// the metamodel, the diff producer) lives elsewhere; only the interface
// below is defined here, and only an in-memory fake of it ships in this
// repo.
package ums

import "context"

// View is a short-lived handle into the model graph as of the last reload.
// Callers should fetch a view per operation rather than hold one across a
// Reload.
type View interface {
	// Root returns the name of the loaded root resource, or "" if nothing
	// has been loaded yet.
	Root() string
}

// Service is the UMS consumer contract: reload from disk, validate the
// currently loaded model, dispose of resources, and hand out views.
type Service interface {
	// Reload re-reads the model from disk. Any View obtained before Reload
	// returns is stale afterward. This is a documented contract, not
	// something Reload itself enforces: the store cannot enumerate the
	// handles it has issued.
	Reload(ctx context.Context) error

	// Validate runs validation over all currently loaded resources. A
	// failure inside validation is surfaced as a Failure outcome by the
	// caller, never allowed to escape the watcher loop uncaught. Validate
	// itself may still return an error for conditions that prevent
	// validation from running at all (e.g. nothing loaded).
	Validate(ctx context.Context) (ValidationResult, error)

	// Dispose releases resources held by the service. Called once at
	// process teardown.
	Dispose() error

	// View returns a handle sufficient for the read-only test surface.
	View() View
}

// ValidationResult is the UMS's own report of a validation run, translated
// by the watcher into an outcome.Outcome. Kept separate from outcome.Outcome
// so this package has no dependency on the result-serialization format.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether the validation run found no errors.
func (v ValidationResult) Valid() bool {
	return len(v.Errors) == 0
}
