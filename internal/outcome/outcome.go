// Package outcome implements the four-variant validation result: Success,
// SuccessWithWarnings, Failure, FailureWithWarnings. The structured JSON form
// is identical in shape across all four variants, and the decode path reads
// all three fields before branching on validity: a failure-path decoder that
// only looks at errors silently drops warnings, which has bitten before.
package outcome

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Variant names the outcome's shape. It is never itself serialized; it is
// reconstructed on decode from (valid, len(warnings)>0).
type Variant string

const (
	VariantSuccess             Variant = "success"
	VariantSuccessWithWarnings Variant = "success_with_warnings"
	VariantFailure             Variant = "failure"
	VariantFailureWithWarnings Variant = "failure_with_warnings"
)

// Outcome is an immutable validation result.
type Outcome struct {
	variant  Variant
	errors   []string
	warnings []string
}

// Success builds a valid outcome with no errors and no warnings.
func Success() Outcome {
	return Outcome{variant: VariantSuccess}
}

// SuccessWithWarnings builds a valid outcome with one or more warnings.
func SuccessWithWarnings(warnings []string) Outcome {
	return Outcome{variant: VariantSuccessWithWarnings, warnings: copyOf(warnings)}
}

// Failure builds an invalid outcome with one or more errors and no warnings.
func Failure(errors []string) Outcome {
	return Outcome{variant: VariantFailure, errors: copyOf(errors)}
}

// FailureWithWarnings builds an invalid outcome with errors and warnings.
func FailureWithWarnings(errors, warnings []string) Outcome {
	return Outcome{variant: VariantFailureWithWarnings, errors: copyOf(errors), warnings: copyOf(warnings)}
}

func copyOf(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// IsValid reports whether this outcome represents a passing validation.
func (o Outcome) IsValid() bool {
	return o.variant == VariantSuccess || o.variant == VariantSuccessWithWarnings
}

// HasErrors reports whether this outcome carries any errors.
func (o Outcome) HasErrors() bool {
	return len(o.errors) > 0
}

// HasWarnings reports whether this outcome carries any warnings, regardless
// of validity. Invalid outcomes can carry warnings too.
func (o Outcome) HasWarnings() bool {
	return len(o.warnings) > 0
}

// Errors returns the outcome's errors, or nil if none.
func (o Outcome) Errors() []string {
	return copyOf(o.errors)
}

// Warnings returns the outcome's warnings, or nil if none.
func (o Outcome) Warnings() []string {
	return copyOf(o.warnings)
}

// Variant reports which of the four shapes this outcome is.
func (o Outcome) Variant() Variant {
	return o.variant
}

// structured is the on-disk JSON shape, identical for all four variants.
type structured struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// MarshalJSON encodes the structured form.
func (o Outcome) MarshalJSON() ([]byte, error) {
	s := structured{
		Valid:    o.IsValid(),
		Errors:   o.errors,
		Warnings: o.warnings,
	}
	if s.Errors == nil {
		s.Errors = []string{}
	}
	if s.Warnings == nil {
		s.Warnings = []string{}
	}
	return json.Marshal(s)
}

// UnmarshalJSON decodes the structured form. All three fields are read
// before any branch on validity, so warnings survive on the failure path.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s structured
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding outcome: %w", err)
	}

	errs := s.Errors
	warns := s.Warnings

	switch {
	case s.Valid && len(warns) == 0:
		*o = Success()
	case s.Valid && len(warns) > 0:
		*o = SuccessWithWarnings(warns)
	case !s.Valid && len(warns) == 0:
		*o = Failure(errs)
	default:
		*o = FailureWithWarnings(errs, warns)
	}
	return nil
}

// Text renders the human-readable form written alongside the structured
// form. Hook scripts grep this for the literal token PASSED/FAILED rather
// than parsing it.
func (o Outcome) Text() string {
	var sb strings.Builder
	if o.IsValid() {
		sb.WriteString("PASSED\n")
	} else {
		sb.WriteString("FAILED\n")
	}

	if len(o.errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range o.errors {
			sb.WriteString("  - " + e + "\n")
		}
	}
	if len(o.warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range o.warnings {
			sb.WriteString("  - " + w + "\n")
		}
	}
	return sb.String()
}
