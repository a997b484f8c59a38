// SPDX-License-Identifier: MPL-2.0

package stage

import (
	"errors"
	"fmt"

	"github.com/srcpack/srcpack/pkg/resolve"
)

// Escape policies for destinations that leave the prefix root.
const (
	// EscapeWarn logs a warning and writes the file anyway.
	EscapeWarn EscapePolicy = "warn"
	// EscapeSkip logs a warning and does not write the file.
	EscapeSkip EscapePolicy = "skip"
	// EscapeError aborts materialization with a *resolve.PathEscapeError.
	EscapeError EscapePolicy = "error"
)

var (
	// ErrInvalidEscapePolicy is returned for unknown EscapePolicy values.
	ErrInvalidEscapePolicy = errors.New("invalid escape policy")
	// ErrNoStagingRoot is returned when a Materializer has no staging root.
	ErrNoStagingRoot = errors.New("staging root not set")
	// ErrPrefixDirMissing is returned by Unprefix when the sub-directory to
	// hoist does not exist in the staging tree.
	ErrPrefixDirMissing = errors.New("prefix directory doesn't exist in staging path")
)

type (
	// EscapePolicy selects what happens to a destination above the prefix root.
	EscapePolicy string

	// InvalidEscapePolicyError is returned when an EscapePolicy value is not
	// one of the known policies.
	InvalidEscapePolicyError struct {
		Value EscapePolicy
	}

	// CopyError reports a failed write into the staging tree.
	CopyError struct {
		Source string
		Dest   string
		Err    error
	}
)

// EscapePolicies returns the known policies in display order.
func EscapePolicies() []EscapePolicy {
	return []EscapePolicy{EscapeWarn, EscapeSkip, EscapeError}
}

// Validate returns an *InvalidEscapePolicyError for unknown values. The empty
// policy is valid and means EscapeWarn.
func (p EscapePolicy) Validate() error {
	switch p {
	case "", EscapeWarn, EscapeSkip, EscapeError:
		return nil
	}
	return &InvalidEscapePolicyError{Value: p}
}

// IsValid reports whether Validate accepts p.
func (p EscapePolicy) IsValid() bool {
	return p.Validate() == nil
}

// Error implements the error interface.
func (e *InvalidEscapePolicyError) Error() string {
	return fmt.Sprintf("invalid escape policy %q (valid: warn, skip, error)", e.Value)
}

// Unwrap returns ErrInvalidEscapePolicy.
func (e *InvalidEscapePolicyError) Unwrap() error {
	return ErrInvalidEscapePolicy
}

// Error implements the error interface.
func (e *CopyError) Error() string {
	return fmt.Sprintf("copy %s to %s: %v", e.Source, e.Dest, e.Err)
}

// Unwrap exposes resolve.ErrIO and the underlying cause.
func (e *CopyError) Unwrap() []error {
	return []error{resolve.ErrIO, e.Err}
}
