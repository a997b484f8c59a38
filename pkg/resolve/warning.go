// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
)

// Warning kinds. None of them stops a resolution run.
const (
	// WarnMissingFile: a referenced path does not exist.
	WarnMissingFile WarningKind = "missing-file"
	// WarnEmptyGlob: a glob directive matched nothing.
	WarnEmptyGlob WarningKind = "empty-glob"
	// WarnPathEscape: a destination normalizes to a path above the prefix root.
	WarnPathEscape WarningKind = "path-escape"
	// WarnMalformed: a header line or directive could not be parsed.
	WarnMalformed WarningKind = "malformed-manifest"
)

var (
	// ErrIO is the sentinel wrapped by IOError.
	ErrIO = errors.New("i/o failure")
	// ErrPathEscape is the sentinel wrapped by PathEscapeError.
	ErrPathEscape = errors.New("destination escapes the prefix root")
)

type (
	// WarningKind classifies a Warning.
	WarningKind string

	// Warning is a recoverable condition met while resolving or staging.
	Warning struct {
		Kind WarningKind `json:"kind" yaml:"kind" toml:"kind"`
		// Origin is the file whose directive caused the warning, if any.
		Origin string `json:"origin,omitempty" yaml:"origin,omitempty" toml:"origin,omitempty"`
		// Path is the offending path, pattern or line.
		Path    string `json:"path" yaml:"path" toml:"path"`
		Message string `json:"message" yaml:"message" toml:"message"`
	}

	// IOError reports a read or write failure that aborts a run. Missing
	// files are not IOErrors.
	IOError struct {
		Op   string
		Path string
		Err  error
	}

	// PathEscapeError is returned when a destination leaving the prefix root
	// is rejected by the escape policy.
	PathEscapeError struct {
		Source string
		Dest   string
	}
)

// String renders the warning on one line.
func (w Warning) String() string {
	if w.Origin != "" {
		return fmt.Sprintf("%s: %s (%s, from %s)", w.Kind, w.Message, w.Path, w.Origin)
	}
	return fmt.Sprintf("%s: %s (%s)", w.Kind, w.Message, w.Path)
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both ErrIO and the underlying cause to errors.Is/As.
func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// Error implements the error interface.
func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("%s -> %s: destination escapes the prefix root", e.Source, e.Dest)
}

// Unwrap returns ErrPathEscape.
func (e *PathEscapeError) Unwrap() error {
	return ErrPathEscape
}
