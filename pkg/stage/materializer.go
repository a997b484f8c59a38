// SPDX-License-Identifier: MPL-2.0

package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/srcpack/srcpack/pkg/resolve"
	"github.com/srcpack/srcpack/pkg/srcpath"
)

type (
	// Options configures a Materializer.
	Options struct {
		// Root is the directory mapping sources are relative to. Empty means
		// the process working directory.
		Root string
		// StagingRoot is the top of the staging tree. Required.
		StagingRoot string
		// Prefix is the install prefix below StagingRoot, e.g. "usr/share/app".
		Prefix string
		// EscapePolicy decides what happens to destinations above Prefix.
		EscapePolicy EscapePolicy
		// Logger receives per-file progress. Nil discards it.
		Logger *log.Logger
	}

	// Materializer writes resolved mappings into a staging tree.
	Materializer struct {
		root   string
		base   string
		policy EscapePolicy
		logger *log.Logger
	}

	// File is one written staging entry.
	File struct {
		Source string `json:"source" yaml:"source" toml:"source"`
		// Dest is the written path relative to the prefix root.
		Dest string `json:"dest" yaml:"dest" toml:"dest"`
		Dir  bool   `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty"`
	}

	// Report summarizes one Materialize call.
	Report struct {
		Copied []File `json:"copied" yaml:"copied" toml:"copied"`
		// Skipped holds escaping pairs dropped by EscapeSkip.
		Skipped []resolve.Edge `json:"skipped,omitempty" yaml:"skipped,omitempty" toml:"skipped,omitempty"`
		// Excluded lists sources suppressed by an empty destination.
		Excluded []string `json:"excluded,omitempty" yaml:"excluded,omitempty" toml:"excluded,omitempty"`
		// Missing lists sources that did not exist at copy time.
		Missing []string `json:"missing,omitempty" yaml:"missing,omitempty" toml:"missing,omitempty"`
		// Duplicates counts pairs reached more than once.
		Duplicates int               `json:"duplicates" yaml:"duplicates" toml:"duplicates"`
		Warnings   []resolve.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty" toml:"warnings,omitempty"`
	}
)

// New creates a Materializer.
func New(opts Options) (*Materializer, error) {
	if opts.StagingRoot == "" {
		return nil, ErrNoStagingRoot
	}
	if err := opts.EscapePolicy.Validate(); err != nil {
		return nil, err
	}
	policy := opts.EscapePolicy
	if policy == "" {
		policy = EscapeWarn
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Materializer{
		root:   opts.Root,
		base:   filepath.Join(opts.StagingRoot, filepath.FromSlash(opts.Prefix)),
		policy: policy,
		logger: logger,
	}, nil
}

// Base returns the directory destinations are written under.
func (m *Materializer) Base() string {
	return m.base
}

// Materialize copies every non-excluded pair of mapping into the staging
// tree, each distinct (source, dest) pair at most once. Sources missing at
// copy time are reported and skipped. The partial tree is left in place when
// an error is returned.
func (m *Materializer) Materialize(ctx context.Context, mapping *resolve.Mapping) (*Report, error) {
	report := &Report{}
	seen := make(map[resolve.Edge]struct{}, len(mapping.Entries))
	excluded := make(map[string]struct{})

	for _, e := range mapping.Entries {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("materialize: %w", err)
		}

		if e.Excluded() {
			if _, dup := excluded[e.Source]; !dup {
				excluded[e.Source] = struct{}{}
				report.Excluded = append(report.Excluded, e.Source)
				m.logger.Debug("excluded", "path", e.Source, "origin", e.Origin)
			}
			continue
		}

		pair := resolve.Edge{Source: e.Source, Dest: e.Dest}
		if _, dup := seen[pair]; dup {
			report.Duplicates++
			continue
		}
		seen[pair] = struct{}{}

		if err := m.place(pair, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// place writes a single pair.
func (m *Materializer) place(pair resolve.Edge, report *Report) error {
	dest := pair.Dest
	if srcpath.IsDirTarget(dest) {
		dest += srcpath.Base(pair.Source)
	}

	if srcpath.Escapes(dest) {
		w := resolve.Warning{Kind: resolve.WarnPathEscape, Origin: pair.Source, Path: dest}
		switch m.policy {
		case EscapeError:
			return &resolve.PathEscapeError{Source: pair.Source, Dest: dest}
		case EscapeSkip:
			w.Message = "skipping destination above the prefix root"
			report.Skipped = append(report.Skipped, pair)
			report.Warnings = append(report.Warnings, w)
			m.logger.Warn(w.Message, "path", pair.Source, "dest", dest)
			return nil
		default:
			w.Message = "writing destination above the prefix root"
			report.Warnings = append(report.Warnings, w)
			m.logger.Warn(w.Message, "path", pair.Source, "dest", dest)
		}
	}

	src := m.fsPath(pair.Source)
	info, err := os.Stat(src)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		report.Missing = append(report.Missing, pair.Source)
		report.Warnings = append(report.Warnings, resolve.Warning{
			Kind: resolve.WarnMissingFile, Path: pair.Source, Message: "source still missing",
		})
		m.logger.Info("source still missing", "path", pair.Source)
		return nil
	case err != nil:
		return &resolve.IOError{Op: "stat", Path: src, Err: err}
	}

	target := filepath.Join(m.base, filepath.FromSlash(dest))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &CopyError{Source: src, Dest: target, Err: err}
	}

	if info.IsDir() {
		err = copyDir(src, target)
	} else {
		err = copyFile(src, target)
	}
	if err != nil {
		return &CopyError{Source: src, Dest: target, Err: err}
	}

	report.Copied = append(report.Copied, File{Source: pair.Source, Dest: dest, Dir: info.IsDir()})
	m.logger.Debug("copied", "path", pair.Source, "dest", dest)
	return nil
}

func (m *Materializer) fsPath(p string) string {
	native := filepath.FromSlash(p)
	if m.root == "" || filepath.IsAbs(native) {
		return native
	}
	return filepath.Join(m.root, native)
}
