// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/srcpack/srcpack/internal/issue"
	"github.com/srcpack/srcpack/pkg/resolve"
	"github.com/srcpack/srcpack/pkg/stage"
)

type buildOptions struct {
	staging  string
	unprefix string
	fixPerms bool
	metaOut  string
}

func newBuildCommand(app *App) *cobra.Command {
	var (
		rf   resolveFlags
		mf   metaFlags
		opts buildOptions
	)

	cmd := &cobra.Command{
		Use:   "build <entry>",
		Short: "Stage an entry file and everything it references",
		Long: `Resolve the pack: references reachable from an entry file and copy every
mapped file into a staging directory, below the install prefix.

Missing files, empty globs and malformed header lines are reported as
warnings and do not stop the build.`,
		Example: `  srcpack build --staging /tmp/stage bin/tool.sh
  srcpack build -C src --staging out --prefix usr/local --fix-perms bin/tool.sh
  srcpack build --staging out --unprefix usr/local --meta-out out.yaml bin/tool.sh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.staging == "" {
				return usageError("--staging is required")
			}
			attrs, err := mf.attributes()
			if err != nil {
				return err
			}

			s, err := app.newSession(cmd.Context(), &rf)
			if err != nil {
				return app.fail(err, nil)
			}
			if cmd.Flags().Changed("fix-perms") {
				s.cfg.FixPerms = opts.fixPerms
			}

			mapping, err := s.resolve(cmd.Context(), args[0])
			if err != nil {
				return app.fail(err, s)
			}

			mat, err := stage.New(stage.Options{
				Root:         s.root,
				StagingRoot:  opts.staging,
				Prefix:       s.cfg.Prefix,
				EscapePolicy: s.cfg.EscapePolicy,
				Logger:       s.logger,
			})
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}
			report, err := mat.Materialize(cmd.Context(), mapping)
			if err != nil {
				return app.fail(stagingError(err, opts.staging), s)
			}

			if err := s.filter(opts); err != nil {
				return app.fail(err, s)
			}

			if err := s.metadata(cmd.Context(), args[0], attrs); err != nil {
				return app.fail(err, s)
			}
			s.logger.Debug("package metadata", "name", attrs.Name, "version", attrs.Version, "architecture", attrs.Architecture)
			if opts.metaOut != "" {
				if err := writeMeta(opts.metaOut, attrs); err != nil {
					return app.fail(err, s)
				}
			}

			writeSummary(app, mapping, report, mat.Base())
			return nil
		},
	}

	rf.bind(cmd)
	mf.bind(cmd)
	cmd.Flags().StringVarP(&opts.staging, "staging", "s", "", "staging `DIR` files are copied into (required)")
	cmd.Flags().StringVar(&opts.unprefix, "unprefix", "", "move the contents of this staging sub-directory to the staging root")
	cmd.Flags().BoolVar(&opts.fixPerms, "fix-perms", false, "clamp staged permissions to 0755/0644")
	cmd.Flags().StringVar(&opts.metaOut, "meta-out", "", "write package metadata to `FILE` (.yaml, .json or .toml)")
	return cmd
}

// filter runs the post-staging filters. A missing unprefix directory is
// logged and the build continues.
func (s *session) filter(opts buildOptions) error {
	if opts.unprefix != "" {
		err := stage.Unprefix(opts.staging, opts.unprefix)
		switch {
		case errors.Is(err, stage.ErrPrefixDirMissing):
			s.logger.Error("nothing to unprefix", "dir", opts.unprefix, "staging", opts.staging)
		case err != nil:
			return stagingError(err, opts.staging)
		}
	}
	if s.cfg.FixPerms {
		if err := stage.FixPerms(opts.staging); err != nil {
			return stagingError(err, opts.staging)
		}
	}
	return nil
}

// stagingError decorates materializer and filter failures for display.
func stagingError(err error, staging string) error {
	var escape *resolve.PathEscapeError
	if errors.As(err, &escape) {
		return issue.NewErrorContext().
			WithOperation("stage files").
			WithResource(escape.Dest).
			WithIssue(issue.PathEscapeId).
			WithSuggestion("Keep destinations below the prefix or pass --escape-policy warn").
			Wrap(err).
			BuildError()
	}
	id := issue.StagingWriteFailedId
	if errors.Is(err, os.ErrPermission) {
		id = issue.PermissionDeniedId
	}
	return issue.NewErrorContext().
		WithOperation("stage files").
		WithResource(staging).
		WithIssue(id).
		Wrap(err).
		BuildError()
}

func writeSummary(app *App, mapping *resolve.Mapping, report *stage.Report, base string) {
	fmt.Fprintf(app.stdout, "%s staged %d of %d entries into %s\n",
		SuccessStyle.Render("✓"),
		len(report.Copied),
		len(mapping.Entries),
		PathStyle.Render(base),
	)
	if len(report.Excluded) > 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render(fmt.Sprintf("  %d excluded", len(report.Excluded))))
	}
	if len(report.Skipped) > 0 {
		fmt.Fprintln(app.stdout, WarningStyle.Render(fmt.Sprintf("  %d skipped above the prefix", len(report.Skipped))))
	}
	// Escapes are already on the mapping; the report only adds late misses.
	warnings := slices.Clone(mapping.Warnings)
	for _, w := range report.Warnings {
		if w.Kind == resolve.WarnMissingFile {
			warnings = append(warnings, w)
		}
	}
	if line := warningsLine(warnings); line != "" {
		fmt.Fprintln(app.stdout, WarningStyle.Render("  warnings: "+line))
	}
}

func writeMeta(path string, v any) error {
	f, err := formatForFile(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("write metadata").
			WithResource(path).
			Wrap(err).
			BuildError()
	}
	if err := encode(out, f, v); err != nil {
		_ = out.Close()
		return fmt.Errorf("encode metadata: %w", err)
	}
	return out.Close()
}
