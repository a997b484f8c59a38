// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/srcpack/srcpack/internal/issue"
	"github.com/srcpack/srcpack/pkg/pkgmeta"
)

func newMetaCommand(app *App) *cobra.Command {
	var (
		rf     resolveFlags
		mf     metaFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "meta <entry>",
		Short: "Print the package metadata taken from an entry header",
		Long: `Read the header of an entry file and print the package attributes it
provides. Attributes given as flags win over the header.`,
		Example: `  srcpack meta bin/tool.sh
  srcpack meta --version 2.0 --format json bin/tool.sh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format, formatYAML, formatJSON, formatTOML, formatText)
			if err != nil {
				return err
			}
			attrs, err := mf.attributes()
			if err != nil {
				return err
			}
			s, err := app.newSession(cmd.Context(), &rf)
			if err != nil {
				return app.fail(err, nil)
			}
			if err := s.metadata(cmd.Context(), args[0], attrs); err != nil {
				return app.fail(err, s)
			}

			if f != formatText {
				return encode(app.stdout, f, attrs)
			}
			out, err := glamour.Render(attrs.Markdown(), app.glamourStyle(s.cfg.UI.ColorScheme, app.stdout))
			if err != nil {
				return fmt.Errorf("render metadata: %w", err)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}

	rf.bind(cmd)
	mf.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "o", string(formatYAML), "output format: yaml, json, toml or text")
	return cmd
}

// metadata fills attrs from the header of entry.
func (s *session) metadata(ctx context.Context, entry string, attrs *pkgmeta.Attributes) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkEntry(entry); err != nil {
		return err
	}
	path := s.fsPath(entry)
	rec, err := s.cache.Extract(path)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("read manifest").
			WithResource(path).
			WithIssue(issue.ManifestReadFailedId).
			Wrap(err).
			BuildError()
	}
	for _, line := range rec.Malformed {
		s.logger.Warn("ignoring header line", "path", entry, "line", line)
	}
	pkgmeta.Apply(attrs, rec)
	return nil
}
