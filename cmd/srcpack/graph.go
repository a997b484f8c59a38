// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/srcpack/srcpack/pkg/resolve"
)

func newGraphCommand(app *App) *cobra.Command {
	var (
		rf     resolveFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "graph <entry>",
		Short: "Print the resolved source to destination mapping",
		Long: `Resolve the pack: references reachable from an entry file and print the
mapping without copying anything. Excluded sources are listed with an empty
destination.`,
		Example: `  srcpack graph bin/tool.sh
  srcpack graph -C src --only --format json bin/tool.sh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format, formatYAML, formatJSON, formatTOML, formatText)
			if err != nil {
				return err
			}
			s, err := app.newSession(cmd.Context(), &rf)
			if err != nil {
				return app.fail(err, nil)
			}
			mapping, err := s.resolve(cmd.Context(), args[0])
			if err != nil {
				return app.fail(err, s)
			}
			if f == formatText {
				writeMappingText(app.stdout, mapping)
				return nil
			}
			return encode(app.stdout, f, mapping)
		},
	}

	rf.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "o", string(formatYAML), "output format: yaml, json, toml or text")
	return cmd
}

func writeMappingText(w io.Writer, m *resolve.Mapping) {
	fmt.Fprintln(w, TitleStyle.Render(m.Entry))
	for _, e := range m.Entries {
		dest := PathStyle.Render(e.Dest)
		switch {
		case e.Excluded():
			dest = SubtitleStyle.Render("(excluded)")
		case e.Escapes:
			dest = WarningStyle.Render(e.Dest)
		}
		fmt.Fprintf(w, "  %s -> %s %s\n", e.Source, dest, SubtitleStyle.Render("["+e.Origin+"]"))
	}
	if line := warningsLine(m.Warnings); line != "" {
		fmt.Fprintln(w, WarningStyle.Render("warnings: "+line))
	}
}
