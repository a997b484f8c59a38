// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/srcpack/srcpack/internal/config"
)

const formatCUE outputFormat = "cue"

// newConfigCommand creates the `srcpack config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage srcpack configuration",
		Long: `Manage srcpack configuration.

Configuration is read from ./config.cue or, when absent, from:
  - Linux: ~/.config/srcpack/config.cue
  - macOS: ~/Library/Application Support/srcpack/config.cue
  - Windows: %APPDATA%\srcpack\config.cue

SRCPACK_* environment variables (for example SRCPACK_ESCAPE_POLICY) override
file values and may be set in a .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format, formatCUE, formatYAML, formatJSON, formatTOML)
			if err != nil {
				return err
			}
			cfg, err := app.loadConfig(cmd.Context(), "")
			if err != nil {
				return app.fail(err, nil)
			}
			if f == formatCUE {
				fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
				return nil
			}
			return encode(app.stdout, f, cfg)
		},
	}
	showCmd.Flags().StringVarP(&format, "format", "o", string(formatCUE), "output format: cue, yaml, json or toml")
	cfgCmd.AddCommand(showCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig()
			if err != nil {
				return app.fail(err, nil)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s config file already exists: %s\n", WarningStyle.Render("!"), PathStyle.Render(path))
				return nil
			}
			fmt.Fprintf(app.stdout, "%s created %s\n", SuccessStyle.Render("✓"), PathStyle.Render(path))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.configFile
			if path == "" {
				p, err := config.ConfigFilePath()
				if err != nil {
					return app.fail(err, nil)
				}
				path = p
			}
			fmt.Fprintln(app.stdout, path)
			if _, err := os.Stat(path); err != nil {
				fmt.Fprintln(app.stderr, SubtitleStyle.Render("(file does not exist, defaults are used)"))
			}
			return nil
		},
	})

	return cfgCmd
}
