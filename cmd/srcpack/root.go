// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the srcpack command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "srcpack",
		Short: "Stage source files for packaging from in-file manifests",
		Long: TitleStyle.Render("srcpack") + SubtitleStyle.Render(" - stage source files from in-file manifests") + `

srcpack reads a header comment at the top of an entry file. Its pack: field
lists the files, directories and globs to ship and where they go. Referenced
files may carry their own pack: fields, which are followed recursively.

` + SubtitleStyle.Render("Example header:") + `
  # title: Deploy helper
  # version: 1.2.0
  # pack: lib/*.sh=share/tool/ README.md=share/doc/tool/ notes.txt=

` + SubtitleStyle.Render("Examples:") + `
  srcpack graph bin/tool.sh                   Show where every file goes
  srcpack build --staging out bin/tool.sh     Copy the files into out/
  srcpack meta --format text bin/tool.sh      Show the package metadata`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configFile, "config", "", "config file (default is $HOME/.config/srcpack/config.cue)")
	rootCmd.PersistentFlags().StringVar(&app.envFile, "env-file", "", "load SRCPACK_* variables from this file instead of ./.env")

	rootCmd.AddCommand(newBuildCommand(app))
	rootCmd.AddCommand(newGraphCommand(app))
	rootCmd.AddCommand(newMetaCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the command's exit code.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}
