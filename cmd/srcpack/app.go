// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/srcpack/srcpack/internal/config"
	"github.com/srcpack/srcpack/internal/issue"
	"github.com/srcpack/srcpack/pkg/manifest"
	"github.com/srcpack/srcpack/pkg/resolve"
	"github.com/srcpack/srcpack/pkg/srcpath"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. All command handlers
	// receive an App and write through its streams.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer

		// persistent flags, bound by the root command
		configFile string
		envFile    string
		verbose    bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// session is the per-invocation state shared by build, graph and meta.
	session struct {
		cfg    *config.Config
		root   string
		logger *log.Logger
		cache  *manifest.Cache
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// loadConfig loads the configuration for a run rooted at workDir.
func (a *App) loadConfig(ctx context.Context, workDir string) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: a.configFile,
		WorkDir:        workDir,
		EnvFile:        a.envFile,
	})
	if err != nil {
		var ae *issue.ActionableError
		if errors.As(err, &ae) && ae.Issue == 0 {
			ae.Issue = issue.ConfigLoadFailedId
		}
		return nil, err
	}
	if cfg.UI.Verbose {
		a.verbose = true
	}
	return cfg, nil
}

// newLogger returns a stderr logger honoring log.level and --verbose.
func (a *App) newLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(string(cfg.Log.Level))
	if err != nil {
		level = log.WarnLevel
	}
	if a.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// newSession loads configuration, applies the resolution flags and prepares
// the manifest cache.
func (a *App) newSession(ctx context.Context, rf *resolveFlags) (*session, error) {
	cfg, err := a.loadConfig(ctx, rf.root)
	if err != nil {
		return nil, err
	}
	if err := rf.apply(cfg); err != nil {
		return nil, err
	}

	logger := a.newLogger(cfg)
	cache, err := manifest.NewCache(manifest.NewExtractor(cfg.ManifestOptions()...), cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, root: rf.root, logger: logger, cache: cache}, nil
}

// fsPath maps a manifest path to the file system, relative to the root.
func (s *session) fsPath(p string) string {
	native := filepath.FromSlash(srcpath.Normalize(p))
	if s.root == "" || filepath.IsAbs(native) {
		return native
	}
	return filepath.Join(s.root, native)
}

// checkEntry fails early when the entry file does not exist. The resolver
// would only warn about it.
func (s *session) checkEntry(entry string) error {
	path := s.fsPath(entry)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return issue.NewErrorContext().
			WithOperation("resolve entry file").
			WithResource(path).
			WithIssue(issue.EntryNotFoundId).
			WithSuggestion("Paths are relative to the current directory unless -C is given").
			Wrap(err).
			BuildError()
	case err != nil:
		return issue.NewErrorContext().
			WithOperation("resolve entry file").
			WithResource(path).
			WithIssue(issue.PermissionDeniedId).
			Wrap(err).
			BuildError()
	case info.IsDir():
		return issue.NewErrorContext().
			WithOperation("resolve entry file").
			WithResource(path).
			WithIssue(issue.EntryNotFoundId).
			Wrap(errors.New("entry is a directory")).
			BuildError()
	}
	return nil
}

// resolve builds and resolves the mapping for entry.
func (s *session) resolve(ctx context.Context, entry string) (*resolve.Mapping, error) {
	if err := s.checkEntry(entry); err != nil {
		return nil, err
	}
	builder := resolve.NewBuilder(s.cache, resolve.Options{
		Root:   s.root,
		Only:   !s.cfg.Recurse,
		Logger: s.logger,
	})
	g, err := builder.Build(ctx, entry)
	if err != nil {
		return nil, readError(err)
	}
	return g.Resolve(), nil
}

// readError decorates resolver I/O failures for display.
func readError(err error) error {
	var ioErr *resolve.IOError
	if !errors.As(err, &ioErr) {
		return err
	}
	id := issue.ManifestReadFailedId
	if errors.Is(err, fs.ErrPermission) {
		id = issue.PermissionDeniedId
	}
	return issue.NewErrorContext().
		WithOperation("read manifest").
		WithResource(ioErr.Path).
		WithIssue(id).
		Wrap(err).
		BuildError()
}

// reportFailure writes the suggestions of an actionable error and, in
// verbose mode, its catalog explanation. The headline is printed by fang.
func (a *App) reportFailure(err error, scheme config.ColorScheme) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return
	}
	if ae.Resource != "" && len(ae.Suggestions) > 0 {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("  ✗ ")+PathStyle.Render(ae.Resource))
	}
	for _, s := range ae.Suggestions {
		fmt.Fprintln(a.stderr, WarningStyle.Render("  • ")+s)
	}
	if !a.verbose {
		return
	}
	if catalog := ae.CatalogIssue(); catalog != nil {
		if rendered, rerr := catalog.Render(a.glamourStyle(scheme, a.stderr)); rerr == nil {
			fmt.Fprint(a.stderr, rendered)
		}
	}
}

// glamourStyle picks a glamour style for w. Output that is not the process
// terminal gets the plain "notty" style.
func (a *App) glamourStyle(scheme config.ColorScheme, w io.Writer) string {
	if w != os.Stdout && w != os.Stderr {
		return "notty"
	}
	switch scheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// warningsLine summarizes warnings by kind, e.g. "2 missing-file, 1 empty-glob".
func warningsLine(ws []resolve.Warning) string {
	if len(ws) == 0 {
		return ""
	}
	counts := make(map[resolve.WarningKind]int)
	var order []resolve.WarningKind
	for _, w := range ws {
		if counts[w.Kind] == 0 {
			order = append(order, w.Kind)
		}
		counts[w.Kind]++
	}
	parts := make([]string, 0, len(order))
	for _, k := range order {
		parts = append(parts, fmt.Sprintf("%d %s", counts[k], k))
	}
	return strings.Join(parts, ", ")
}

// fail reports err and marks it with a failure exit code. s may be nil when
// the configuration could not be loaded.
func (a *App) fail(err error, s *session) error {
	scheme := config.ColorSchemeAuto
	if s != nil {
		scheme = s.cfg.UI.ColorScheme
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	a.reportFailure(err, scheme)
	return &ExitError{Code: ExitFailure, Err: err}
}
