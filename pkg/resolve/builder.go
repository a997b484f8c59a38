// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/srcpack/srcpack/pkg/manifest"
	"github.com/srcpack/srcpack/pkg/srcpath"
)

type (
	// Options configures a Builder.
	Options struct {
		// Root is the directory relative manifest paths are resolved against.
		// Empty means the process working directory.
		Root string
		// Only restricts the run to the entry file's own directives; referenced
		// files are mapped but not parsed.
		Only bool
		// Logger receives warnings as they occur. Nil discards them.
		Logger *log.Logger
	}

	// Builder constructs the file graph for an entry file.
	Builder struct {
		manifests manifest.Source
		root      string
		only      bool
		logger    *log.Logger
	}
)

// NewBuilder creates a Builder reading headers through src.
func NewBuilder(src manifest.Source, opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Builder{
		manifests: src,
		root:      opts.Root,
		only:      opts.Only,
		logger:    logger,
	}
}

// Build resolves every file reachable from entry. Origins are processed from
// an explicit stack in depth-first pre-order, each path at most once, so
// reference cycles terminate. Missing files, empty globs and malformed
// directives are recorded as warnings; only I/O failures abort the run.
func (b *Builder) Build(ctx context.Context, entry string) (*Graph, error) {
	entry = srcpath.Normalize(entry)
	if entry == "" {
		return nil, fmt.Errorf("resolve: %w", ErrEmptySource)
	}

	g := newGraph(entry)
	stack := []string{entry}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolve %s: %w", entry, err)
		}

		origin := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := b.visit(g, origin)
		if err != nil {
			return nil, err
		}
		if b.only {
			continue
		}
		for i := len(children) - 1; i >= 0; i-- {
			if !g.Visited(children[i]) {
				stack = append(stack, children[i])
			}
		}
	}

	return g, nil
}

// visit processes one origin and returns the sources it references.
func (b *Builder) visit(g *Graph, origin string) ([]string, error) {
	if g.Visited(origin) {
		return nil, nil
	}
	g.visited[origin] = struct{}{}

	fsPath := b.fsPath(origin)
	info, err := os.Stat(fsPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		b.warn(g, Warning{Kind: WarnMissingFile, Path: origin, Message: "skipping non-existent file"})
		return nil, nil
	case err != nil:
		return nil, &IOError{Op: "stat", Path: fsPath, Err: err}
	case info.IsDir():
		g.origin(origin)
		return nil, nil
	}

	rec, err := b.manifests.Extract(fsPath)
	if err != nil {
		return nil, &IOError{Op: "read", Path: fsPath, Err: err}
	}
	for _, line := range rec.Malformed {
		b.warn(g, Warning{Kind: WarnMalformed, Origin: origin, Path: line, Message: "ignoring header line"})
	}

	edges := g.origin(origin)
	dir, _ := srcpath.Split(origin)

	var children []string
	for _, raw := range rec.Pack {
		d, err := ParseDirective(raw)
		if err != nil {
			b.warn(g, Warning{Kind: WarnMalformed, Origin: origin, Path: raw, Message: err.Error()})
			continue
		}

		sources, err := b.expand(dir, d)
		if err != nil {
			b.warn(g, Warning{Kind: WarnMalformed, Origin: origin, Path: raw, Message: err.Error()})
			continue
		}
		if len(sources) == 0 {
			b.warn(g, Warning{Kind: WarnEmptyGlob, Origin: origin, Path: raw, Message: "nothing matched"})
			continue
		}

		for _, src := range sources {
			edges.set(src, destFor(dir, src, d))
			children = append(children, src)
		}
	}
	return children, nil
}

// destFor computes the declared destination of src under directive d.
func destFor(dir, src string, d Directive) string {
	switch {
	case !d.HasDest:
		// "assets/" names the directory itself, not a target to copy into.
		if trimmed := strings.TrimRight(src, "/"); trimmed != "" {
			return trimmed
		}
		return src
	case d.Dest == "":
		return ""
	default:
		return srcpath.Normalize(dir + d.Dest)
	}
}

// expand turns a directive into normalized source paths relative to Root.
// Glob patterns are matched below their longest literal directory prefix, so
// patterns may reach into parent directories ("../shared/*.sh").
func (b *Builder) expand(dir string, d Directive) ([]string, error) {
	if !d.IsGlob() {
		return []string{srcpath.Normalize(dir + d.Source)}, nil
	}

	base, pattern := splitLiteralBase(srcpath.Normalize(dir + d.Pattern))
	fsBase := "."
	if base != "" {
		fsBase = base
	}
	matches, err := doublestar.Glob(os.DirFS(b.fsPath(fsBase)), pattern)
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", d.Raw, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if base != "" {
			m = strings.TrimSuffix(base, "/") + "/" + m
		}
		out = append(out, srcpath.Normalize(m))
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// splitLiteralBase separates the leading directory segments of a pattern
// that contain no glob metacharacters. The base is returned unescaped.
func splitLiteralBase(pattern string) (base, rest string) {
	segs := strings.Split(pattern, "/")
	i := 0
	for i < len(segs)-1 && !hasMeta(segs[i]) {
		i++
	}
	if i == 0 {
		return "", pattern
	}
	base = unescape(strings.Join(segs[:i], "/"))
	if base == "" {
		// Absolute pattern rooted at "/".
		base = "/"
	}
	return base, strings.Join(segs[i:], "/")
}

func hasMeta(seg string) bool {
	for i := 0; i < len(seg); i++ {
		switch {
		case seg[i] == '\\':
			i++
		case strings.IndexByte(globMeta, seg[i]) >= 0:
			return true
		}
	}
	return false
}

// fsPath converts a graph path into a path usable with the os package.
func (b *Builder) fsPath(p string) string {
	native := filepath.FromSlash(p)
	if b.root == "" || filepath.IsAbs(native) {
		return native
	}
	return filepath.Join(b.root, native)
}

func (b *Builder) warn(g *Graph, w Warning) {
	g.warn(w)
	b.logger.Warn(w.Message, "kind", w.Kind, "path", w.Path, "origin", w.Origin)
}
